package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"pfm/internal/home"
	"pfm/internal/log"
)

const writeTimeout = 5 * time.Second

// session is one browser tab: a WebSocket bound to its own controller.
type session struct {
	id     string
	ctrl   *home.Controller
	conn   *websocket.Conn
	cancel context.CancelFunc
	logger *log.Logger
	now    func() time.Time
	once   sync.Once
}

// handleHomeSocket upgrades to a WebSocket and runs a Home session until
// either side closes it.
func (s *Server) handleHomeSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.WarnContext(r.Context(), "WebSocket upgrade failed", log.FieldError, err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	id := uuid.NewString()
	clientIP := s.detector.ExtractClientIP(r)
	logger := s.logger.With(log.FieldSessionID, id)

	opts := append([]home.Option{
		home.WithContext(ctx),
		home.WithLogger(logger),
	}, s.homeOpts...)

	sess := &session{
		id:     id,
		ctrl:   home.NewController(s.provider, opts...),
		conn:   conn,
		cancel: cancel,
		logger: logger,
		now:    s.now,
	}
	s.hub.register(sess)
	sessionLog := log.NewStructuredLogger(logger)
	sessionLog.LogSession(ctx, "Home session opened", id, clientIP)

	defer func() {
		s.hub.unregister(id)
		sess.close()
		sessionLog.LogSession(context.Background(), "Home session closed", id, clientIP)
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer cancel()
		sess.writeLoop(ctx)
	}()

	sess.readLoop(ctx)
	cancel()
	<-writerDone
}

// readLoop turns inbound frames into controller events.
func (s *session) readLoop(ctx context.Context) {
	for {
		var frame inboundFrame
		if err := wsjson.Read(ctx, s.conn, &frame); err != nil {
			if status := websocket.CloseStatus(err); status == -1 && ctx.Err() == nil {
				s.logger.DebugContext(ctx, "Home socket read ended", log.FieldError, err)
			}
			return
		}

		event, err := frame.toEvent()
		if err != nil {
			s.logger.WarnContext(ctx, "Ignoring frame", "type", frame.Type, log.FieldError, err)
			continue
		}
		s.ctrl.HandleEvent(event)
	}
}

// writeLoop forwards every published state and every effect, in order,
// until the controller closes its streams or ctx ends.
func (s *session) writeLoop(ctx context.Context) {
	sub := s.ctrl.Subscribe()
	defer sub.Close()
	states := sub.C()
	effects := s.ctrl.Effects()

	for states != nil || effects != nil {
		var frame outboundFrame
		select {
		case <-ctx.Done():
			return
		case st, ok := <-states:
			if !ok {
				states = nil
				continue
			}
			v := toStateView(st, s.now())
			frame = outboundFrame{Kind: frameState, State: &v}
		case eff, ok := <-effects:
			if !ok {
				effects = nil
				continue
			}
			v := toEffectView(eff)
			frame = outboundFrame{Kind: frameEffect, Effect: &v}
		}

		if err := s.write(ctx, frame); err != nil {
			if !errors.Is(err, context.Canceled) {
				s.logger.WarnContext(ctx, "Home socket write failed", "kind", frame.Kind, log.FieldError, err)
			}
			return
		}
	}
}

func (s *session) write(ctx context.Context, frame outboundFrame) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, s.conn, frame)
}

// close sends a normal closure, then stops the controller. Safe to call
// more than once.
func (s *session) close() {
	s.once.Do(func() {
		s.conn.Close(websocket.StatusNormalClosure, "session closed")
		s.cancel()
		s.ctrl.Close()
	})
}
