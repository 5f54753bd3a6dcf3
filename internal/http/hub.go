package http

import (
	"context"
	"sync"

	"pfm/internal/log"
)

// Hub tracks live Home sessions so background jobs can refresh them.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*session
	logger   *log.Logger
}

func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default(log.ComponentSession)
	}
	return &Hub{
		sessions: make(map[string]*session),
		logger:   logger.WithComponent(log.ComponentSession),
	}
}

func (h *Hub) register(s *session) {
	h.mu.Lock()
	h.sessions[s.id] = s
	n := len(h.sessions)
	h.mu.Unlock()
	h.logger.Debug("Session registered", log.FieldSessionID, s.id, "sessions", n)
}

func (h *Hub) unregister(id string) {
	h.mu.Lock()
	delete(h.sessions, id)
	h.mu.Unlock()
}

func (h *Hub) snapshot() []*session {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*session, 0, len(h.sessions))
	for _, s := range h.sessions {
		out = append(out, s)
	}
	return out
}

// Len returns the number of live sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// RefreshAll reloads every live session and returns how many were refreshed.
func (h *Hub) RefreshAll(ctx context.Context) int {
	sessions := h.snapshot()
	for _, s := range sessions {
		if ctx.Err() != nil {
			break
		}
		s.ctrl.Refresh()
	}
	if len(sessions) > 0 {
		h.logger.DebugContext(ctx, "Refreshed sessions", log.FieldOperation, log.OpRefresh, log.FieldCount, len(sessions))
	}
	return len(sessions)
}

// CloseAll ends every live session.
func (h *Hub) CloseAll() {
	for _, s := range h.snapshot() {
		s.close()
	}
}
