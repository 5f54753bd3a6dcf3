// Package home drives the home dashboard. A Controller turns user events into
// provider calls and publishes the resulting ViewState, while one-shot
// instructions for the presentation layer travel on a separate Effect queue.
package home

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"pfm/internal/core"
	"pfm/internal/log"
	"pfm/internal/provider"
)

const (
	DefaultEffectBuffer = 64
	DefaultFetchTimeout = 10 * time.Second

	unknownErrorMessage = "An unknown error occurred"
	chartErrorMessage   = "Failed to update chart"
	notificationsToast  = "Notifications"
)

// Controller owns the home screen state. All exported methods are safe for
// concurrent use; state publications are serialized by an internal mutex.
type Controller struct {
	provider      provider.HomeProvider
	logger        *log.Logger
	ctx           context.Context
	cancel        context.CancelFunc
	fetchTimeout  time.Duration
	defaultPeriod core.ChartPeriod

	mu         sync.Mutex
	state      ViewState
	history    *HistoryCache
	generation uint64
	selection  uint64
	subs       map[*Subscription]struct{}
	closed     bool

	effects chan Effect
	wg      sync.WaitGroup
}

type options struct {
	logger        *log.Logger
	parent        context.Context
	effectBuffer  int
	defaultPeriod core.ChartPeriod
	fetchTimeout  time.Duration
}

// Option configures a Controller.
type Option func(*options)

func WithLogger(logger *log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithContext sets the parent context of every provider call. Cancelling it
// fails in-flight calls; Close is still required to release the controller.
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.parent = ctx }
}

// WithEffectBuffer sets how many undelivered effects are kept before new
// ones are dropped.
func WithEffectBuffer(n int) Option {
	return func(o *options) { o.effectBuffer = n }
}

// WithDefaultPeriod sets the period of the first load and of reloads that
// start from a non-Success state.
func WithDefaultPeriod(p core.ChartPeriod) Option {
	return func(o *options) { o.defaultPeriod = p }
}

// WithFetchTimeout bounds each load and each chart fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(o *options) { o.fetchTimeout = d }
}

// NewController publishes Loading and immediately starts the first load.
func NewController(p provider.HomeProvider, opts ...Option) *Controller {
	o := options{
		effectBuffer:  DefaultEffectBuffer,
		defaultPeriod: core.DefaultPeriod,
		fetchTimeout:  DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Default(log.ComponentHome)
	}
	if o.parent == nil {
		o.parent = context.Background()
	}
	if o.effectBuffer < 1 {
		o.effectBuffer = 1
	}
	if !o.defaultPeriod.Valid() {
		o.defaultPeriod = core.DefaultPeriod
	}

	ctx, cancel := context.WithCancel(o.parent)
	c := &Controller{
		provider:      p,
		logger:        o.logger.WithComponent(log.ComponentHome),
		ctx:           ctx,
		cancel:        cancel,
		fetchTimeout:  o.fetchTimeout,
		defaultPeriod: o.defaultPeriod,
		state:         Loading{},
		history:       NewHistoryCache(),
		subs:          make(map[*Subscription]struct{}),
		effects:       make(chan Effect, o.effectBuffer),
	}

	c.mu.Lock()
	c.loadLocked(c.defaultPeriod)
	c.mu.Unlock()
	return c
}

// State returns a snapshot of the latest published state.
func (c *Controller) State() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return snapshot(c.state)
}

// Effects returns the effect queue. Each effect is received by exactly one
// reader. The channel is closed by Close.
func (c *Controller) Effects() <-chan Effect {
	return c.effects
}

// HandleEvent applies a user intent. It never blocks on provider calls.
func (c *Controller) HandleEvent(event Event) {
	c.logger.Debug("Handling event", log.FieldEvent, EventName(event))

	switch e := event.(type) {
	case PeriodSelected:
		c.selectPeriod(e.Period)
	case TransactionClicked:
		c.emit(NavigateToTransaction{TransactionID: e.TransactionID})
	case RecipientClicked:
		c.emit(NavigateToRecipient{RecipientID: e.RecipientID})
	case NotificationClicked:
		c.emit(ShowToast{Message: notificationsToast})
	case Retry, Refresh:
		c.Refresh()
	default:
		c.logger.Warn("Ignoring unknown event", log.FieldEvent, EventName(event))
	}
}

// Refresh drops every cached series and reloads the screen for the current
// period, or the default period when nothing is loaded.
func (c *Controller) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	period := c.defaultPeriod
	if s, ok := c.state.(Success); ok {
		period = s.SelectedPeriod
	}
	c.history.Clear()
	c.loadLocked(period)
}

// Wait blocks until all in-flight provider work has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels in-flight work and closes every subscription and the effect
// queue. No state or effect is published after Close returns.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	for sub := range c.subs {
		sub.closeLocked()
	}
	clear(c.subs)
	close(c.effects)
}

// loadLocked publishes Loading and fetches the four home resources
// concurrently. Only the newest generation may publish its result.
func (c *Controller) loadLocked(period core.ChartPeriod) {
	if c.closed {
		return
	}
	c.generation++
	gen := c.generation
	c.publishLocked(Loading{})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		state := c.fetchHome(period)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			return
		}
		if gen != c.generation {
			c.logger.Debug("Discarding stale load",
				log.FieldGeneration, gen,
				log.FieldPeriod, period.Label(),
			)
			return
		}
		if s, ok := state.(Success); ok {
			c.history.Put(period, s.BalanceHistory)
		}
		c.publishLocked(state)
	}()
}

func (c *Controller) fetchHome(period core.ChartPeriod) ViewState {
	ctx, cancel := c.fetchContext()
	defer cancel()

	var (
		user       core.User
		recipients []core.Recipient
		recent     []core.Transaction
		history    []core.BalanceDataPoint
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = c.provider.GetCurrentUser(gctx)
		return c.logFailure(gctx, err, "user")
	})
	g.Go(func() error {
		var err error
		recipients, err = c.provider.GetRecipients(gctx)
		return c.logFailure(gctx, err, "recipients")
	})
	g.Go(func() error {
		var err error
		recent, err = c.provider.GetRecentTransactions(gctx)
		return c.logFailure(gctx, err, "recent_transactions")
	})
	g.Go(func() error {
		var err error
		history, err = c.provider.GetBalanceHistory(gctx, period)
		return c.logFailure(gctx, err, "balance_history")
	})

	if err := g.Wait(); err != nil {
		return Error{Message: messageFor(err, unknownErrorMessage)}
	}

	return Success{
		User:               user,
		Balance:            user.Balance,
		Recipients:         recipients,
		RecentTransactions: recent,
		BalanceHistory:     history,
		SelectedPeriod:     period,
	}
}

// selectPeriod switches the chart. A cached series is applied before
// returning; otherwise the series is fetched in the background.
func (c *Controller) selectPeriod(period core.ChartPeriod) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if !period.Valid() {
		c.logger.Warn("Ignoring invalid period", log.FieldPeriod, string(period))
		return
	}
	current, ok := c.state.(Success)
	if !ok {
		return
	}

	// Any selection, even of the period already shown, supersedes a
	// pending fetch.
	c.selection++
	seq := c.selection
	if current.SelectedPeriod == period {
		return
	}

	if series, ok := c.history.Get(period); ok {
		c.publishLocked(current.withPeriod(period, series))
		return
	}

	gen := c.generation
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := c.fetchContext()
		defer cancel()
		series, err := c.provider.GetBalanceHistory(ctx, period)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || gen != c.generation {
			return
		}
		if err != nil {
			c.logger.Warn("Failed to load balance history",
				log.FieldPeriod, period.Label(),
				log.FieldError, err,
			)
			c.emitLocked(ShowError{Message: messageFor(err, chartErrorMessage)})
			return
		}

		c.history.Put(period, series)
		if seq != c.selection {
			return
		}
		if s, ok := c.state.(Success); ok {
			c.publishLocked(s.withPeriod(period, series))
		}
	}()
}

func (c *Controller) fetchContext() (context.Context, context.CancelFunc) {
	if c.fetchTimeout > 0 {
		return context.WithTimeout(c.ctx, c.fetchTimeout)
	}
	return context.WithCancel(c.ctx)
}

func (c *Controller) logFailure(ctx context.Context, err error, resource string) error {
	if err == nil || c.ctx.Err() != nil {
		return err
	}
	// Siblings cancelled by the first failure are not failures of their own.
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return err
	}
	c.logger.Warn("Home load call failed",
		log.FieldOperation, resource,
		log.FieldError, err,
	)
	return err
}

func (c *Controller) publishLocked(state ViewState) {
	c.state = state
	for sub := range c.subs {
		sub.offer(snapshot(state))
	}
	c.logger.Debug("State published", log.FieldState, StateName(state), log.FieldGeneration, c.generation)
}

func (c *Controller) emit(effect Effect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emitLocked(effect)
}

func (c *Controller) emitLocked(effect Effect) {
	if c.closed {
		return
	}
	select {
	case c.effects <- effect:
	default:
		c.logger.Warn("Effect queue full, dropping effect", log.FieldEffect, EffectName(effect))
	}
}

func messageFor(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}
