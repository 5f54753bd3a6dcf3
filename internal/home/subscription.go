package home

import "sync"

// Subscription is a conflated stream of states: a slow reader skips
// intermediate values and always receives the latest one.
type Subscription struct {
	ch   chan ViewState
	ctrl *Controller
	once sync.Once
}

// Subscribe returns a stream whose first value is the current state.
func (c *Controller) Subscribe() *Subscription {
	sub := &Subscription{ch: make(chan ViewState, 1), ctrl: c}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		sub.closeLocked()
		return sub
	}
	sub.ch <- snapshot(c.state)
	c.subs[sub] = struct{}{}
	return sub
}

// C delivers states. It is closed when the subscription or the controller
// is closed.
func (s *Subscription) C() <-chan ViewState {
	return s.ch
}

// Close detaches the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.ctrl.mu.Lock()
	defer s.ctrl.mu.Unlock()
	delete(s.ctrl.subs, s)
	s.closeLocked()
}

// offer replaces any undelivered value with state. Only the controller
// sends, always under its mutex, so the second send cannot block.
func (s *Subscription) offer(state ViewState) {
	select {
	case s.ch <- state:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- state:
	default:
	}
}

func (s *Subscription) closeLocked() {
	s.once.Do(func() { close(s.ch) })
}
