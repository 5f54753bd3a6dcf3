package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	amqp091 "github.com/rabbitmq/amqp091-go"
)

func TestExponentialBackoff(t *testing.T) {
	want := []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second,
		maxBackoff, maxBackoff, maxBackoff,
	}
	for attempt, w := range want {
		if got := exponentialBackoff(attempt); got != w {
			t.Errorf("exponentialBackoff(%d) = %v, want %v", attempt, got, w)
		}
	}
	if got := exponentialBackoff(-3); got != time.Second {
		t.Errorf("negative attempt: got %v, want 1s", got)
	}
	if got := exponentialBackoff(40); got != maxBackoff {
		t.Errorf("large attempt: got %v, want %v", got, maxBackoff)
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := map[string]struct {
		err  error
		want bool
	}{
		"nil":                 {nil, false},
		"refused":             {errors.New("dial tcp 127.0.0.1:5672: connect: connection refused"), true},
		"eof":                 {errors.New("unexpected EOF"), true},
		"broken pipe":         {errors.New("write: broken pipe"), true},
		"closed socket":       {errors.New("use of closed network connection"), true},
		"dial failure":        {fmt.Errorf("wrap: %w", errors.New("dial AMQP: timeout")), true},
		"amqp closed":         {fmt.Errorf("channel: %w", amqp091.ErrClosed), true},
		"deliveries closed":   {errDeliveriesClosed, true},
		"malformed payload":   {errors.New("invalid character 'l'"), false},
		"handler application": {errors.New("refresh failed"), false},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.want {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func stateOf(c *Client) int32 { return atomic.LoadInt32(&c.state) }

// The breaker walks closed -> open -> half-open -> open -> half-open -> closed.
func TestCircuitBreakerLifecycle(t *testing.T) {
	c := &Client{}

	for i := 1; i < maxFailures; i++ {
		c.recordFailure()
		if c.isCircuitOpen() {
			t.Fatalf("breaker opened after %d failures, threshold is %d", i, maxFailures)
		}
	}
	c.recordFailure()
	if !c.isCircuitOpen() || stateOf(c) != StateOpen {
		t.Fatalf("breaker should be open at the threshold, state=%d", stateOf(c))
	}

	c.lastFailure = time.Now().Add(-openTimeout - time.Second)
	if c.isCircuitOpen() {
		t.Fatal("breaker should let a probe through after the open timeout")
	}
	if stateOf(c) != StateHalfOpen {
		t.Fatalf("state = %d, want half-open", stateOf(c))
	}

	c.recordFailure()
	if stateOf(c) != StateOpen {
		t.Fatalf("a failed probe should reopen the breaker, state=%d", stateOf(c))
	}

	c.lastFailure = time.Now().Add(-openTimeout - time.Second)
	c.isCircuitOpen()
	c.recordSuccess()
	if stateOf(c) != StateClosed || atomic.LoadInt64(&c.failureCount) != 0 {
		t.Fatalf("success should close and reset, state=%d failures=%d", stateOf(c), c.failureCount)
	}
}

func TestPublishShortCircuits(t *testing.T) {
	msg := NewLedgerUpdatedMessage("api", 1)

	open := &Client{lastFailure: time.Now()}
	atomic.StoreInt32(&open.state, StateOpen)
	err := open.PublishLedgerUpdated(context.Background(), msg)
	if err == nil || !strings.Contains(err.Error(), "circuit breaker is open") {
		t.Errorf("publish with open breaker: err = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := (&Client{}).PublishLedgerUpdated(ctx, msg); !errors.Is(err, context.Canceled) {
		t.Errorf("publish with cancelled context: err = %v, want context.Canceled", err)
	}
}

func TestLedgerUpdatedMessage(t *testing.T) {
	before := time.Now()
	msg := NewLedgerUpdatedMessage("seed", 8)
	if msg.Source != "seed" || msg.Count != 8 || msg.Timestamp.Before(before) {
		t.Fatalf("NewLedgerUpdatedMessage() = %+v", msg)
	}

	body, err := (&LedgerUpdatedMessage{
		Source:    "api",
		Count:     3,
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}).ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	if want := `{"source":"api","count":3,"timestamp":"2025-06-01T12:00:00Z"}`; string(body) != want {
		t.Errorf("ToJSON() = %s, want %s", body, want)
	}

	parsed, err := LedgerUpdatedMessageFromJSON(body)
	if err != nil {
		t.Fatalf("LedgerUpdatedMessageFromJSON() error = %v", err)
	}
	if parsed.Source != "api" || parsed.Count != 3 {
		t.Errorf("parsed = %+v", parsed)
	}
}

func TestLedgerUpdatedMessageRejectsInvalid(t *testing.T) {
	for _, body := range []string{
		`{"source": 12}`,
		`{"count": 1}`,
		`{"source": "api", "count": -1}`,
		`ledger changed`,
	} {
		if _, err := LedgerUpdatedMessageFromJSON([]byte(body)); err == nil {
			t.Errorf("LedgerUpdatedMessageFromJSON(%s) should fail", body)
		}
	}
}
