// Package memory is an in-process data provider backed by a static data set.
// It simulates backend latency and generates a random-walk balance history,
// which makes it suitable for demos and UI work without any infrastructure.
package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"pfm/internal/core"
	"pfm/internal/provider"
)

// Operation names a provider call, used for latency and fault injection.
type Operation string

const (
	OpCurrentUser          Operation = "current_user"
	OpCategories           Operation = "categories"
	OpRecipients           Operation = "recipients"
	OpRecentTransactions   Operation = "recent_transactions"
	OpAllTransactions      Operation = "all_transactions"
	OpBalanceHistory       Operation = "balance_history"
	OpCalculateBalance     Operation = "calculate_balance"
	OpTransactionByID      Operation = "transaction_by_id"
	OpTransactionsCategory Operation = "transactions_by_category"
	OpTransactionsType     Operation = "transactions_by_type"
)

var defaultLatency = map[Operation]time.Duration{
	OpCurrentUser:          300 * time.Millisecond,
	OpCategories:           200 * time.Millisecond,
	OpRecipients:           200 * time.Millisecond,
	OpRecentTransactions:   300 * time.Millisecond,
	OpAllTransactions:      300 * time.Millisecond,
	OpBalanceHistory:       400 * time.Millisecond,
	OpCalculateBalance:     200 * time.Millisecond,
	OpTransactionByID:      200 * time.Millisecond,
	OpTransactionsCategory: 300 * time.Millisecond,
	OpTransactionsType:     300 * time.Millisecond,
}

const (
	historyFloorCents  = 500000 // 5000.00
	variationMinDollar = -200
	variationMaxDollar = 300
)

// Store serves a Dataset. The zero value is not usable; use New.
type Store struct {
	mu       sync.Mutex
	data     Dataset
	latency  bool
	rng      *rand.Rand
	now      func() time.Time
	failures map[Operation]error
}

var _ provider.Provider = (*Store)(nil)

// Option customises a Store.
type Option func(*Store)

// WithLatency toggles the simulated per-call delays.
func WithLatency(enabled bool) Option {
	return func(s *Store) { s.latency = enabled }
}

// WithSeed makes the generated history reproducible. Zero keeps a time seed.
func WithSeed(seed int64) Option {
	return func(s *Store) {
		if seed != 0 {
			s.rng = rand.New(rand.NewSource(seed))
		}
	}
}

// WithClock overrides the time source used for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a store serving the given data set.
func New(data Dataset, opts ...Option) *Store {
	s := &Store{
		data:     data.Clone(),
		latency:  true,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
		failures: make(map[Operation]error),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewReference creates a store serving the reference data set.
func NewReference(opts ...Option) *Store {
	return New(Reference(time.Now()), opts...)
}

// Fail makes every subsequent call of op return err. A nil err clears it.
func (s *Store) Fail(op Operation, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Replace swaps the served data set.
func (s *Store) Replace(data Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data.Clone()
}

func (s *Store) GetCurrentUser(ctx context.Context) (core.User, error) {
	if err := s.begin(ctx, OpCurrentUser); err != nil {
		return core.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.User, nil
}

func (s *Store) GetCategories(ctx context.Context) ([]core.Category, error) {
	if err := s.begin(ctx, OpCategories); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.data.Categories...), nil
}

func (s *Store) GetRecipients(ctx context.Context) ([]core.Recipient, error) {
	if err := s.begin(ctx, OpRecipients); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Recipient(nil), s.data.Recipients...), nil
}

func (s *Store) GetRecentTransactions(ctx context.Context) ([]core.Transaction, error) {
	if err := s.begin(ctx, OpRecentTransactions); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.RecentTransactions(s.data.Transactions, core.RecentLimit), nil
}

func (s *Store) GetAllTransactions(ctx context.Context) ([]core.Transaction, error) {
	if err := s.begin(ctx, OpAllTransactions); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.data.Transactions...), nil
}

// GetBalanceHistory walks backwards from the user's balance with a random
// variation per step, never dropping below 5000.00.
func (s *Store) GetBalanceHistory(ctx context.Context, period core.ChartPeriod) ([]core.BalanceDataPoint, error) {
	if err := s.begin(ctx, OpBalanceHistory); err != nil {
		return nil, err
	}
	if !period.Valid() {
		return nil, core.ErrInvalidPeriod
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := period.Points()
	points := make([]core.BalanceDataPoint, n)
	balance := s.data.User.Balance
	at := s.now()
	floor := core.Money{Cents: historyFloorCents}
	for i := n - 1; i >= 0; i-- {
		points[i] = core.BalanceDataPoint{Date: at, Balance: balance}
		at = at.Add(-period.Interval())
		variation := core.FromDollars(int64(variationMinDollar + s.rng.Intn(variationMaxDollar-variationMinDollar+1)))
		balance = balance.Sub(variation).Max(floor)
	}
	return points, nil
}

func (s *Store) CalculateBalance(ctx context.Context) (core.Money, error) {
	if err := s.begin(ctx, OpCalculateBalance); err != nil {
		return core.Money{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.CalculateBalance(s.data.StartingBalance, s.data.Transactions), nil
}

func (s *Store) GetTransactionByID(ctx context.Context, id string) (core.Transaction, bool, error) {
	if err := s.begin(ctx, OpTransactionByID); err != nil {
		return core.Transaction{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := core.FindTransaction(s.data.Transactions, id)
	return tx, ok, nil
}

func (s *Store) GetTransactionsByCategory(ctx context.Context, categoryID string) ([]core.Transaction, error) {
	if err := s.begin(ctx, OpTransactionsCategory); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.FilterByCategory(s.data.Transactions, categoryID), nil
}

func (s *Store) GetTransactionsByType(ctx context.Context, typ core.TransactionType) ([]core.Transaction, error) {
	if err := s.begin(ctx, OpTransactionsType); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.FilterByType(s.data.Transactions, typ), nil
}

// begin applies the simulated latency and any injected failure.
func (s *Store) begin(ctx context.Context, op Operation) error {
	s.mu.Lock()
	delay := time.Duration(0)
	if s.latency {
		delay = defaultLatency[op]
	}
	failure := s.failures[op]
	s.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}
	return failure
}
