// Package sqlite is a provider backed by a local SQLite ledger. The balance
// history is derived from the stored transactions instead of being simulated.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"pfm/internal/core"
	"pfm/internal/log"
	"pfm/internal/provider"
	"pfm/internal/provider/memory"
)

type Repository struct {
	db      *sql.DB
	queries *Queries
	logger  *log.Logger
	now     func() time.Time
}

var _ provider.Provider = (*Repository)(nil)

// ErrNoUser is returned when the ledger has not been seeded.
var ErrNoUser = errors.New("no user in ledger")

// NewRepository opens (creating if needed) the database at dbPath and runs
// the embedded migrations.
func NewRepository(dbPath string, logger *log.Logger) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if logger == nil {
		logger = log.Default(log.ComponentStorage)
	}

	return &Repository{
		db:      db,
		queries: New(db),
		logger:  logger.WithComponent(log.ComponentStorage),
		now:     time.Now,
	}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SetClock overrides the time source of derived history.
func (r *Repository) SetClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

func (r *Repository) GetCurrentUser(ctx context.Context) (core.User, error) {
	row, err := r.queries.GetCurrentUser(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ErrNoUser
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get current user: %w", err)
	}
	return core.User{
		ID:        row.ID,
		Name:      row.Name,
		Email:     row.Email,
		AvatarURL: row.AvatarURL,
		Balance:   core.Money{Cents: row.BalanceCents},
	}, nil
}

func (r *Repository) GetCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.Category, len(rows))
	for i, c := range rows {
		out[i] = core.Category{ID: c.ID, Name: c.Name, Type: core.TransactionType(c.Type)}
	}
	return out, nil
}

func (r *Repository) GetRecipients(ctx context.Context) ([]core.Recipient, error) {
	rows, err := r.queries.ListRecipients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	out := make([]core.Recipient, len(rows))
	for i, rec := range rows {
		out[i] = core.Recipient{ID: rec.ID, Name: rec.Name, AvatarURL: rec.AvatarURL, Online: rec.Online}
	}
	return out, nil
}

func (r *Repository) GetRecentTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListRecentTransactions(ctx, core.RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("list recent transactions: %w", err)
	}
	return toTransactions(rows), nil
}

func (r *Repository) GetAllTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return toTransactions(rows), nil
}

// GetBalanceHistory replays the ledger backwards from the stored balance.
func (r *Repository) GetBalanceHistory(ctx context.Context, period core.ChartPeriod) ([]core.BalanceDataPoint, error) {
	if !period.Valid() {
		return nil, core.ErrInvalidPeriod
	}
	user, err := r.GetCurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	txns, err := r.GetAllTransactions(ctx)
	if err != nil {
		return nil, err
	}
	return core.DeriveBalanceHistory(user.Balance, txns, period, r.now()), nil
}

// CalculateBalance is the starting balance plus the signed sum of the ledger.
func (r *Repository) CalculateBalance(ctx context.Context) (core.Money, error) {
	user, err := r.queries.GetCurrentUser(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Money{}, ErrNoUser
	}
	if err != nil {
		return core.Money{}, fmt.Errorf("get current user: %w", err)
	}
	sum, err := r.queries.SumSignedAmounts(ctx)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum transactions: %w", err)
	}
	return core.Money{Cents: user.StartingBalanceCents + sum}, nil
}

func (r *Repository) GetTransactionByID(ctx context.Context, id string) (core.Transaction, bool, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, false, nil
	}
	if err != nil {
		return core.Transaction{}, false, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return toTransaction(row), true, nil
}

func (r *Repository) GetTransactionsByCategory(ctx context.Context, categoryID string) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsByCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list transactions for category %s: %w", categoryID, err)
	}
	return toTransactions(rows), nil
}

func (r *Repository) GetTransactionsByType(ctx context.Context, typ core.TransactionType) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsByType(ctx, string(typ))
	if err != nil {
		return nil, fmt.Errorf("list %s transactions: %w", typ, err)
	}
	return toTransactions(rows), nil
}

// Seed replaces the whole ledger with data in a single transaction.
func (r *Repository) Seed(ctx context.Context, data memory.Dataset) error {
	return r.inTx(ctx, func(q *Queries) error {
		if err := q.DeleteAll(ctx); err != nil {
			return fmt.Errorf("clear ledger: %w", err)
		}
		if err := q.UpsertUser(ctx, UserRow{
			ID:                   data.User.ID,
			Name:                 data.User.Name,
			Email:                data.User.Email,
			AvatarURL:            data.User.AvatarURL,
			BalanceCents:         data.User.Balance.Cents,
			StartingBalanceCents: data.StartingBalance.Cents,
		}); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		for _, c := range data.Categories {
			if err := q.UpsertCategory(ctx, CategoryRow{ID: c.ID, Name: c.Name, Type: string(c.Type)}); err != nil {
				return fmt.Errorf("insert category %s: %w", c.ID, err)
			}
		}
		for i, rec := range data.Recipients {
			if err := q.UpsertRecipient(ctx, RecipientRow{
				ID:        rec.ID,
				Name:      rec.Name,
				AvatarURL: rec.AvatarURL,
				Online:    rec.Online,
				Position:  int64(i),
			}); err != nil {
				return fmt.Errorf("insert recipient %s: %w", rec.ID, err)
			}
		}
		for _, t := range data.Transactions {
			if err := insertCoreTransaction(ctx, q, t); err != nil {
				return err
			}
		}

		r.logger.InfoContext(ctx, "Ledger seeded",
			log.FieldOperation, log.OpSeed,
			log.FieldCount, len(data.Transactions),
		)
		return nil
	})
}

// AppendTransactions records new transactions and moves the user's balance
// by their signed total, atomically.
func (r *Repository) AppendTransactions(ctx context.Context, txns []core.Transaction) error {
	return r.inTx(ctx, func(q *Queries) error {
		user, err := q.GetCurrentUser(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNoUser
		}
		if err != nil {
			return fmt.Errorf("get current user: %w", err)
		}
		var delta core.Money
		for _, t := range txns {
			if err := t.Validate(); err != nil {
				return fmt.Errorf("transaction %s: %w", t.ID, err)
			}
			if err := insertCoreTransaction(ctx, q, t); err != nil {
				return err
			}
			delta = delta.Add(t.SignedAmount())
		}
		if err := q.AdjustBalance(ctx, user.ID, delta.Cents); err != nil {
			return fmt.Errorf("adjust balance: %w", err)
		}

		r.logger.InfoContext(ctx, "Transactions appended",
			log.FieldCount, len(txns),
			log.FieldAmountCents, delta.Cents,
		)
		return nil
	})
}

func (r *Repository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertCoreTransaction(ctx context.Context, q *Queries, t core.Transaction) error {
	params := InsertTransactionParams{
		ID:          t.ID,
		Title:       t.Title,
		Subtitle:    t.Subtitle,
		AmountCents: t.Amount.Cents,
		Type:        string(t.Type),
		CategoryID:  t.Category.ID,
		OccurredAt:  t.Date.UnixMilli(),
	}
	if t.Recipient != nil {
		params.RecipientID = sql.NullString{String: t.Recipient.ID, Valid: true}
	}
	if err := q.InsertTransaction(ctx, params); err != nil {
		return fmt.Errorf("insert transaction %s: %w", t.ID, err)
	}
	return nil
}

func toTransactions(rows []TransactionRow) []core.Transaction {
	out := make([]core.Transaction, len(rows))
	for i, row := range rows {
		out[i] = toTransaction(row)
	}
	return out
}

func toTransaction(row TransactionRow) core.Transaction {
	t := core.Transaction{
		ID:       row.ID,
		Title:    row.Title,
		Subtitle: row.Subtitle,
		Amount:   core.Money{Cents: row.AmountCents},
		Type:     core.TransactionType(row.Type),
		Category: core.Category{
			ID:   row.CategoryID,
			Name: row.CategoryName,
			Type: core.TransactionType(row.CategoryType),
		},
		Date: row.Time(),
	}
	if row.RecipientID.Valid {
		t.Recipient = &core.Recipient{
			ID:        row.RecipientID.String,
			Name:      row.RecipientName.String,
			AvatarURL: row.RecipientAvatarURL.String,
			Online:    row.RecipientOnline.Bool,
		}
	}
	return t
}
