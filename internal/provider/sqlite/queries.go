package sqlite

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type UserRow struct {
	ID                   string
	Name                 string
	Email                string
	AvatarURL            string
	BalanceCents         int64
	StartingBalanceCents int64
}

const getCurrentUser = `
SELECT id, name, email, avatar_url, balance_cents, starting_balance_cents
FROM users
ORDER BY id
LIMIT 1
`

func (q *Queries) GetCurrentUser(ctx context.Context) (UserRow, error) {
	row := q.db.QueryRowContext(ctx, getCurrentUser)
	var u UserRow
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.AvatarURL, &u.BalanceCents, &u.StartingBalanceCents)
	return u, err
}

const upsertUser = `
INSERT INTO users (id, name, email, avatar_url, balance_cents, starting_balance_cents)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    email = excluded.email,
    avatar_url = excluded.avatar_url,
    balance_cents = excluded.balance_cents,
    starting_balance_cents = excluded.starting_balance_cents
`

func (q *Queries) UpsertUser(ctx context.Context, u UserRow) error {
	_, err := q.db.ExecContext(ctx, upsertUser, u.ID, u.Name, u.Email, u.AvatarURL, u.BalanceCents, u.StartingBalanceCents)
	return err
}

const adjustBalance = `UPDATE users SET balance_cents = balance_cents + ? WHERE id = ?`

func (q *Queries) AdjustBalance(ctx context.Context, userID string, deltaCents int64) error {
	_, err := q.db.ExecContext(ctx, adjustBalance, deltaCents, userID)
	return err
}

type CategoryRow struct {
	ID   string
	Name string
	Type string
}

const listCategories = `SELECT id, name, type FROM categories ORDER BY rowid`

func (q *Queries) ListCategories(ctx context.Context) ([]CategoryRow, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CategoryRow
	for rows.Next() {
		var c CategoryRow
		if err := rows.Scan(&c.ID, &c.Name, &c.Type); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const upsertCategory = `
INSERT INTO categories (id, name, type) VALUES (?, ?, ?)
ON CONFLICT (id) DO UPDATE SET name = excluded.name, type = excluded.type
`

func (q *Queries) UpsertCategory(ctx context.Context, c CategoryRow) error {
	_, err := q.db.ExecContext(ctx, upsertCategory, c.ID, c.Name, c.Type)
	return err
}

type RecipientRow struct {
	ID        string
	Name      string
	AvatarURL string
	Online    bool
	Position  int64
}

const listRecipients = `SELECT id, name, avatar_url, online, position FROM recipients ORDER BY position, id`

func (q *Queries) ListRecipients(ctx context.Context) ([]RecipientRow, error) {
	rows, err := q.db.QueryContext(ctx, listRecipients)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RecipientRow
	for rows.Next() {
		var r RecipientRow
		if err := rows.Scan(&r.ID, &r.Name, &r.AvatarURL, &r.Online, &r.Position); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const upsertRecipient = `
INSERT INTO recipients (id, name, avatar_url, online, position) VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    avatar_url = excluded.avatar_url,
    online = excluded.online,
    position = excluded.position
`

func (q *Queries) UpsertRecipient(ctx context.Context, r RecipientRow) error {
	_, err := q.db.ExecContext(ctx, upsertRecipient, r.ID, r.Name, r.AvatarURL, r.Online, r.Position)
	return err
}

// TransactionRow is a transaction joined with its category and optional
// recipient.
type TransactionRow struct {
	ID                 string
	Title              string
	Subtitle           string
	AmountCents        int64
	Type               string
	CategoryID         string
	CategoryName       string
	CategoryType       string
	OccurredAt         int64
	RecipientID        sql.NullString
	RecipientName      sql.NullString
	RecipientAvatarURL sql.NullString
	RecipientOnline    sql.NullBool
}

func (r TransactionRow) Time() time.Time {
	return time.UnixMilli(r.OccurredAt).UTC()
}

const selectTransactions = `
SELECT t.id, t.title, t.subtitle, t.amount_cents, t.type,
       c.id, c.name, c.type,
       t.occurred_at,
       r.id, r.name, r.avatar_url, r.online
FROM transactions t
JOIN categories c ON c.id = t.category_id
LEFT JOIN recipients r ON r.id = t.recipient_id
`

const listTransactions = selectTransactions + `ORDER BY t.occurred_at DESC, t.id`

func (q *Queries) ListTransactions(ctx context.Context) ([]TransactionRow, error) {
	return q.queryTransactions(ctx, listTransactions)
}

const listRecentTransactions = selectTransactions + `ORDER BY t.occurred_at DESC, t.id LIMIT ?`

func (q *Queries) ListRecentTransactions(ctx context.Context, limit int64) ([]TransactionRow, error) {
	return q.queryTransactions(ctx, listRecentTransactions, limit)
}

const listTransactionsByCategory = selectTransactions + `WHERE t.category_id = ? ORDER BY t.occurred_at DESC, t.id`

func (q *Queries) ListTransactionsByCategory(ctx context.Context, categoryID string) ([]TransactionRow, error) {
	return q.queryTransactions(ctx, listTransactionsByCategory, categoryID)
}

const listTransactionsByType = selectTransactions + `WHERE t.type = ? ORDER BY t.occurred_at DESC, t.id`

func (q *Queries) ListTransactionsByType(ctx context.Context, typ string) ([]TransactionRow, error) {
	return q.queryTransactions(ctx, listTransactionsByType, typ)
}

const getTransaction = selectTransactions + `WHERE t.id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id string) (TransactionRow, error) {
	items, err := q.queryTransactions(ctx, getTransaction, id)
	if err != nil {
		return TransactionRow{}, err
	}
	if len(items) == 0 {
		return TransactionRow{}, sql.ErrNoRows
	}
	return items[0], nil
}

const sumSignedAmounts = `
SELECT COALESCE(SUM(CASE WHEN type = 'CREDIT' THEN amount_cents ELSE -amount_cents END), 0)
FROM transactions
`

func (q *Queries) SumSignedAmounts(ctx context.Context) (int64, error) {
	var total int64
	err := q.db.QueryRowContext(ctx, sumSignedAmounts).Scan(&total)
	return total, err
}

const insertTransaction = `
INSERT INTO transactions (id, title, subtitle, amount_cents, type, category_id, occurred_at, recipient_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

type InsertTransactionParams struct {
	ID          string
	Title       string
	Subtitle    string
	AmountCents int64
	Type        string
	CategoryID  string
	OccurredAt  int64
	RecipientID sql.NullString
}

func (q *Queries) InsertTransaction(ctx context.Context, p InsertTransactionParams) error {
	_, err := q.db.ExecContext(ctx, insertTransaction,
		p.ID, p.Title, p.Subtitle, p.AmountCents, p.Type, p.CategoryID, p.OccurredAt, p.RecipientID)
	return err
}

func (q *Queries) DeleteAll(ctx context.Context) error {
	for _, stmt := range []string{
		"DELETE FROM transactions",
		"DELETE FROM recipients",
		"DELETE FROM categories",
		"DELETE FROM users",
	} {
		if _, err := q.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (q *Queries) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		var t TransactionRow
		if err := rows.Scan(
			&t.ID, &t.Title, &t.Subtitle, &t.AmountCents, &t.Type,
			&t.CategoryID, &t.CategoryName, &t.CategoryType,
			&t.OccurredAt,
			&t.RecipientID, &t.RecipientName, &t.RecipientAvatarURL, &t.RecipientOnline,
		); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}
