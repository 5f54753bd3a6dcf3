package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pfm/internal/core"
	"pfm/internal/log"
	"pfm/internal/provider/memory"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newSeededRepo(t *testing.T) (*Repository, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "data", "pfm.db")
	repo, err := NewRepository(dbPath, log.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	repo.SetClock(func() time.Time { return testNow })

	require.NoError(t, repo.Seed(context.Background(), memory.Reference(testNow)))
	return repo, dbPath
}

func TestEmptyLedger(t *testing.T) {
	repo, err := NewRepository(filepath.Join(t.TempDir(), "empty.db"), log.Discard())
	require.NoError(t, err)
	defer repo.Close()

	_, err = repo.GetCurrentUser(context.Background())
	assert.ErrorIs(t, err, ErrNoUser)

	recipients, err := repo.GetRecipients(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recipients)
}

func TestSeedRoundTrip(t *testing.T) {
	repo, _ := newSeededRepo(t)
	ctx := context.Background()

	user, err := repo.GetCurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "John", user.Name)
	assert.Equal(t, int64(1355300), user.Balance.Cents)
	assert.True(t, user.HasEmail())

	categories, err := repo.GetCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 7)
	assert.Equal(t, memory.CategoryFood, categories[0].ID)

	recipients, err := repo.GetRecipients(ctx)
	require.NoError(t, err)
	require.Len(t, recipients, 7)
	assert.Equal(t, "Sarah", recipients[0].Name)
	assert.True(t, recipients[0].Online)
	assert.False(t, recipients[2].Online)

	recent, err := repo.GetRecentTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, recent, 8)
	assert.Equal(t, "txn_1", recent[0].ID)
	assert.Equal(t, "txn_8", recent[7].ID)
	assert.True(t, testNow.Add(-2*time.Hour).Equal(recent[0].Date))
	assert.Equal(t, "Food", recent[0].Category.Name)
}

func TestCalculateBalance(t *testing.T) {
	repo, _ := newSeededRepo(t)
	balance, err := repo.CalculateBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1420076), balance.Cents)
}

func TestTransactionQueries(t *testing.T) {
	repo, _ := newSeededRepo(t)
	ctx := context.Background()

	tx, found, err := repo.GetTransactionByID(ctx, "txn_5")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Salary", tx.Title)
	assert.Equal(t, core.Credit, tx.Type)
	assert.Nil(t, tx.Recipient)

	_, found, err = repo.GetTransactionByID(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, found)

	food, err := repo.GetTransactionsByCategory(ctx, memory.CategoryFood)
	require.NoError(t, err)
	assert.Len(t, food, 2)

	debits, err := repo.GetTransactionsByType(ctx, core.Debit)
	require.NoError(t, err)
	assert.Len(t, debits, 5)

	all, err := repo.GetAllTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 8)
}

func TestDerivedBalanceHistory(t *testing.T) {
	repo, _ := newSeededRepo(t)

	points, err := repo.GetBalanceHistory(context.Background(), core.OneDay)
	require.NoError(t, err)
	require.Len(t, points, core.OneDay.Points())

	last := points[len(points)-1]
	assert.True(t, testNow.Equal(last.Date))
	assert.Equal(t, int64(1355300), last.Balance.Cents)

	// A transaction dated exactly on a sample is part of that sample.
	assert.Equal(t, int64(1355300), points[len(points)-2].Balance.Cents)
	assert.Equal(t, int64(1355300+4099), points[len(points)-3].Balance.Cents)
	assert.Equal(t, int64(1355300+4099-46000), points[len(points)-4].Balance.Cents)

	_, err = repo.GetBalanceHistory(context.Background(), core.ChartPeriod("7D"))
	assert.ErrorIs(t, err, core.ErrInvalidPeriod)
}

func TestAppendTransactions(t *testing.T) {
	repo, _ := newSeededRepo(t)
	ctx := context.Background()

	rec := core.Recipient{ID: "rec_2"}
	err := repo.AppendTransactions(ctx, []core.Transaction{{
		ID:        "txn_9",
		Title:     "Transfer",
		Subtitle:  "To Michael",
		Amount:    core.Money{Cents: 2500},
		Type:      core.Debit,
		Category:  core.Category{ID: memory.CategoryBank},
		Date:      testNow,
		Recipient: &rec,
	}})
	require.NoError(t, err)

	user, err := repo.GetCurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1355300-2500), user.Balance.Cents)

	tx, found, err := repo.GetTransactionByID(ctx, "txn_9")
	require.NoError(t, err)
	require.True(t, found)
	require.NotNil(t, tx.Recipient)
	assert.Equal(t, "Michael", tx.Recipient.Name)

	err = repo.AppendTransactions(ctx, []core.Transaction{{ID: "bad", Title: "Zero", Type: core.Credit, Date: testNow}})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, found, err = repo.GetTransactionByID(ctx, "bad")
	require.NoError(t, err)
	assert.False(t, found, "a rejected batch must not be partially stored")
}

func TestReopenKeepsData(t *testing.T) {
	repo, dbPath := newSeededRepo(t)
	require.NoError(t, repo.Close())

	reopened, err := NewRepository(dbPath, log.Discard())
	require.NoError(t, err)
	defer reopened.Close()

	all, err := reopened.GetAllTransactions(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 8)
}
