package sheets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pfm/internal/core"
	"pfm/internal/log"
	"pfm/internal/provider"
)

func fixture() [][][]interface{} {
	return [][][]interface{}{
		{
			{"id", "user_1"},
			{"name", "John"},
			{"starting_balance", "100.00"},
		},
		{
			{"ID", "Name", "Type"},
			{"cat_food", "Food", "DEBIT"},
			{"cat_salary", "Salary", "CREDIT"},
		},
		{
			{"ID", "Name", "Online"},
			{"rec_1", "Sarah", "yes"},
		},
		{
			{"ID", "Title", "Amount", "Type", "Category", "Date", "Recipient"},
			{"txn_1", "Lunch", "10.00", "DEBIT", "cat_food", "2025-06-01 11:00", "rec_1"},
			{"txn_2", "Salary", "50.00", "CREDIT", "cat_salary", "2025-05-31"},
		},
	}
}

func newTestClient(get batchGetter) *Client {
	c := newClient(Config{SpreadsheetID: "sheet"}, get, log.Discard())
	c.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestClientReadsAllTabs(t *testing.T) {
	var gotRanges []string
	c := newTestClient(func(_ context.Context, ranges []string) ([][][]interface{}, error) {
		gotRanges = ranges
		return fixture(), nil
	})
	ctx := context.Background()

	user, err := c.GetCurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Profile!A:B", "Categories!A:C", "Recipients!A:D", "Transactions!A:H"}, gotRanges)
	assert.Equal(t, int64(14000), user.Balance.Cents, "balance falls back to the ledger sum")

	recent, err := c.GetRecentTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "txn_1", recent[0].ID)
	require.NotNil(t, recent[0].Recipient)

	balance, err := c.CalculateBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(14000), balance.Cents)

	_, found, err := c.GetTransactionByID(ctx, "txn_404")
	require.NoError(t, err)
	assert.False(t, found)

	credits, err := c.GetTransactionsByType(ctx, core.Credit)
	require.NoError(t, err)
	assert.Len(t, credits, 1)

	history, err := c.GetBalanceHistory(ctx, core.OneDay)
	require.NoError(t, err)
	require.Len(t, history, core.OneDay.Points())
	assert.Equal(t, int64(14000), history[len(history)-1].Balance.Cents)
	assert.Equal(t, int64(15000), history[len(history)-2].Balance.Cents)
}

func TestClientReadFailureIsUnavailable(t *testing.T) {
	c := newTestClient(func(context.Context, []string) ([][][]interface{}, error) {
		return nil, errors.New("quota exceeded")
	})

	_, err := c.GetRecipients(context.Background())
	assert.ErrorIs(t, err, provider.ErrUnavailable)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{}, log.Discard())
	assert.Error(t, err)
}
