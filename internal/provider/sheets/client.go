// Package sheets is a read-only provider over a Google spreadsheet with
// Profile, Categories, Recipients and Transactions tabs.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"pfm/internal/core"
	"pfm/internal/log"
	"pfm/internal/provider"
)

// Config selects the spreadsheet and how to authenticate.
type Config struct {
	SpreadsheetID      string
	ServiceAccountJSON string
	ServiceAccountFile string

	ProfileSheet      string
	CategoriesSheet   string
	RecipientsSheet   string
	TransactionsSheet string
}

func (c *Config) applyDefaults() {
	if c.ProfileSheet == "" {
		c.ProfileSheet = "Profile"
	}
	if c.CategoriesSheet == "" {
		c.CategoriesSheet = "Categories"
	}
	if c.RecipientsSheet == "" {
		c.RecipientsSheet = "Recipients"
	}
	if c.TransactionsSheet == "" {
		c.TransactionsSheet = "Transactions"
	}
}

// batchGetter reads several A1 ranges in one round trip.
type batchGetter func(ctx context.Context, ranges []string) ([][][]interface{}, error)

type Client struct {
	cfg    Config
	get    batchGetter
	logger *log.Logger
	now    func() time.Time
}

var _ provider.Provider = (*Client)(nil)

// ledger is one consistent read of every tab.
type ledger struct {
	profile      Profile
	categories   []core.Category
	recipients   []core.Recipient
	transactions []core.Transaction
}

// New creates a client authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = log.Default(log.ComponentSheets)
	}
	logger = logger.WithComponent(log.ComponentSheets)

	svc, err := newSheetsService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	spreadsheetID := cfg.SpreadsheetID
	get := func(ctx context.Context, ranges []string) ([][][]interface{}, error) {
		resp, err := svc.Spreadsheets.Values.BatchGet(spreadsheetID).Ranges(ranges...).Context(ctx).Do()
		if err != nil {
			return nil, err
		}
		out := make([][][]interface{}, len(resp.ValueRanges))
		for i, vr := range resp.ValueRanges {
			out[i] = vr.Values
		}
		return out, nil
	}
	return newClient(cfg, get, logger), nil
}

func newClient(cfg Config, get batchGetter, logger *log.Logger) *Client {
	cfg.applyDefaults()
	if logger == nil {
		logger = log.Default(log.ComponentSheets)
	}
	return &Client{cfg: cfg, get: get, logger: logger, now: time.Now}
}

// newSheetsService authenticates with inline JSON, a key file, or
// GOOGLE_APPLICATION_CREDENTIALS, in that order.
func newSheetsService(ctx context.Context, cfg Config, logger *log.Logger) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.ServiceAccountJSON)
	serviceAccountFile := strings.TrimSpace(cfg.ServiceAccountFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		logger.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		logger.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) read(ctx context.Context) (ledger, error) {
	ranges := []string{
		c.cfg.ProfileSheet + "!A:B",
		c.cfg.CategoriesSheet + "!A:C",
		c.cfg.RecipientsSheet + "!A:D",
		c.cfg.TransactionsSheet + "!A:H",
	}
	values, err := c.get(ctx, ranges)
	if err != nil {
		c.logger.WarnContext(ctx, "Spreadsheet read failed", log.FieldOperation, log.OpRead, log.FieldError, err)
		return ledger{}, fmt.Errorf("%w: read spreadsheet: %v", provider.ErrUnavailable, err)
	}
	if len(values) != len(ranges) {
		return ledger{}, fmt.Errorf("read spreadsheet: got %d ranges, want %d", len(values), len(ranges))
	}

	profile, err := parseProfile(values[0])
	if err != nil {
		return ledger{}, err
	}
	categories, err := parseCategories(values[1])
	if err != nil {
		return ledger{}, err
	}
	recipients, err := parseRecipients(values[2])
	if err != nil {
		return ledger{}, err
	}
	txns, err := parseTransactions(values[3], categories, recipients)
	if err != nil {
		return ledger{}, err
	}

	l := ledger{profile: profile, categories: categories, recipients: recipients, transactions: txns}
	if !profile.HasBalance {
		l.profile.User.Balance = core.CalculateBalance(profile.StartingBalance, txns)
	}
	return l, nil
}

func (c *Client) GetCurrentUser(ctx context.Context) (core.User, error) {
	l, err := c.read(ctx)
	if err != nil {
		return core.User{}, err
	}
	return l.profile.User, nil
}

func (c *Client) GetCategories(ctx context.Context) ([]core.Category, error) {
	l, err := c.read(ctx)
	if err != nil {
		return nil, err
	}
	return l.categories, nil
}

func (c *Client) GetRecipients(ctx context.Context) ([]core.Recipient, error) {
	l, err := c.read(ctx)
	if err != nil {
		return nil, err
	}
	return l.recipients, nil
}

func (c *Client) GetRecentTransactions(ctx context.Context) ([]core.Transaction, error) {
	l, err := c.read(ctx)
	if err != nil {
		return nil, err
	}
	return core.RecentTransactions(l.transactions, core.RecentLimit), nil
}

func (c *Client) GetAllTransactions(ctx context.Context) ([]core.Transaction, error) {
	l, err := c.read(ctx)
	if err != nil {
		return nil, err
	}
	return l.transactions, nil
}

func (c *Client) GetBalanceHistory(ctx context.Context, period core.ChartPeriod) ([]core.BalanceDataPoint, error) {
	if !period.Valid() {
		return nil, core.ErrInvalidPeriod
	}
	l, err := c.read(ctx)
	if err != nil {
		return nil, err
	}
	return core.DeriveBalanceHistory(l.profile.User.Balance, l.transactions, period, c.now()), nil
}

func (c *Client) CalculateBalance(ctx context.Context) (core.Money, error) {
	l, err := c.read(ctx)
	if err != nil {
		return core.Money{}, err
	}
	return core.CalculateBalance(l.profile.StartingBalance, l.transactions), nil
}

func (c *Client) GetTransactionByID(ctx context.Context, id string) (core.Transaction, bool, error) {
	l, err := c.read(ctx)
	if err != nil {
		return core.Transaction{}, false, err
	}
	tx, ok := core.FindTransaction(l.transactions, id)
	return tx, ok, nil
}

func (c *Client) GetTransactionsByCategory(ctx context.Context, categoryID string) ([]core.Transaction, error) {
	l, err := c.read(ctx)
	if err != nil {
		return nil, err
	}
	return core.FilterByCategory(l.transactions, categoryID), nil
}

func (c *Client) GetTransactionsByType(ctx context.Context, typ core.TransactionType) ([]core.Transaction, error) {
	l, err := c.read(ctx)
	if err != nil {
		return nil, err
	}
	return core.FilterByType(l.transactions, typ), nil
}
