// Package provider declares the read ports the home dashboard depends on.
// Backends (memory, sqlite, sheets) implement them; consumers ask only for
// the narrow interface they need.
package provider

import (
	"context"
	"errors"

	"pfm/internal/core"
)

// ErrUnavailable is returned by backends that cannot serve a read right now.
var ErrUnavailable = errors.New("data provider unavailable")

// Ports for data sources.
type (
	UserReader interface {
		GetCurrentUser(ctx context.Context) (core.User, error)
	}

	RecipientLister interface {
		GetRecipients(ctx context.Context) ([]core.Recipient, error)
	}

	CategoryLister interface {
		GetCategories(ctx context.Context) ([]core.Category, error)
	}

	// RecentTransactionLister returns the newest transactions, bounded to
	// core.RecentLimit, descending by date.
	RecentTransactionLister interface {
		GetRecentTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	// TransactionFinder serves lookups over the whole ledger. An unknown ID
	// yields found == false and a nil error.
	TransactionFinder interface {
		GetAllTransactions(ctx context.Context) ([]core.Transaction, error)
		GetTransactionByID(ctx context.Context, id string) (tx core.Transaction, found bool, err error)
		GetTransactionsByCategory(ctx context.Context, categoryID string) ([]core.Transaction, error)
		GetTransactionsByType(ctx context.Context, typ core.TransactionType) ([]core.Transaction, error)
	}

	// HistoryReader returns the balance series for a period, ascending by date.
	HistoryReader interface {
		GetBalanceHistory(ctx context.Context, period core.ChartPeriod) ([]core.BalanceDataPoint, error)
	}

	BalanceCalculator interface {
		CalculateBalance(ctx context.Context) (core.Money, error)
	}

	// HomeProvider is everything the home screen controller reads.
	HomeProvider interface {
		UserReader
		RecipientLister
		RecentTransactionLister
		HistoryReader
	}

	// Provider is the full data source contract.
	Provider interface {
		HomeProvider
		CategoryLister
		TransactionFinder
		BalanceCalculator
	}
)
