package core

import (
	"sort"
	"strings"
	"time"
)

// RecentLimit bounds the home screen's transaction history.
const RecentLimit = 10

// RecentTransactions returns at most n transactions, newest first.
// The input slice is not modified.
func RecentTransactions(txns []Transaction, n int) []Transaction {
	out := append([]Transaction(nil), txns...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// CalculateBalance returns starting + sum(credits) - sum(debits).
func CalculateBalance(starting Money, txns []Transaction) Money {
	balance := starting
	for _, t := range txns {
		balance = balance.Add(t.SignedAmount())
	}
	return balance
}

// FilterByCategory returns the transactions whose category ID matches.
func FilterByCategory(txns []Transaction, categoryID string) []Transaction {
	categoryID = strings.TrimSpace(categoryID)
	out := make([]Transaction, 0, len(txns))
	for _, t := range txns {
		if t.Category.ID == categoryID {
			out = append(out, t)
		}
	}
	return out
}

// FilterByType returns the transactions of the given direction.
func FilterByType(txns []Transaction, typ TransactionType) []Transaction {
	out := make([]Transaction, 0, len(txns))
	for _, t := range txns {
		if t.Type == typ {
			out = append(out, t)
		}
	}
	return out
}

// FindTransaction looks a transaction up by ID. A miss is not an error.
func FindTransaction(txns []Transaction, id string) (Transaction, bool) {
	for _, t := range txns {
		if t.ID == id {
			return t, true
		}
	}
	return Transaction{}, false
}

// DeriveBalanceHistory rebuilds the balance series for a period from the
// ledger: the last point is `current` at `now`, and each earlier point
// removes the transactions dated after it. Points are ascending by time.
func DeriveBalanceHistory(current Money, txns []Transaction, period ChartPeriod, now time.Time) []BalanceDataPoint {
	n := period.Points()
	if n == 0 {
		return nil
	}
	sorted := RecentTransactions(txns, -1)
	points := make([]BalanceDataPoint, n)
	balance := current
	next := 0
	for i := n - 1; i >= 0; i-- {
		at := now.Add(-time.Duration(n-1-i) * period.Interval())
		for next < len(sorted) && sorted[next].Date.After(at) {
			balance = balance.Sub(sorted[next].SignedAmount())
			next++
		}
		points[i] = BalanceDataPoint{Date: at, Balance: balance}
	}
	return points
}
