package core

import (
	"testing"
	"time"
)

func ledgerFixture(now time.Time) []Transaction {
	food := Category{ID: "cat_food", Name: "Food", Type: Debit}
	bank := Category{ID: "cat_bank", Name: "Bank", Type: Credit}
	salary := Category{ID: "cat_salary", Name: "Salary", Type: Credit}
	shopping := Category{ID: "cat_shopping", Name: "Shopping", Type: Debit}
	return []Transaction{
		{ID: "t1", Title: "Food", Amount: Money{Cents: 4099}, Type: Debit, Category: food, Date: now.Add(-2 * time.Hour)},
		{ID: "t2", Title: "AI-Bank", Amount: Money{Cents: 46000}, Type: Credit, Category: bank, Date: now.Add(-5 * time.Hour)},
		{ID: "t3", Title: "Shopping", Amount: Money{Cents: 12550}, Type: Debit, Category: shopping, Date: now.Add(-24 * time.Hour)},
		{ID: "t4", Title: "Transport", Amount: Money{Cents: 1500}, Type: Debit, Category: Category{ID: "cat_transport"}, Date: now.Add(-27 * time.Hour)},
		{ID: "t5", Title: "Salary", Amount: Money{Cents: 350000}, Type: Credit, Category: salary, Date: now.Add(-72 * time.Hour)},
		{ID: "t6", Title: "Entertainment", Amount: Money{Cents: 4500}, Type: Debit, Category: Category{ID: "cat_entertainment"}, Date: now.Add(-96 * time.Hour)},
		{ID: "t7", Title: "Food", Amount: Money{Cents: 3275}, Type: Debit, Category: food, Date: now.Add(-120 * time.Hour)},
		{ID: "t8", Title: "Investment", Amount: Money{Cents: 50000}, Type: Credit, Category: Category{ID: "cat_investment"}, Date: now.Add(-168 * time.Hour)},
	}
}

func TestCalculateBalance(t *testing.T) {
	txns := ledgerFixture(time.Now())
	// 10000.00 + 4460.00 - 259.24
	got := CalculateBalance(FromDollars(10000), txns)
	if got.Cents != 1420076 {
		t.Fatalf("expected 1420076 cents, got %d", got.Cents)
	}
}

func TestRecentTransactions(t *testing.T) {
	now := time.Now()
	txns := ledgerFixture(now)
	// Shuffle input order to make sure sorting happens
	in := []Transaction{txns[4], txns[0], txns[7], txns[2], txns[1], txns[3], txns[6], txns[5]}

	got := RecentTransactions(in, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3, got %d", len(got))
	}
	want := []string{"t1", "t2", "t3"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
	if in[0].ID != "t5" {
		t.Fatalf("input slice was reordered")
	}

	all := RecentTransactions(in, RecentLimit)
	if len(all) != len(in) {
		t.Fatalf("expected all %d, got %d", len(in), len(all))
	}
}

func TestFilters(t *testing.T) {
	txns := ledgerFixture(time.Now())

	food := FilterByCategory(txns, "cat_food")
	if len(food) != 2 {
		t.Fatalf("expected 2 food transactions, got %d", len(food))
	}
	credits := FilterByType(txns, Credit)
	if len(credits) != 3 {
		t.Fatalf("expected 3 credits, got %d", len(credits))
	}
	debits := FilterByType(txns, Debit)
	if len(debits) != 5 {
		t.Fatalf("expected 5 debits, got %d", len(debits))
	}
	if none := FilterByCategory(txns, "cat_unknown"); len(none) != 0 {
		t.Fatalf("expected no matches, got %d", len(none))
	}
}

func TestFindTransaction(t *testing.T) {
	txns := ledgerFixture(time.Now())
	if tx, ok := FindTransaction(txns, "t5"); !ok || tx.Title != "Salary" {
		t.Fatalf("expected salary, got %+v ok=%v", tx, ok)
	}
	if _, ok := FindTransaction(txns, "missing"); ok {
		t.Fatalf("expected miss")
	}
}

func TestDeriveBalanceHistory(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	txns := []Transaction{
		{ID: "a", Amount: Money{Cents: 10000}, Type: Credit, Date: now.Add(-1 * time.Hour)},
		{ID: "b", Amount: Money{Cents: 5000}, Type: Debit, Date: now.Add(-30 * time.Hour)},
	}
	points := DeriveBalanceHistory(Money{Cents: 100000}, txns, OneDay, now)
	if len(points) != OneDay.Points() {
		t.Fatalf("expected %d points, got %d", OneDay.Points(), len(points))
	}
	last := points[len(points)-1]
	if !last.Date.Equal(now) || last.Balance.Cents != 100000 {
		t.Fatalf("last point = %+v", last)
	}
	for i := 0; i < len(points)-1; i++ {
		if points[i].Balance.Cents != 90000 {
			t.Fatalf("point %d balance = %d, want 90000", i, points[i].Balance.Cents)
		}
		if !points[i].Date.Before(points[i+1].Date) {
			t.Fatalf("points not ascending at %d", i)
		}
	}

	month := DeriveBalanceHistory(Money{Cents: 100000}, txns, OneMonth, now)
	// Both transactions fall inside the first two days of the window.
	if month[0].Balance.Cents != 95000 {
		t.Fatalf("oldest month point = %d, want 95000", month[0].Balance.Cents)
	}
}
