package memory

import (
	"time"

	"pfm/internal/core"
)

// Dataset is a complete, self-consistent ledger snapshot.
type Dataset struct {
	User            core.User
	StartingBalance core.Money
	Categories      []core.Category
	Recipients      []core.Recipient
	Transactions    []core.Transaction
}

// Clone returns a deep-enough copy: slices are copied so callers can't
// mutate the store through them.
func (d Dataset) Clone() Dataset {
	out := d
	out.Categories = append([]core.Category(nil), d.Categories...)
	out.Recipients = append([]core.Recipient(nil), d.Recipients...)
	out.Transactions = append([]core.Transaction(nil), d.Transactions...)
	return out
}

// Category IDs of the reference data set.
const (
	CategoryFood          = "cat_food"
	CategoryTransport     = "cat_transport"
	CategoryShopping      = "cat_shopping"
	CategoryEntertainment = "cat_entertainment"
	CategorySalary        = "cat_salary"
	CategoryBank          = "cat_bank"
	CategoryInvestment    = "cat_investment"
)

// Reference returns the demo data set with transaction dates relative to now.
func Reference(now time.Time) Dataset {
	categories := []core.Category{
		{ID: CategoryFood, Name: "Food", Type: core.Debit},
		{ID: CategoryTransport, Name: "Transport", Type: core.Debit},
		{ID: CategoryShopping, Name: "Shopping", Type: core.Debit},
		{ID: CategoryEntertainment, Name: "Entertainment", Type: core.Debit},
		{ID: CategorySalary, Name: "Salary", Type: core.Credit},
		{ID: CategoryBank, Name: "Bank", Type: core.Credit},
		{ID: CategoryInvestment, Name: "Investment", Type: core.Credit},
	}
	cat := func(id string) core.Category {
		for _, c := range categories {
			if c.ID == id {
				return c
			}
		}
		return core.Category{ID: id}
	}

	recipients := []core.Recipient{
		{ID: "rec_1", Name: "Sarah", AvatarURL: "https://i.pravatar.cc/150?img=1", Online: true},
		{ID: "rec_2", Name: "Michael", AvatarURL: "https://i.pravatar.cc/150?img=2", Online: true},
		{ID: "rec_3", Name: "Emma", AvatarURL: "https://i.pravatar.cc/150?img=3"},
		{ID: "rec_4", Name: "James", AvatarURL: "https://i.pravatar.cc/150?img=4"},
		{ID: "rec_5", Name: "Olivia", AvatarURL: "https://i.pravatar.cc/150?img=5", Online: true},
		{ID: "rec_6", Name: "Olivia", AvatarURL: "https://i.pravatar.cc/150?img=5", Online: true},
		{ID: "rec_7", Name: "Olivia", AvatarURL: "https://i.pravatar.cc/150?img=5", Online: true},
	}

	txn := func(id, title, subtitle string, cents int64, typ core.TransactionType, category string, ago time.Duration) core.Transaction {
		return core.Transaction{
			ID:       id,
			Title:    title,
			Subtitle: subtitle,
			Amount:   core.Money{Cents: cents},
			Type:     typ,
			Category: cat(category),
			Date:     now.Add(-ago),
		}
	}
	day := 24 * time.Hour

	return Dataset{
		User: core.User{
			ID:        "user_1",
			Name:      "John",
			Email:     "john@example.com",
			AvatarURL: "https://i.pravatar.cc/150?img=10",
			Balance:   core.Money{Cents: 1355300},
		},
		StartingBalance: core.FromDollars(10000),
		Categories:      categories,
		Recipients:      recipients,
		Transactions: []core.Transaction{
			txn("txn_1", "Food", "Payment", 4099, core.Debit, CategoryFood, 2*time.Hour),
			txn("txn_2", "AI-Bank", "Deposit", 46000, core.Credit, CategoryBank, 5*time.Hour),
			txn("txn_3", "Shopping", "Payment", 12550, core.Debit, CategoryShopping, day),
			txn("txn_4", "Transport", "Payment", 1500, core.Debit, CategoryTransport, day+3*time.Hour),
			txn("txn_5", "Salary", "Deposit", 350000, core.Credit, CategorySalary, 3*day),
			txn("txn_6", "Entertainment", "Payment", 4500, core.Debit, CategoryEntertainment, 4*day),
			txn("txn_7", "Food", "Payment", 3275, core.Debit, CategoryFood, 5*day),
			txn("txn_8", "Investment", "Deposit", 50000, core.Credit, CategoryInvestment, 7*day),
		},
	}
}
