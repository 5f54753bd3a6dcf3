package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Credit TransactionType = "CREDIT"
	Debit  TransactionType = "DEBIT"
)

type (
	// TransactionType tells whether money came in (CREDIT) or went out (DEBIT).
	TransactionType string

	Money struct {
		Cents int64
	}

	Category struct {
		ID   string
		Name string
		Type TransactionType // Typical direction for transactions in this category
	}

	User struct {
		ID        string
		Name      string
		Email     string // Optional
		AvatarURL string // Optional
		Balance   Money
	}

	Recipient struct {
		ID        string
		Name      string
		AvatarURL string // Optional
		Online    bool
	}

	Transaction struct {
		ID        string
		Title     string
		Subtitle  string
		Amount    Money // Always positive; Type carries the direction
		Type      TransactionType
		Category  Category
		Date      time.Time
		Recipient *Recipient // Optional, set for transfers
	}

	// BalanceDataPoint is one sample of the balance time series.
	BalanceDataPoint struct {
		Date    time.Time
		Balance Money
	}
)

var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrEmptyID                = errors.New("empty id")
	ErrEmptyTitle             = errors.New("empty title")
)

// ParseTransactionType accepts CREDIT or DEBIT in any case.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToUpper(strings.TrimSpace(s))) {
	case Credit:
		return Credit, nil
	case Debit:
		return Debit, nil
	default:
		return "", ErrInvalidTransactionType
	}
}

// IsCredit reports whether the type adds to the balance.
func (t TransactionType) IsCredit() bool {
	return t == Credit
}

// Signed returns the amount with the direction applied:
// positive for credits, negative for debits.
func (t TransactionType) Signed(m Money) Money {
	if t == Debit {
		return m.Neg()
	}
	return m
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// SignedAmount returns the transaction amount with its direction applied.
func (t Transaction) SignedAmount() Money {
	return t.Type.Signed(t.Amount)
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if len(t.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if _, err := ParseTransactionType(string(t.Type)); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// HasEmail reports whether the optional email is set.
func (u User) HasEmail() bool {
	return strings.TrimSpace(u.Email) != ""
}
