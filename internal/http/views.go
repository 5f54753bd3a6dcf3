package http

import (
	"time"

	"pfm/internal/core"
	"pfm/internal/home"
)

// JSON shapes shared by the API and the Home socket. Amounts travel as
// cents alongside a display string so clients never format money.

type userView struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email,omitempty"`
	AvatarURL        string `json:"avatarUrl,omitempty"`
	BalanceCents     int64  `json:"balanceCents"`
	BalanceFormatted string `json:"balanceFormatted"`
}

type recipientView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Online    bool   `json:"online"`
}

type categoryView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type transactionView struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Subtitle        string         `json:"subtitle"`
	AmountCents     int64          `json:"amountCents"`
	AmountFormatted string         `json:"amountFormatted"`
	Type            string         `json:"type"`
	Category        categoryView   `json:"category"`
	Date            time.Time      `json:"date"`
	DateFormatted   string         `json:"dateFormatted"`
	RelativeTime    string         `json:"relativeTime"`
	Recipient       *recipientView `json:"recipient,omitempty"`
}

type pointView struct {
	Date         time.Time `json:"date"`
	BalanceCents int64     `json:"balanceCents"`
}

type balanceView struct {
	BalanceCents     int64  `json:"balanceCents"`
	BalanceFormatted string `json:"balanceFormatted"`
}

type historyView struct {
	Period string      `json:"period"`
	Points []pointView `json:"points"`
}

// stateView flattens the ViewState union; Status names the variant.
type stateView struct {
	Status             string            `json:"status"`
	Message            string            `json:"message,omitempty"`
	User               *userView         `json:"user,omitempty"`
	Balance            *balanceView      `json:"balance,omitempty"`
	Recipients         []recipientView   `json:"recipients,omitempty"`
	RecentTransactions []transactionView `json:"recentTransactions,omitempty"`
	BalanceHistory     []pointView       `json:"balanceHistory,omitempty"`
	SelectedPeriod     string            `json:"selectedPeriod,omitempty"`
}

type effectView struct {
	Type          string `json:"type"`
	Message       string `json:"message,omitempty"`
	TransactionID string `json:"transactionId,omitempty"`
	RecipientID   string `json:"recipientId,omitempty"`
}

func toUserView(u core.User) userView {
	return userView{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		AvatarURL:        u.AvatarURL,
		BalanceCents:     u.Balance.Cents,
		BalanceFormatted: core.FormatCurrency(u.Balance),
	}
}

func toBalanceView(m core.Money) balanceView {
	return balanceView{BalanceCents: m.Cents, BalanceFormatted: core.FormatCurrency(m)}
}

func toRecipientView(r core.Recipient) recipientView {
	return recipientView{ID: r.ID, Name: r.Name, AvatarURL: r.AvatarURL, Online: r.Online}
}

func toRecipientViews(rs []core.Recipient) []recipientView {
	out := make([]recipientView, len(rs))
	for i, r := range rs {
		out[i] = toRecipientView(r)
	}
	return out
}

func toTransactionView(t core.Transaction, now time.Time) transactionView {
	v := transactionView{
		ID:              t.ID,
		Title:           t.Title,
		Subtitle:        t.Subtitle,
		AmountCents:     t.Amount.Cents,
		AmountFormatted: core.FormatTransactionAmount(t.Amount, t.Type.IsCredit()),
		Type:            string(t.Type),
		Category:        categoryView{ID: t.Category.ID, Name: t.Category.Name, Type: string(t.Category.Type)},
		Date:            t.Date,
		DateFormatted:   core.FormatDate(t.Date),
		RelativeTime:    core.FormatRelativeTime(t.Date, now),
	}
	if t.Recipient != nil {
		r := toRecipientView(*t.Recipient)
		v.Recipient = &r
	}
	return v
}

func toTransactionViews(txns []core.Transaction, now time.Time) []transactionView {
	out := make([]transactionView, len(txns))
	for i, t := range txns {
		out[i] = toTransactionView(t, now)
	}
	return out
}

func toPointViews(points []core.BalanceDataPoint) []pointView {
	out := make([]pointView, len(points))
	for i, p := range points {
		out[i] = pointView{Date: p.Date, BalanceCents: p.Balance.Cents}
	}
	return out
}

func toStateView(state home.ViewState, now time.Time) stateView {
	v := stateView{Status: home.StateName(state)}
	switch s := state.(type) {
	case home.Success:
		user := toUserView(s.User)
		balance := toBalanceView(s.Balance)
		v.User = &user
		v.Balance = &balance
		v.Recipients = toRecipientViews(s.Recipients)
		v.RecentTransactions = toTransactionViews(s.RecentTransactions, now)
		v.BalanceHistory = toPointViews(s.BalanceHistory)
		v.SelectedPeriod = s.SelectedPeriod.Label()
	case home.Error:
		v.Message = s.Message
	}
	return v
}

func toEffectView(effect home.Effect) effectView {
	v := effectView{Type: home.EffectName(effect)}
	switch e := effect.(type) {
	case home.ShowToast:
		v.Message = e.Message
	case home.ShowError:
		v.Message = e.Message
	case home.NavigateToTransaction:
		v.TransactionID = e.TransactionID
	case home.NavigateToRecipient:
		v.RecipientID = e.RecipientID
	}
	return v
}
