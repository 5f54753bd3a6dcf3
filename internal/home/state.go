package home

import "pfm/internal/core"

// ViewState is everything the home screen renders. Exactly one of Loading,
// Success or Error is published at a time.
type ViewState interface {
	isViewState()
}

// Loading is the initial state and the state while a full load is running.
type Loading struct{}

// Success is a fully loaded screen. BalanceHistory is always the series for
// SelectedPeriod, and Balance is the user's balance at load time.
type Success struct {
	User               core.User
	Balance            core.Money
	Recipients         []core.Recipient
	RecentTransactions []core.Transaction
	BalanceHistory     []core.BalanceDataPoint
	SelectedPeriod     core.ChartPeriod
}

// Error is a screen-level load failure. Recoverable with Retry or Refresh.
type Error struct {
	Message string
}

func (Loading) isViewState() {}
func (Success) isViewState() {}
func (Error) isViewState()   {}

// withPeriod returns a copy showing another period's series.
func (s Success) withPeriod(period core.ChartPeriod, history []core.BalanceDataPoint) Success {
	s.SelectedPeriod = period
	s.BalanceHistory = history
	return s
}

func (s Success) clone() Success {
	s.Recipients = append([]core.Recipient(nil), s.Recipients...)
	s.RecentTransactions = append([]core.Transaction(nil), s.RecentTransactions...)
	for i, t := range s.RecentTransactions {
		if t.Recipient != nil {
			r := *t.Recipient
			s.RecentTransactions[i].Recipient = &r
		}
	}
	s.BalanceHistory = append([]core.BalanceDataPoint(nil), s.BalanceHistory...)
	return s
}

// StateName returns a short name for logs and wire formats.
func StateName(s ViewState) string {
	switch s.(type) {
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

func snapshot(s ViewState) ViewState {
	if success, ok := s.(Success); ok {
		return success.clone()
	}
	return s
}
