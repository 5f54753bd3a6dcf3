package home

import "pfm/internal/core"

// Event is a user intent raised by the presentation layer.
type Event interface {
	isEvent()
}

type (
	PeriodSelected struct {
		Period core.ChartPeriod
	}

	TransactionClicked struct {
		TransactionID string
	}

	RecipientClicked struct {
		RecipientID string
	}

	NotificationClicked struct{}

	Retry struct{}

	Refresh struct{}
)

func (PeriodSelected) isEvent()      {}
func (TransactionClicked) isEvent()  {}
func (RecipientClicked) isEvent()    {}
func (NotificationClicked) isEvent() {}
func (Retry) isEvent()               {}
func (Refresh) isEvent()             {}

// EventName returns a short name for logs and wire formats.
func EventName(e Event) string {
	switch e.(type) {
	case PeriodSelected:
		return "period_selected"
	case TransactionClicked:
		return "transaction_clicked"
	case RecipientClicked:
		return "recipient_clicked"
	case NotificationClicked:
		return "notification_clicked"
	case Retry:
		return "retry"
	case Refresh:
		return "refresh"
	default:
		return "unknown"
	}
}
