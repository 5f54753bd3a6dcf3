package http

import (
	"errors"
	"fmt"
	"strings"

	"pfm/internal/core"
	"pfm/internal/home"
)

// Frame kinds sent by the server on the Home socket.
const (
	frameState  = "state"
	frameEffect = "effect"
)

// outboundFrame carries either a state or an effect.
type outboundFrame struct {
	Kind   string      `json:"kind"`
	State  *stateView  `json:"state,omitempty"`
	Effect *effectView `json:"effect,omitempty"`
}

// inboundFrame is a user intent sent by the browser.
type inboundFrame struct {
	Type   string `json:"type"`
	Period string `json:"period,omitempty"`
	ID     string `json:"id,omitempty"`
}

var errUnknownFrame = errors.New("unknown frame type")

// toEvent maps a frame to a controller event.
func (f inboundFrame) toEvent() (home.Event, error) {
	switch f.Type {
	case "period_selected":
		p, err := core.ParseChartPeriod(f.Period)
		if err != nil {
			return nil, err
		}
		return home.PeriodSelected{Period: p}, nil
	case "transaction_clicked":
		id := strings.TrimSpace(f.ID)
		if id == "" {
			return nil, errors.New("transaction_clicked without id")
		}
		return home.TransactionClicked{TransactionID: id}, nil
	case "recipient_clicked":
		id := strings.TrimSpace(f.ID)
		if id == "" {
			return nil, errors.New("recipient_clicked without id")
		}
		return home.RecipientClicked{RecipientID: id}, nil
	case "notification_clicked":
		return home.NotificationClicked{}, nil
	case "retry":
		return home.Retry{}, nil
	case "refresh":
		return home.Refresh{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownFrame, f.Type)
	}
}
