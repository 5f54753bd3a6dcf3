package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// LedgerUpdatedMessage announces that the ledger behind the data provider
// changed. It carries no ledger data; consumers re-read through the provider.
type LedgerUpdatedMessage struct {
	Source    string    `json:"source"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerUpdatedMessage stamps a notification with the current time.
func NewLedgerUpdatedMessage(source string, count int) *LedgerUpdatedMessage {
	return &LedgerUpdatedMessage{
		Source:    source,
		Count:     count,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerUpdatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerUpdatedMessageFromJSON parses and validates a notification.
func LedgerUpdatedMessageFromJSON(data []byte) (*LedgerUpdatedMessage, error) {
	var msg LedgerUpdatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Source == "" {
		return nil, errors.New("ledger update without source")
	}
	if msg.Count < 0 {
		return nil, errors.New("ledger update with negative count")
	}
	return &msg, nil
}
