package amqp

import (
	"encoding/json"
	"time"
)

// LedgerChangedMessage announces that a storage slot was rewritten. It carries
// no ledger data; consumers re-read the slot from primary storage.
type LedgerChangedMessage struct {
	Slot      string    `json:"slot"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerChangedMessage creates a message stamped with the current time
func NewLedgerChangedMessage(slot string, count int) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		Slot:      slot,
		Count:     count,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON creates a message from JSON bytes
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
