package amqp

import (
	"encoding/json"
	"time"
)

// Entities and actions carried by ledger change events.
const (
	EntityTransaction = "transaction"
	EntityCategory    = "category"
	EntitySnapshot    = "budget_snapshot"

	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
	ActionImported = "imported"
)

// LedgerEventMessage announces a mutation of the ledger or the snapshot
// store. Consumers fetch the current record themselves; the message only
// carries the key.
type LedgerEventMessage struct {
	Entity    string    `json:"entity"`
	Action    string    `json:"action"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(entity, action string, id int64) *LedgerEventMessage {
	return &LedgerEventMessage{
		Entity:    entity,
		Action:    action,
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
