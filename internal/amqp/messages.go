package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Expense event actions carried on the bus.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ExpenseEventMessage describes one expense mutation for the audit worker.
// The event id makes redelivered messages safe to record twice.
type ExpenseEventMessage struct {
	EventID     string    `json:"event_id"`
	ExpenseID   int64     `json:"expense_id"`
	UserID      int64     `json:"user_id"`
	Action      string    `json:"action"`
	AmountCents int64     `json:"amount_cents"`
	Category    string    `json:"category"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewExpenseEventMessage creates an event with a fresh id and timestamp.
func NewExpenseEventMessage(action string, expenseID, userID, amountCents int64, category string) *ExpenseEventMessage {
	return &ExpenseEventMessage{
		EventID:     uuid.NewString(),
		ExpenseID:   expenseID,
		UserID:      userID,
		Action:      action,
		AmountCents: amountCents,
		Category:    category,
		OccurredAt:  time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventMessageFromJSON creates a message from JSON bytes
func ExpenseEventMessageFromJSON(data []byte) (*ExpenseEventMessage, error) {
	var msg ExpenseEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
