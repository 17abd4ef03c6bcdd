package domain

import "time"

// Event types
const (
	EventTypeTransactionCreated    = "transaction.created"
	EventTypeTransactionRolledBack = "transaction.rolled_back"
)

// AggregateTypeTransaction is the aggregate every ledger event refers to.
const AggregateTypeTransaction = "transaction"

// Event is a notification emitted after a successful ledger mutation.
type Event struct {
	ID            string    `json:"id"`
	AggregateID   int64     `json:"aggregate_id"`
	AggregateType string    `json:"aggregate_type"`
	EventType     string    `json:"event_type"`
	Payload       any       `json:"payload"`
	CreatedAt     time.Time `json:"created_at"`
}

// TransactionCreatedEvent payload
type TransactionCreatedEvent struct {
	ID       int64  `json:"id"`
	Amount   string `json:"amount"`
	Type     string `json:"type"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

// TransactionRolledBackEvent payload
type TransactionRolledBackEvent struct {
	ID            int64   `json:"id"`
	RolledBackIDs []int64 `json:"rolled_back_ids"`
}
