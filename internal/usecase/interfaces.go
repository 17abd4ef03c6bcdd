package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/txledger/internal/domain"
)

// TransactionStore defines access to the transaction tree.
type TransactionStore interface {
	Create(ctx context.Context, id int64, amount decimal.Decimal, txType string, parentID *int64) (*domain.Transaction, error)
	Get(ctx context.Context, id int64) (*domain.Transaction, bool)
	Snapshot(ctx context.Context, id int64) (*domain.TransactionView, bool)
	Rollback(ctx context.Context, id int64) (*domain.RollbackResult, error)
	Sum(ctx context.Context, id int64) (decimal.Decimal, error)
	IDsByType(ctx context.Context, txType string) []int64
}

// LedgerRepository defines ledger-wide read operations.
type LedgerRepository interface {
	CheckConsistency(ctx context.Context) *domain.ConsistencyReport
	Stats(ctx context.Context) *domain.LedgerStats
}

// EventPublisher delivers domain events to interested parties.
type EventPublisher interface {
	Publish(ctx context.Context, event *domain.Event) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claimed key so the request can be retried.
	Release(ctx context.Context, key string) error
}
