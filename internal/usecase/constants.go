package usecase

import "time"

const (
	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// EventPublishTimeout bounds how long a mutation waits on event delivery
	EventPublishTimeout = 2 * time.Second
)
