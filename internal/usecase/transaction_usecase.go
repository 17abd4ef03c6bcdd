package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/txledger/internal/domain"
	"github.com/iho/txledger/internal/infrastructure/metrics"
)

// TransactionUseCase handles transaction business logic.
type TransactionUseCase struct {
	store     TransactionStore
	publisher EventPublisher
	idGen     IDGenerator
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewTransactionUseCase creates a new TransactionUseCase. publisher and
// metrics may be nil.
func NewTransactionUseCase(
	store TransactionStore,
	publisher EventPublisher,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *TransactionUseCase {
	return &TransactionUseCase{
		store:     store,
		publisher: publisher,
		idGen:     idGen,
		metrics:   metrics,
		logger:    logger.With().Str("component", "transaction_usecase").Logger(),
	}
}

// CreateTransactionInput represents input for creating a transaction.
type CreateTransactionInput struct {
	ID       int64
	Amount   decimal.Decimal
	Type     string
	ParentID *int64
}

// CreateTransaction registers a transaction and returns its tree view.
func (uc *TransactionUseCase) CreateTransaction(ctx context.Context, input CreateTransactionInput) (*domain.TransactionView, error) {
	start := time.Now()

	tx, err := uc.store.Create(ctx, input.ID, input.Amount, input.Type, input.ParentID)
	uc.observe("create", start, err)
	if err != nil {
		uc.logger.Debug().Err(err).Int64("id", input.ID).Msg("create rejected")
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsCreated.Inc()
		uc.metrics.LedgerTransactions.WithLabelValues("active").Inc()
	}

	uc.logger.Info().
		Int64("id", tx.ID()).
		Str("amount", tx.Amount().String()).
		Str("type", tx.Type()).
		Msg("transaction created")

	payload := domain.TransactionCreatedEvent{
		ID:       tx.ID(),
		Amount:   tx.Amount().StringFixed(domain.MaxAmountScale),
		Type:     tx.Type(),
		ParentID: input.ParentID,
	}
	uc.publish(ctx, domain.EventTypeTransactionCreated, tx.ID(), payload)

	return tx.CreatedView(), nil
}

// GetTransaction returns the transaction and its descendants.
func (uc *TransactionUseCase) GetTransaction(ctx context.Context, id int64) (*domain.TransactionView, error) {
	view, ok := uc.store.Snapshot(ctx, id)
	if !ok {
		return nil, fmt.Errorf("%w: id %d", domain.ErrNotFound, id)
	}
	return view, nil
}

// RollbackTransaction rolls back the transaction and all of its active
// descendants, returning the resulting tree.
func (uc *TransactionUseCase) RollbackTransaction(ctx context.Context, id int64) (*domain.TransactionView, error) {
	start := time.Now()

	res, err := uc.store.Rollback(ctx, id)
	uc.observe("rollback", start, err)
	if err != nil {
		uc.logger.Debug().Err(err).Int64("id", id).Msg("rollback rejected")
		return nil, err
	}

	n := len(res.RolledBackIDs)
	if uc.metrics != nil {
		uc.metrics.Rollbacks.Inc()
		uc.metrics.TransactionsRolledBack.Add(float64(n))
		uc.metrics.CascadeSize.Observe(float64(n))
		uc.metrics.LedgerTransactions.WithLabelValues("active").Sub(float64(n))
		uc.metrics.LedgerTransactions.WithLabelValues("inactive").Add(float64(n))
	}

	uc.logger.Info().
		Int64("id", id).
		Int("cascade_size", n).
		Msg("transaction rolled back")

	payload := domain.TransactionRolledBackEvent{
		ID:            id,
		RolledBackIDs: res.RolledBackIDs,
	}
	uc.publish(ctx, domain.EventTypeTransactionRolledBack, id, payload)

	return res.View, nil
}

// GetSum returns the aggregated amount of the transaction's active subtree.
func (uc *TransactionUseCase) GetSum(ctx context.Context, id int64) (decimal.Decimal, error) {
	start := time.Now()

	sum, err := uc.store.Sum(ctx, id)
	uc.observe("sum", start, err)
	return sum, err
}

// ListIDsByType lists transaction ids of the given type in creation order.
func (uc *TransactionUseCase) ListIDsByType(ctx context.Context, txType string) []int64 {
	return uc.store.IDsByType(ctx, txType)
}

func (uc *TransactionUseCase) observe(operation string, start time.Time, err error) {
	if uc.metrics == nil {
		return
	}

	uc.metrics.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		uc.metrics.OperationErrors.WithLabelValues(operation, ErrorType(err)).Inc()
	}
}

// publish never fails the calling operation; delivery problems are logged.
func (uc *TransactionUseCase) publish(ctx context.Context, eventType string, aggregateID int64, payload any) {
	if uc.publisher == nil {
		return
	}

	event := &domain.Event{
		ID:            uc.idGen.Generate(),
		AggregateID:   aggregateID,
		AggregateType: domain.AggregateTypeTransaction,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), EventPublishTimeout)
	defer cancel()

	if err := uc.publisher.Publish(pubCtx, event); err != nil {
		uc.logger.Warn().
			Err(err).
			Str("event_id", event.ID).
			Str("event_type", eventType).
			Int64("aggregate_id", aggregateID).
			Msg("failed to publish event")
	}
}

// ErrorType returns a low-cardinality label for err.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidID):
		return "invalid_id"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrInvalidAmountPrecision):
		return "invalid_amount_precision"
	case errors.Is(err, domain.ErrInvalidType):
		return "invalid_type"
	case errors.Is(err, domain.ErrAlreadyCreated):
		return "already_created"
	case errors.Is(err, domain.ErrParentNotFound):
		return "parent_not_found"
	case errors.Is(err, domain.ErrParentInactive):
		return "parent_inactive"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrAlreadyInactive):
		return "already_inactive"
	default:
		return "internal"
	}
}
