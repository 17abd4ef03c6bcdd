package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/iho/txledger/internal/domain"
)

var (
	// ErrInconsistentLedger is returned when the transaction tree breaks an invariant.
	ErrInconsistentLedger = errors.New("ledger is inconsistent")
)

// LedgerUseCase handles ledger-wide operations.
type LedgerUseCase struct {
	ledgerRepo LedgerRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository) *LedgerUseCase {
	return &LedgerUseCase{
		ledgerRepo: ledgerRepo,
	}
}

// CheckConsistency audits the transaction tree. The report is returned even
// when the ledger is inconsistent.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (*domain.ConsistencyReport, error) {
	report := uc.ledgerRepo.CheckConsistency(ctx)
	if !report.Consistent() {
		return report, fmt.Errorf("%w: %d violations", ErrInconsistentLedger, len(report.Violations))
	}

	return report, nil
}

// Stats returns ledger totals.
func (uc *LedgerUseCase) Stats(ctx context.Context) *domain.LedgerStats {
	return uc.ledgerRepo.Stats(ctx)
}
