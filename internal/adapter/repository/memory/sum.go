package memory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/txledger/internal/domain"
)

// Sum returns the amount of the transaction plus the sums of its children.
// Rolled back subtrees contribute zero.
func (s *TransactionStore) Sum(ctx context.Context, id int64) (decimal.Decimal, error) {
	s.guard.Lock()
	defer s.guard.Unlock()

	tx, ok := s.transactions[id]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: id %d", domain.ErrNotFound, id)
	}

	return s.sum(tx), nil
}

// sum skips the children of an inactive node: a rolled back node never has
// active descendants.
func (s *TransactionStore) sum(tx *domain.Transaction) decimal.Decimal {
	if !tx.IsActive() {
		return decimal.Zero
	}

	total := tx.Amount()
	for _, childID := range tx.Children() {
		if child, ok := s.transactions[childID]; ok {
			total = total.Add(s.sum(child))
		}
	}
	return total
}
