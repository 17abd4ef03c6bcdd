package memory

import (
	"context"
	"fmt"

	"github.com/iho/txledger/internal/domain"
)

// Rollback deactivates the transaction and every active descendant. The
// whole subtree flips or nothing does.
func (s *TransactionStore) Rollback(ctx context.Context, id int64) (*domain.RollbackResult, error) {
	s.guard.Lock()
	defer s.guard.Unlock()

	tx, ok := s.transactions[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", domain.ErrNotFound, id)
	}
	if !tx.IsActive() {
		return nil, fmt.Errorf("%w: id %d", domain.ErrAlreadyInactive, id)
	}

	ids, err := s.cascade(tx)
	if err != nil {
		return nil, err
	}

	return &domain.RollbackResult{
		Transaction:   tx,
		RolledBackIDs: ids,
		View:          s.view(tx),
	}, nil
}

// cascade deactivates tx after its active children (post-order) and returns
// the ids it deactivated. On error everything it deactivated has already been
// restored, so callers only undo their own work.
func (s *TransactionStore) cascade(tx *domain.Transaction) ([]int64, error) {
	var done []int64

	for _, childID := range tx.Children() {
		child, ok := s.transactions[childID]
		if !ok {
			s.compensate(done)
			return nil, fmt.Errorf("%w: child %d of %d", domain.ErrNotFound, childID, tx.ID())
		}
		if !child.IsActive() {
			continue
		}

		ids, err := s.cascade(child)
		if err != nil {
			s.compensate(done)
			return nil, err
		}
		done = append(done, ids...)
	}

	if err := s.deactivate(tx); err != nil {
		s.compensate(done)
		return nil, err
	}

	return append(done, tx.ID()), nil
}

// compensate reactivates ids in reverse order. A record that cannot be
// restored means the tree is no longer trustworthy.
func (s *TransactionStore) compensate(ids []int64) {
	for i := len(ids) - 1; i >= 0; i-- {
		tx, ok := s.transactions[ids[i]]
		if !ok || !tx.Reactivate() {
			panic(fmt.Sprintf("memory: cannot restore transaction %d during rollback compensation", ids[i]))
		}
	}
}
