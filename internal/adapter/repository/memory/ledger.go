package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/iho/txledger/internal/domain"
)

// CheckConsistency walks the whole ledger and reports every broken tree
// invariant: dangling or duplicated child links, parent links that disagree
// with children lists, active records under inactive parents, and type index
// entries that are missing or repeated.
func (s *TransactionStore) CheckConsistency(ctx context.Context) *domain.ConsistencyReport {
	s.guard.Lock()
	defer s.guard.Unlock()

	report := &domain.ConsistencyReport{Checked: len(s.transactions)}
	violate := func(format string, args ...any) {
		report.Violations = append(report.Violations, fmt.Sprintf(format, args...))
	}

	ids := s.sortedIDs()
	linkedFrom := make(map[int64]int64, len(ids))

	for _, id := range ids {
		tx := s.transactions[id]
		for _, childID := range tx.Children() {
			child, ok := s.transactions[childID]
			if !ok {
				violate("transaction %d lists missing child %d", id, childID)
				continue
			}
			if prev, seen := linkedFrom[childID]; seen {
				violate("transaction %d is a child of both %d and %d", childID, prev, id)
				continue
			}
			linkedFrom[childID] = id

			if pid, ok := child.ParentID(); !ok || pid != id {
				violate("transaction %d is listed under %d but has parent %d", childID, id, pid)
			}
			if !tx.IsActive() && child.IsActive() {
				violate("transaction %d is active under rolled back parent %d", childID, id)
			}
		}
	}

	for _, id := range ids {
		pid, ok := s.transactions[id].ParentID()
		if !ok {
			continue
		}
		if from, linked := linkedFrom[id]; !linked || from != pid {
			violate("transaction %d is missing from the children of parent %d", id, pid)
		}
	}

	indexed := make(map[int64]int, len(ids))
	for txType, typeIDs := range s.byType {
		for _, id := range typeIDs {
			indexed[id]++
			tx, ok := s.transactions[id]
			if !ok {
				violate("type %q indexes missing transaction %d", txType, id)
				continue
			}
			if tx.Type() != txType {
				violate("transaction %d of type %q is indexed under %q", id, tx.Type(), txType)
			}
		}
	}
	for _, id := range ids {
		if n := indexed[id]; n != 1 {
			violate("transaction %d appears %d times in the type index", id, n)
		}
	}

	return report
}

// Stats summarizes the ledger. ActiveSum adds up the sums of every root.
func (s *TransactionStore) Stats(ctx context.Context) *domain.LedgerStats {
	s.guard.Lock()
	defer s.guard.Unlock()

	stats := &domain.LedgerStats{
		Total:     len(s.transactions),
		Types:     len(s.byType),
		ActiveSum: decimal.Zero,
	}

	for _, id := range s.sortedIDs() {
		tx := s.transactions[id]
		if tx.IsActive() {
			stats.Active++
		} else {
			stats.Inactive++
		}
		if _, ok := tx.ParentID(); !ok {
			stats.Roots++
			stats.ActiveSum = stats.ActiveSum.Add(s.sum(tx))
		}
	}

	return stats
}

func (s *TransactionStore) sortedIDs() []int64 {
	ids := make([]int64, 0, len(s.transactions))
	for id := range s.transactions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
