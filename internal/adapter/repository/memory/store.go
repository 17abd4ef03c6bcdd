// Package memory holds the process-local transaction ledger: the id and type
// registry, the cascading rollback and the sum aggregation.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/iho/txledger/internal/domain"
)

// TransactionStore implements usecase.TransactionStore and
// usecase.LedgerRepository in memory.
//
// Locking: guard serializes Create, Rollback, Sum and every view that walks
// more than one record. index protects the maps for Get and IDsByType, which
// never wait on guard. The maps are written only while holding both locks, so
// holding either one is enough to read them.
type TransactionStore struct {
	guard sync.Mutex

	index        sync.RWMutex
	transactions map[int64]*domain.Transaction
	byType       map[string][]int64

	// deactivate is replaced in tests to force a failure mid-cascade.
	deactivate func(*domain.Transaction) error
}

// NewTransactionStore creates an empty store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		transactions: make(map[int64]*domain.Transaction),
		byType:       make(map[string][]int64),
		deactivate:   (*domain.Transaction).Deactivate,
	}
}

// Create registers a new transaction. Either every structure (id map, parent
// children, type index) sees the new id or none does.
func (s *TransactionStore) Create(
	ctx context.Context,
	id int64,
	amount decimal.Decimal,
	txType string,
	parentID *int64,
) (*domain.Transaction, error) {
	s.guard.Lock()
	defer s.guard.Unlock()

	if _, ok := s.transactions[id]; ok {
		return nil, fmt.Errorf("%w: id %d", domain.ErrAlreadyCreated, id)
	}

	var parent *domain.Transaction
	if parentID != nil {
		p, ok := s.transactions[*parentID]
		if !ok {
			return nil, fmt.Errorf("%w: id %d", domain.ErrParentNotFound, *parentID)
		}
		if !p.IsActive() {
			return nil, fmt.Errorf("%w: id %d", domain.ErrParentInactive, *parentID)
		}
		parent = p
	}

	tx, err := domain.NewTransaction(id, amount, txType, parentID)
	if err != nil {
		return nil, err
	}

	s.index.Lock()
	s.transactions[id] = tx
	if parent != nil {
		parent.AddChild(id)
	}
	s.byType[txType] = append(s.byType[txType], id)
	s.index.Unlock()

	return tx, nil
}

// Get returns the transaction with the given id.
func (s *TransactionStore) Get(ctx context.Context, id int64) (*domain.Transaction, bool) {
	s.index.RLock()
	defer s.index.RUnlock()

	tx, ok := s.transactions[id]
	return tx, ok
}

// IDsByType returns the ids created with txType in creation order. Unknown
// types yield an empty slice.
func (s *TransactionStore) IDsByType(ctx context.Context, txType string) []int64 {
	s.index.RLock()
	defer s.index.RUnlock()

	ids := s.byType[txType]
	out := make([]int64, len(ids))
	copy(out, ids)
	return out
}

// Snapshot renders the transaction and all of its descendants as seen at a
// single instant.
func (s *TransactionStore) Snapshot(ctx context.Context, id int64) (*domain.TransactionView, bool) {
	s.guard.Lock()
	defer s.guard.Unlock()

	tx, ok := s.transactions[id]
	if !ok {
		return nil, false
	}
	return s.view(tx), true
}

func (s *TransactionStore) view(tx *domain.Transaction) *domain.TransactionView {
	v := &domain.TransactionView{
		ID:       tx.ID(),
		Amount:   tx.Amount(),
		Type:     tx.Type(),
		Active:   tx.IsActive(),
		Children: []*domain.TransactionView{},
	}
	if pid, ok := tx.ParentID(); ok {
		v.ParentID = &pid
	}

	for _, childID := range tx.Children() {
		if child, ok := s.transactions[childID]; ok {
			v.Children = append(v.Children, s.view(child))
		}
	}
	return v
}

// Reset drops every transaction.
func (s *TransactionStore) Reset() {
	s.guard.Lock()
	defer s.guard.Unlock()

	s.index.Lock()
	s.transactions = make(map[int64]*domain.Transaction)
	s.byType = make(map[string][]int64)
	s.index.Unlock()
}
