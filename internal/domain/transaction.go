package domain

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"
)

// MaxAmountScale is the number of fractional digits an amount may carry.
const MaxAmountScale = 2

// Transaction is a node in the ledger forest. Identity, amount, type and
// parent are fixed at construction; only the active flag and the children
// list change afterwards.
type Transaction struct {
	id        int64
	amount    decimal.Decimal
	txType    string
	parentID  int64
	hasParent bool

	active atomic.Bool

	mu       sync.RWMutex
	children []int64
}

// NewTransaction validates its arguments and returns an active transaction.
// A nil parentID makes the transaction a root.
func NewTransaction(id int64, amount decimal.Decimal, txType string, parentID *int64) (*Transaction, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	if err := ValidateType(txType); err != nil {
		return nil, err
	}

	tx := &Transaction{
		id:     id,
		amount: amount,
		txType: txType,
	}
	if parentID != nil {
		tx.parentID = *parentID
		tx.hasParent = true
	}
	tx.active.Store(true)

	return tx, nil
}

// ValidateID checks that id is positive.
func ValidateID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidID, id)
	}
	return nil
}

// ValidateAmount checks sign and precision of an amount. Precision is judged
// on the exponent as supplied, so 1.100 is rejected even though it equals 1.1.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: got %s", ErrInvalidAmount, amount)
	}
	if -amount.Exponent() > MaxAmountScale {
		return fmt.Errorf("%w: got %s", ErrInvalidAmountPrecision, amount)
	}
	return nil
}

// ValidateType checks that the type label is not blank.
func ValidateType(txType string) error {
	if strings.TrimSpace(txType) == "" {
		return ErrInvalidType
	}
	return nil
}

func (t *Transaction) ID() int64 { return t.id }

func (t *Transaction) Amount() decimal.Decimal { return t.amount }

func (t *Transaction) Type() string { return t.txType }

// ParentID returns the parent id and whether the transaction has a parent.
func (t *Transaction) ParentID() (int64, bool) {
	return t.parentID, t.hasParent
}

func (t *Transaction) IsActive() bool { return t.active.Load() }

// Deactivate flips the transaction from active to inactive.
func (t *Transaction) Deactivate() error {
	if !t.active.CompareAndSwap(true, false) {
		return fmt.Errorf("%w: id %d", ErrAlreadyInactive, t.id)
	}
	return nil
}

// Reactivate undoes a Deactivate. It is reserved for rollback compensation in
// the memory store and must not be called anywhere else. It reports false when
// the transaction was already active, which callers must treat as a broken
// invariant.
func (t *Transaction) Reactivate() bool {
	return t.active.CompareAndSwap(false, true)
}

// AddChild appends a child id. Children are never removed.
func (t *Transaction) AddChild(id int64) {
	t.mu.Lock()
	t.children = append(t.children, id)
	t.mu.Unlock()
}

// Children returns a copy of the child ids in creation order.
func (t *Transaction) Children() []int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]int64, len(t.children))
	copy(out, t.children)
	return out
}

// TransactionView is a point-in-time rendering of a transaction and its
// descendants.
type TransactionView struct {
	ID       int64
	Amount   decimal.Decimal
	Type     string
	ParentID *int64
	Active   bool
	Children []*TransactionView
}

// CreatedView renders t as it stood when it was registered: active and
// without children.
func (t *Transaction) CreatedView() *TransactionView {
	v := &TransactionView{
		ID:       t.id,
		Amount:   t.amount,
		Type:     t.txType,
		Active:   true,
		Children: []*TransactionView{},
	}
	if t.hasParent {
		pid := t.parentID
		v.ParentID = &pid
	}
	return v
}
