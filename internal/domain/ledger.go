package domain

import "github.com/shopspring/decimal"

// RollbackResult is the outcome of a cascading rollback.
type RollbackResult struct {
	Transaction *Transaction
	// RolledBackIDs lists every id deactivated by the cascade, descendants
	// before ancestors.
	RolledBackIDs []int64
	// View is the subtree as the rollback left it.
	View *TransactionView
}

// ConsistencyReport lists tree invariant violations found by an audit.
type ConsistencyReport struct {
	Checked    int
	Violations []string
}

// Consistent reports whether the audit found no violations.
func (r *ConsistencyReport) Consistent() bool {
	return len(r.Violations) == 0
}

// LedgerStats summarizes the ledger contents.
type LedgerStats struct {
	Total     int
	Active    int
	Inactive  int
	Roots     int
	Types     int
	ActiveSum decimal.Decimal
}
