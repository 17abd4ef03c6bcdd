package dto

import (
	"github.com/iho/txledger/internal/domain"
)

// TransactionResponse represents a transaction and its descendants.
type TransactionResponse struct {
	ID       int64                  `json:"id"`
	Amount   string                 `json:"amount"`
	Type     string                 `json:"type"`
	ParentID *int64                 `json:"parent_id,omitempty"`
	Active   bool                   `json:"active"`
	Children []*TransactionResponse `json:"children"`
}

// TransactionFromView converts a domain tree view to a response.
func TransactionFromView(v *domain.TransactionView) *TransactionResponse {
	resp := &TransactionResponse{
		ID:       v.ID,
		Amount:   v.Amount.StringFixed(domain.MaxAmountScale),
		Type:     v.Type,
		ParentID: v.ParentID,
		Active:   v.Active,
		Children: make([]*TransactionResponse, 0, len(v.Children)),
	}
	for _, child := range v.Children {
		resp.Children = append(resp.Children, TransactionFromView(child))
	}
	return resp
}

// SumResponse carries the aggregated amount of a subtree.
type SumResponse struct {
	Sum string `json:"sum"`
}

// ConsistencyResponse reports the result of a ledger audit.
type ConsistencyResponse struct {
	Status     string   `json:"status"`
	Consistent bool     `json:"consistent"`
	Checked    int      `json:"checked"`
	Violations []string `json:"violations,omitempty"`
}

// ConsistencyFromReport converts a domain report to a response.
func ConsistencyFromReport(r *domain.ConsistencyReport) *ConsistencyResponse {
	status := "consistent"
	if !r.Consistent() {
		status = "inconsistent"
	}
	return &ConsistencyResponse{
		Status:     status,
		Consistent: r.Consistent(),
		Checked:    r.Checked,
		Violations: r.Violations,
	}
}

// StatsResponse summarizes the ledger contents.
type StatsResponse struct {
	Total     int    `json:"total"`
	Active    int    `json:"active"`
	Inactive  int    `json:"inactive"`
	Roots     int    `json:"roots"`
	Types     int    `json:"types"`
	ActiveSum string `json:"active_sum"`
}

// StatsFromDomain converts domain stats to a response.
func StatsFromDomain(s *domain.LedgerStats) *StatsResponse {
	return &StatsResponse{
		Total:     s.Total,
		Active:    s.Active,
		Inactive:  s.Inactive,
		Roots:     s.Roots,
		Types:     s.Types,
		ActiveSum: s.ActiveSum.StringFixed(domain.MaxAmountScale),
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
