package dto

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/iho/txledger/internal/usecase"
)

// MaxTypeLength is the longest type label accepted over HTTP.
const MaxTypeLength = 20

// Request validation errors.
var (
	ErrAmountRequired = errors.New("amount is required")
	ErrTypeTooLong    = fmt.Errorf("type must be at most %d characters", MaxTypeLength)
)

// PutTransactionRequest represents a request to create a transaction under a
// caller-chosen id. Amount accepts both JSON strings and numbers.
type PutTransactionRequest struct {
	Amount   *decimal.Decimal `json:"amount"`
	Type     string           `json:"type"`
	ParentID *int64           `json:"parent_id,omitempty"`
}

// Validate checks the request shape. Value rules are enforced by the domain.
func (r *PutTransactionRequest) Validate() error {
	if r.Amount == nil {
		return ErrAmountRequired
	}
	if utf8.RuneCountInString(r.Type) > MaxTypeLength {
		return ErrTypeTooLong
	}
	return nil
}

// ToUseCaseInput converts to use case input.
func (r *PutTransactionRequest) ToUseCaseInput(id int64) usecase.CreateTransactionInput {
	input := usecase.CreateTransactionInput{
		ID:       id,
		Type:     r.Type,
		ParentID: r.ParentID,
	}
	if r.Amount != nil {
		input.Amount = *r.Amount
	}
	return input
}
