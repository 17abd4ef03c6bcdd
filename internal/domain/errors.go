package domain

import "errors"

var (
	// Validation errors
	ErrInvalidID              = errors.New("transaction id must be positive")
	ErrInvalidAmount          = errors.New("amount must not be negative")
	ErrInvalidAmountPrecision = errors.New("amount must have at most 2 decimal places")
	ErrInvalidType            = errors.New("transaction type must not be blank")

	// Structural errors
	ErrAlreadyCreated = errors.New("transaction id already created")
	ErrParentNotFound = errors.New("parent transaction not found")
	ErrParentInactive = errors.New("parent transaction is rolled back")

	// State errors
	ErrNotFound        = errors.New("transaction not found")
	ErrAlreadyInactive = errors.New("transaction already rolled back")
)
