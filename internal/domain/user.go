package domain

import "errors"

// Role represents a caller's access level
type Role string

const (
	// RoleAdmin has full access to all operations
	RoleAdmin Role = "admin"

	// RoleOperator can create and roll back transactions
	RoleOperator Role = "operator"

	// RoleViewer can only read transactions, sums and type listings
	RoleViewer Role = "viewer"
)

// Principal is an authenticated caller.
type Principal struct {
	Subject string
	Role    Role
}

var validRoles = map[Role]bool{
	RoleAdmin:    true,
	RoleOperator: true,
	RoleViewer:   true,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// CanMutate checks if the role can create or roll back transactions
func (r Role) CanMutate() bool {
	return r == RoleAdmin || r == RoleOperator
}

// Authentication errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInsufficientRole = errors.New("insufficient role for this operation")
)
