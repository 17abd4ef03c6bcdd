package domain

import "testing"

func TestRole(t *testing.T) {
	tests := []struct {
		role      Role
		valid     bool
		canMutate bool
	}{
		{RoleAdmin, true, true},
		{RoleOperator, true, true},
		{RoleViewer, true, false},
		{Role("guest"), false, false},
	}

	for _, tt := range tests {
		if got := tt.role.IsValid(); got != tt.valid {
			t.Errorf("%s.IsValid() = %v, want %v", tt.role, got, tt.valid)
		}
		if got := tt.role.CanMutate(); got != tt.canMutate {
			t.Errorf("%s.CanMutate() = %v, want %v", tt.role, got, tt.canMutate)
		}
	}
}
