package enums

import "fmt"

// UserRole identifies the kind of staff account behind an access token.
type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleStaff UserRole = "staff"
)

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleAdmin, UserRoleStaff:
		return true
	}
	return false
}

func ParseUserRole(s string) (UserRole, error) {
	r := UserRole(s)
	if !r.IsValid() {
		return "", fmt.Errorf("invalid user role: %q", s)
	}
	return r, nil
}
