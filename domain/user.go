package domain

import (
	"strings"
	"time"
)

// Role is the closed set of role tiers a user can hold.
type Role string

const (
	RoleStandard           Role = "standard"
	RoleAdministrator      Role = "administrator"
	RoleSuperAdministrator Role = "super_administrator"
)

// ParseRole accepts the canonical role names case-insensitively.
func ParseRole(value string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleStandard:
		return RoleStandard, nil
	case RoleAdministrator:
		return RoleAdministrator, nil
	case RoleSuperAdministrator:
		return RoleSuperAdministrator, nil
	default:
		return "", ValidationError("unknown role " + value)
	}
}

// IsElevated reports whether the role bypasses per-task access checks.
func (r Role) IsElevated() bool {
	return r == RoleAdministrator || r == RoleSuperAdministrator
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Actor is the authenticated identity performing an operation.
// It is derived per request and never stored.
type Actor struct {
	UserID int64 `json:"user_id"`
	Role   Role  `json:"role"`
}

func (a Actor) IsElevated() bool {
	return a.Role.IsElevated()
}

// User is a directory entry. Credentials live with the external authenticator.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	Surname   string    `json:"surname"`
	Role      Role      `json:"role"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) IsActive() bool {
	return u != nil && u.Enabled
}
