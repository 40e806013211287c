package entity

import (
	"fmt"
	"strings"
)

// Role is the authorization role of an account.
// Gameplay state only exists for RoleUser.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleUser, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrInvalidRole)
	}
}

func (r Role) String() string { return string(r) }
