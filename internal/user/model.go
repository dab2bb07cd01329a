package user

import (
	"strings"
	"time"
)

// Role is the privilege level attached to an account.
type Role string

const (
	// RoleUser is the default role for new accounts.
	RoleUser Role = "user"
	// RoleAdmin grants triage rights and invitation-code generation.
	RoleAdmin Role = "admin"
)

// InvitationCode is the single pending admin-invitation slot on an admin
// account. Only the bcrypt hash of the code is ever stored.
type InvitationCode struct {
	CodeHash  []byte
	CreatedAt time.Time
	Used      bool
}

// User represents a registered account.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	Role         Role
	Invitation   *InvitationCode
	CreatedAt    time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NormalizeEmail canonicalizes an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
