// Package auth resolves caller credentials to a trusted role. The
// evaluator assumes an already-resolved role identifier; this package is
// the seam that produces it.
package auth

import (
	"time"

	"github.com/bookwise/bookguard/pkg/policy"
)

// Session is a validated login with an expiry.
type Session struct {
	ID        string
	Username  string
	Role      policy.Role
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Provider defines the interface for authentication and role resolution.
type Provider interface {
	// Authenticate verifies if the given username and token are valid.
	Authenticate(username, token string) (bool, error)

	// RoleOf returns the role assigned to the user.
	RoleOf(username string) (policy.Role, error)

	// CreateUser registers a user with the given credentials and role.
	CreateUser(username, token string, role policy.Role) error

	// DeleteUser removes a user.
	DeleteUser(username string) error

	// StoreSession stores a session.
	StoreSession(session Session) error

	// LookupSession returns a stored, unexpired session.
	LookupSession(sessionID string) (Session, bool, error)

	// TerminateSession removes a session.
	TerminateSession(sessionID string) error
}
