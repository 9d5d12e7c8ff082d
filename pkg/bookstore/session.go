package bookstore

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/bookwise/bookguard/pkg/auth"
	"github.com/bookwise/bookguard/pkg/policy"
	"github.com/bookwise/bookguard/pkg/store"
)

const sessionDuration = 24 * time.Hour

// CreateSession authenticates the user and opens a session. The session
// pins the role resolved at login time.
func (g *Guarded) CreateSession(username, token string) (auth.Session, error) {
	role, err := g.resolveRole(username, token)
	if err != nil {
		return auth.Session{}, err
	}

	now := time.Now()
	session := auth.Session{
		ID:        uuid.NewString(),
		Username:  username,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(sessionDuration),
	}
	if err := g.authProvider.StoreSession(session); err != nil {
		return auth.Session{}, &DBError{Code: "SESSION_CREATE_FAILED", Message: "failed to store session", Err: err}
	}
	return session, nil
}

// ValidateSession reports whether a session exists and has not expired.
func (g *Guarded) ValidateSession(sessionID string) (bool, error) {
	_, ok, err := g.authProvider.LookupSession(sessionID)
	if err != nil {
		return false, &DBError{Code: "SESSION_LOOKUP_FAILED", Message: "failed to look up session", Err: err}
	}
	return ok, nil
}

// TerminateSession ends a session.
func (g *Guarded) TerminateSession(sessionID string) error {
	if err := g.authProvider.TerminateSession(sessionID); err != nil {
		return &DBError{Code: "SESSION_NOT_FOUND", Message: "session not found", Err: err}
	}
	return nil
}

// QueryBySession runs an authorized read under a previously created
// session instead of per-call credentials.
func (g *Guarded) QueryBySession(sessionID string, resource policy.Resource, columns []string, pred store.Predicate) (*sql.Rows, error) {
	session, ok, err := g.authProvider.LookupSession(sessionID)
	if err != nil {
		return nil, &DBError{Code: "SESSION_LOOKUP_FAILED", Message: "failed to look up session", Err: err}
	}
	if !ok {
		return nil, &DBError{Code: "SESSION_INVALID", Message: "session not found or expired"}
	}
	projection, err := g.evaluator.AuthorizeRead(session.Role, resource, columns)
	if err != nil {
		return nil, err
	}
	if err := g.authorizePredicate(session.Role, resource, pred); err != nil {
		return nil, err
	}
	return g.store.Query(resource, projection.Columns, pred)
}
