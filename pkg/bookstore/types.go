package bookstore

import (
	"github.com/bookwise/bookguard/pkg/auth"
	"github.com/bookwise/bookguard/pkg/policy"
)

// Config holds the configuration for the guarded store.
type Config struct {
	// DBPath is the SQLite database path, or ":memory:".
	DBPath string

	// AuthProvider resolves credentials to roles.
	AuthProvider auth.Provider

	// Matrix is the access policy. Nil selects the built-in bookstore
	// matrix.
	Matrix *policy.Matrix
}

// DBError represents a database-layer error distinct from an access
// denial: bad configuration, failed authentication, unusable input.
type DBError struct {
	Code    string
	Message string
	Err     error
}

func (e *DBError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *DBError) Unwrap() error {
	return e.Err
}
