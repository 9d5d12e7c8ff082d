// Package bookguard provides a role-guarded bookstore database: a
// column/operation-scoped access matrix enforced in front of SQLite.
package bookguard

import (
	"github.com/bookwise/bookguard/pkg/bookstore"
)

// Open creates a new guarded bookstore database.
func Open(cfg Config) (*Guarded, error) {
	return bookstore.Open(cfg)
}

// Re-export types for convenience
type (
	Config  = bookstore.Config
	Guarded = bookstore.Guarded
	DBError = bookstore.DBError
)
