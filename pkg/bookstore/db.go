// Package bookstore composes authentication, the access matrix evaluator
// and the SQLite store into a guarded database: every read and write is
// authorized before it executes, and denials propagate to the caller
// unchanged.
package bookstore

import (
	"database/sql"

	"github.com/bookwise/bookguard/pkg/auth"
	"github.com/bookwise/bookguard/pkg/authz"
	"github.com/bookwise/bookguard/pkg/policy"
	"github.com/bookwise/bookguard/pkg/store"
)

// Guarded is the access-controlled facade over the bookstore database.
type Guarded struct {
	store        *store.Store
	authProvider auth.Provider
	evaluator    *authz.Evaluator
}

// Open creates a guarded store from the given configuration.
func Open(cfg Config) (*Guarded, error) {
	if cfg.DBPath == "" {
		return nil, &DBError{Code: "INVALID_CONFIG", Message: "database path is required"}
	}
	if cfg.AuthProvider == nil {
		return nil, &DBError{Code: "INVALID_CONFIG", Message: "auth provider is required"}
	}
	matrix := cfg.Matrix
	if matrix == nil {
		matrix = policy.Default()
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, &DBError{Code: "DB_OPEN_FAILED", Message: "failed to open database", Err: err}
	}

	return &Guarded{
		store:        st,
		authProvider: cfg.AuthProvider,
		evaluator:    authz.NewEvaluator(matrix),
	}, nil
}

// Close closes the database connection.
func (g *Guarded) Close() error {
	return g.store.Close()
}

// AuthProvider returns the authentication provider used by the store.
func (g *Guarded) AuthProvider() auth.Provider {
	return g.authProvider
}

// Evaluator returns the access matrix evaluator.
func (g *Guarded) Evaluator() *authz.Evaluator {
	return g.evaluator
}

// DB returns the underlying database connection.
func (g *Guarded) DB() *sql.DB {
	return g.store.DB()
}

// Seed loads the sample dataset.
func (g *Guarded) Seed() error {
	return g.store.Seed()
}

// Query runs an authorized read. An empty column list resolves to the
// role's full granted projection for the resource.
func (g *Guarded) Query(username, token string, resource policy.Resource, columns []string, pred store.Predicate) (*sql.Rows, error) {
	role, err := g.resolveRole(username, token)
	if err != nil {
		return nil, err
	}
	projection, err := g.evaluator.AuthorizeRead(role, resource, columns)
	if err != nil {
		return nil, err
	}
	if err := g.authorizePredicate(role, resource, pred); err != nil {
		return nil, err
	}
	return g.store.Query(resource, projection.Columns, pred)
}

// ApplyUpdate runs an authorized update and returns the affected row
// count. A single non-whitelisted column rejects the whole update.
func (g *Guarded) ApplyUpdate(username, token string, resource policy.Resource, values map[string]any, pred store.Predicate) (int64, error) {
	role, err := g.resolveRole(username, token)
	if err != nil {
		return 0, err
	}
	columns := make([]string, 0, len(values))
	for col := range values {
		columns = append(columns, col)
	}
	if err := g.evaluator.AuthorizeUpdate(role, resource, columns); err != nil {
		return 0, err
	}
	if err := g.authorizePredicate(role, resource, pred); err != nil {
		return 0, err
	}
	return g.store.Update(resource, values, pred)
}

// Insert runs an authorized insert and returns the new row ID.
func (g *Guarded) Insert(username, token string, resource policy.Resource, values map[string]any) (int64, error) {
	role, err := g.resolveRole(username, token)
	if err != nil {
		return 0, err
	}
	columns := make([]string, 0, len(values))
	for col := range values {
		columns = append(columns, col)
	}
	if err := g.evaluator.AuthorizeInsert(role, resource, columns); err != nil {
		return 0, err
	}
	return g.store.Insert(resource, values)
}

// authorizePredicate checks filter columns against the read grant.
// Matching a value against an ungranted column would confirm its contents
// one comparison at a time, so a predicate is a read like any other.
func (g *Guarded) authorizePredicate(role policy.Role, resource policy.Resource, pred store.Predicate) error {
	if len(pred) == 0 {
		return nil
	}
	columns := make([]string, 0, len(pred))
	for col := range pred {
		columns = append(columns, col)
	}
	_, err := g.evaluator.AuthorizeRead(role, resource, columns)
	return err
}

// resolveRole authenticates the caller and returns their trusted role.
func (g *Guarded) resolveRole(username, token string) (policy.Role, error) {
	authenticated, err := g.authProvider.Authenticate(username, token)
	if err != nil {
		return "", &DBError{Code: "AUTH_ERROR", Message: "authentication failed", Err: err}
	}
	if !authenticated {
		return "", &DBError{Code: "AUTH_FAILED", Message: "authentication failed"}
	}
	role, err := g.authProvider.RoleOf(username)
	if err != nil {
		return "", &DBError{Code: "AUTH_ERROR", Message: "role resolution failed", Err: err}
	}
	return role, nil
}
