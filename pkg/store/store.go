// Package store executes reads and writes against the bookstore SQLite
// database. It performs no authorization of its own; callers are expected
// to pass only columns the evaluator already approved. It does translate
// engine constraint failures into the shared denial taxonomy.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/bookwise/bookguard/pkg/authz"
	"github.com/bookwise/bookguard/pkg/policy"
)

// Store wraps the SQLite connection for the bookstore schema.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// foreign_keys is always on; WAL keeps readers from blocking writers.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection, and an
	// in-memory database requires it (each connection would otherwise get
	// its own empty database).
	db.SetMaxOpenConns(1)

	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: init schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Seed loads the sample dataset. Intended for tests and demos only.
func (s *Store) Seed() error {
	for _, stmt := range seedStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("store: seed: %w", err)
		}
	}
	return nil
}

// Predicate is an equality filter compiled to a parameterized WHERE clause.
// An empty predicate matches all rows.
type Predicate map[string]any

// Query runs a projected SELECT on the resource.
func (s *Store) Query(resource policy.Resource, columns []string, pred Predicate) (*sql.Rows, error) {
	if err := checkColumns(resource, columns); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("store: query on %q names no columns", resource)
	}
	where, args, err := compilePredicate(resource, pred)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY id", strings.Join(columns, ", "), resource, where)
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, mapConstraintError(resource, err)
	}
	return rows, nil
}

// Update applies column/value pairs to the rows matching the predicate and
// returns the affected row count.
func (s *Store) Update(resource policy.Resource, values map[string]any, pred Predicate) (int64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("store: update on %q sets no columns", resource)
	}
	cols := sortedKeys(values)
	if err := checkColumns(resource, cols); err != nil {
		return 0, err
	}
	args := make([]any, 0, len(values)+len(pred))
	assignments := make([]string, 0, len(values))
	for _, col := range cols {
		assignments = append(assignments, col+" = ?")
		args = append(args, values[col])
	}
	where, whereArgs, err := compilePredicate(resource, pred)
	if err != nil {
		return 0, err
	}
	args = append(args, whereArgs...)
	query := fmt.Sprintf("UPDATE %s SET %s%s", resource, strings.Join(assignments, ", "), where)
	result, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, mapConstraintError(resource, err)
	}
	return result.RowsAffected()
}

// Insert adds a row and returns its new surrogate ID.
func (s *Store) Insert(resource policy.Resource, values map[string]any) (int64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("store: insert on %q supplies no columns", resource)
	}
	cols := sortedKeys(values)
	if err := checkColumns(resource, cols); err != nil {
		return 0, err
	}
	args := make([]any, 0, len(values))
	placeholders := make([]string, 0, len(values))
	for _, col := range cols {
		placeholders = append(placeholders, "?")
		args = append(args, values[col])
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		resource, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	result, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, mapConstraintError(resource, err)
	}
	return result.LastInsertId()
}

// checkColumns refuses identifiers outside the physical schema. Columns are
// interpolated into SQL text, so nothing unvalidated may pass.
func checkColumns(resource policy.Resource, columns []string) error {
	if !policy.KnownResource(resource) {
		return fmt.Errorf("store: unknown resource %q", resource)
	}
	for _, col := range columns {
		if !policy.KnownColumn(resource, col) {
			return fmt.Errorf("store: unknown column %s.%s", resource, col)
		}
	}
	return nil
}

func compilePredicate(resource policy.Resource, pred Predicate) (string, []any, error) {
	if len(pred) == 0 {
		return "", nil, nil
	}
	cols := sortedKeys(pred)
	if err := checkColumns(resource, cols); err != nil {
		return "", nil, err
	}
	clauses := make([]string, 0, len(pred))
	args := make([]any, 0, len(pred))
	for _, col := range cols {
		clauses = append(clauses, col+" = ?")
		args = append(args, pred[col])
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// mapConstraintError translates SQLite constraint failures into the denial
// taxonomy. Anything else propagates unchanged.
func mapConstraintError(resource policy.Resource, err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}
	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintForeignKey:
		return &authz.AccessError{
			Code:     authz.CodeReferentialViolation,
			Resource: resource,
			Err:      err,
		}
	case sqlite3.ErrConstraintTrigger:
		// The only trigger in the schema is the price_at_order freeze.
		return &authz.AccessError{
			Code:     authz.CodeImmutableFieldViolation,
			Resource: resource,
			Column:   "price_at_order",
			Err:      err,
		}
	default:
		return err
	}
}
