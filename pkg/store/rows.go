package store

import (
	"database/sql"

	"github.com/bookwise/bookguard/pkg/policy"
)

// RawQuery executes an already-authorized SQL read.
func (s *Store) RawQuery(query string, args ...any) (*sql.Rows, error) {
	return s.db.Query(query, args...)
}

// RawExec executes an already-authorized SQL write, mapping constraint
// failures on the named resource into the denial taxonomy.
func (s *Store) RawExec(resource policy.Resource, query string, args ...any) (sql.Result, error) {
	result, err := s.db.Exec(query, args...)
	if err != nil {
		return nil, mapConstraintError(resource, err)
	}
	return result, nil
}

// ScanMaps drains rows into a slice of column-name keyed maps and closes
// them. SQLite byte slices are converted to strings so results serialize
// cleanly.
func ScanMaps(rows *sql.Rows) ([]map[string]any, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		targets := make([]any, len(columns))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
