package bookstore

import (
	"database/sql"
	"fmt"

	"github.com/bookwise/bookguard/pkg/authz"
	"github.com/bookwise/bookguard/pkg/policy"
	"github.com/bookwise/bookguard/pkg/sqlgate"
)

// QuerySQL authorizes and executes a raw SELECT. Every table and every
// named column passes the evaluator, filter columns included: a WHERE
// clause on an ungranted column would confirm its value one comparison at
// a time. A SELECT * is rewritten down to the caller's granted projection
// rather than exposing the full row.
func (g *Guarded) QuerySQL(username, token, query string, args ...any) (*sql.Rows, error) {
	role, err := g.resolveRole(username, token)
	if err != nil {
		return nil, err
	}
	stmt, err := g.parseStatement(query)
	if err != nil {
		return nil, err
	}
	if stmt.Kind != sqlgate.KindSelect {
		return nil, &DBError{
			Code:    "NOT_A_QUERY",
			Message: fmt.Sprintf("%s statement passed to QuerySQL; use ExecSQL", stmt.Kind),
		}
	}

	resources, err := statementResources(stmt)
	if err != nil {
		return nil, err
	}
	if err := checkQualifiers(stmt); err != nil {
		return nil, err
	}
	for _, resource := range resources {
		columns, err := columnsOn(resource, resources, stmt.Columns)
		if err != nil {
			return nil, err
		}
		filters, err := columnsOn(resource, resources, stmt.Filters)
		if err != nil {
			return nil, err
		}
		if _, err := g.evaluator.AuthorizeRead(role, resource, append(columns, filters...)); err != nil {
			return nil, err
		}
	}

	if stmt.Star {
		if len(resources) != 1 {
			return nil, &DBError{
				Code:    "UNSUPPORTED_QUERY",
				Message: "SELECT * across multiple tables is not supported",
			}
		}
		projection, err := g.evaluator.AuthorizeRead(role, resources[0], nil)
		if err != nil {
			return nil, err
		}
		rewritten, err := stmt.RewriteStar(projection.Columns)
		if err != nil {
			return nil, &DBError{Code: "REWRITE_FAILED", Message: "failed to rewrite projection", Err: err}
		}
		query = rewritten
	}

	return g.store.RawQuery(query, args...)
}

// ExecSQL authorizes and executes a raw INSERT, UPDATE or DELETE. Written
// columns face the write grant, filter columns the read grant.
func (g *Guarded) ExecSQL(username, token, query string, args ...any) (sql.Result, error) {
	role, err := g.resolveRole(username, token)
	if err != nil {
		return nil, err
	}
	stmt, err := g.parseStatement(query)
	if err != nil {
		return nil, err
	}

	resources, err := statementResources(stmt)
	if err != nil {
		return nil, err
	}
	if err := checkQualifiers(stmt); err != nil {
		return nil, err
	}

	for _, resource := range resources {
		var authErr error
		switch stmt.Kind {
		case sqlgate.KindInsert:
			columns, err := columnsOn(resource, resources, stmt.Columns)
			if err != nil {
				return nil, err
			}
			authErr = g.evaluator.AuthorizeInsert(role, resource, columns)
		case sqlgate.KindUpdate:
			columns, err := columnsOn(resource, resources, stmt.Columns)
			if err != nil {
				return nil, err
			}
			authErr = g.evaluator.AuthorizeUpdate(role, resource, columns)
		case sqlgate.KindDelete:
			_, authErr = g.evaluator.Authorize(role, resource, policy.OpDelete, nil)
		default:
			return nil, &DBError{
				Code:    "NOT_AN_EXEC",
				Message: fmt.Sprintf("%s statement passed to ExecSQL; use QuerySQL", stmt.Kind),
			}
		}
		if authErr != nil {
			return nil, authErr
		}

		filters, err := columnsOn(resource, resources, stmt.Filters)
		if err != nil {
			return nil, err
		}
		if len(filters) > 0 {
			if _, err := g.evaluator.AuthorizeRead(role, resource, filters); err != nil {
				return nil, err
			}
		}
	}

	return g.store.RawExec(resources[0], query, args...)
}

func (g *Guarded) parseStatement(query string) (*sqlgate.Statement, error) {
	stmt, err := sqlgate.Parse(query)
	if err != nil {
		return nil, &DBError{Code: "PARSE_ERROR", Message: "failed to parse query", Err: err}
	}
	return stmt, nil
}

// statementResources maps the statement's table names onto schema
// resources. A table outside the schema carries no grants for anyone, so
// it surfaces as a resource-level denial rather than leaking whether the
// table exists.
func statementResources(stmt *sqlgate.Statement) ([]policy.Resource, error) {
	if len(stmt.Tables) == 0 {
		return nil, &DBError{Code: "UNSUPPORTED_QUERY", Message: "statement names no tables"}
	}
	resources := make([]policy.Resource, 0, len(stmt.Tables))
	for _, table := range stmt.Tables {
		resource := policy.Resource(table)
		if !policy.KnownResource(resource) {
			return nil, &authz.AccessError{
				Code:      authz.CodeResourceAccessDenied,
				Resource:  resource,
				Operation: stmt.Kind.Operation(),
			}
		}
		resources = append(resources, resource)
	}
	return resources, nil
}

// checkQualifiers rejects column qualifiers that name no table in the
// statement, table aliases included; an unattributable column would
// otherwise slip past every per-resource check.
func checkQualifiers(stmt *sqlgate.Statement) error {
	for _, refs := range [][]sqlgate.ColumnRef{stmt.Columns, stmt.Filters} {
		for _, ref := range refs {
			if ref.Table == "" {
				continue
			}
			found := false
			for _, table := range stmt.Tables {
				if table == ref.Table {
					found = true
					break
				}
			}
			if !found {
				return &DBError{
					Code:    "UNSUPPORTED_QUERY",
					Message: fmt.Sprintf("column qualifier %q does not name a table in the statement", ref.Table),
				}
			}
		}
	}
	return nil
}

// columnsOn resolves which of the referenced columns belong to the given
// resource. An unqualified reference is unambiguous only in a single-table
// statement; in a join every column must carry its table.
func columnsOn(resource policy.Resource, resources []policy.Resource, refs []sqlgate.ColumnRef) ([]string, error) {
	columns := make([]string, 0, len(refs))
	for _, ref := range refs {
		switch {
		case ref.Table == "":
			if len(resources) > 1 {
				return nil, &DBError{
					Code:    "UNSUPPORTED_QUERY",
					Message: fmt.Sprintf("column %q must be table-qualified in a multi-table statement", ref.Name),
				}
			}
			columns = append(columns, ref.Name)
		case ref.Table == string(resource):
			columns = append(columns, ref.Name)
		}
	}
	return columns, nil
}
