// Package sqlgate parses raw SQL into the (tables, columns, operation)
// shape the evaluator decides on, and rewrites star projections down to a
// granted column set.
package sqlgate

import (
	"fmt"

	xsqlparser "github.com/xwb1989/sqlparser"
)

// Parse parses a SQL statement and extracts its kind, the tables it
// touches and the columns it names, both projected and filtered on. Only
// plain SELECT, INSERT, UPDATE and DELETE are accepted; DDL, subqueries
// and INSERT ... SELECT never pass the gate.
func Parse(query string) (*Statement, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	ast, err := xsqlparser.Parse(query)
	if err != nil {
		return nil, fmt.Errorf("sqlgate: parse: %w", err)
	}

	stmt := &Statement{AST: ast}
	switch s := ast.(type) {
	case *xsqlparser.Select:
		stmt.Kind = KindSelect
		if stmt.Tables, err = tablesFromExprs(s.From); err != nil {
			return nil, err
		}
		for _, expr := range s.SelectExprs {
			switch e := expr.(type) {
			case *xsqlparser.StarExpr:
				stmt.Star = true
			case *xsqlparser.AliasedExpr:
				if col, ok := e.Expr.(*xsqlparser.ColName); ok {
					stmt.Columns = append(stmt.Columns, refOf(col))
				}
			}
		}
		// Join ON conditions live inside From; walking it collects their
		// column references without touching the projection.
		stmt.Filters = columnRefs(s.From, s.Where, s.GroupBy, s.Having, s.OrderBy)

	case *xsqlparser.Insert:
		stmt.Kind = KindInsert
		stmt.Tables = []string{s.Table.Name.String()}
		if _, ok := s.Rows.(xsqlparser.Values); !ok {
			return nil, fmt.Errorf("%w: INSERT must supply literal VALUES", ErrUnsupportedStatement)
		}
		if len(s.OnDup) > 0 {
			return nil, fmt.Errorf("%w: ON DUPLICATE KEY UPDATE", ErrUnsupportedStatement)
		}
		for _, col := range s.Columns {
			stmt.Columns = append(stmt.Columns, ColumnRef{Name: col.String()})
		}
		stmt.Filters = columnRefs(s.Rows)

	case *xsqlparser.Update:
		stmt.Kind = KindUpdate
		if stmt.Tables, err = tablesFromExprs(s.TableExprs); err != nil {
			return nil, err
		}
		for _, expr := range s.Exprs {
			stmt.Columns = append(stmt.Columns, refOf(expr.Name))
			stmt.Filters = append(stmt.Filters, columnRefs(expr.Expr)...)
		}
		stmt.Filters = append(stmt.Filters, columnRefs(s.Where, s.OrderBy)...)

	case *xsqlparser.Delete:
		stmt.Kind = KindDelete
		if stmt.Tables, err = tablesFromExprs(s.TableExprs); err != nil {
			return nil, err
		}
		stmt.Filters = columnRefs(s.Where, s.OrderBy)

	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedStatement, ast)
	}

	return stmt, nil
}

// RewriteStar replaces a SELECT * projection with an explicit column list.
// Non-star statements come back unchanged.
func (s *Statement) RewriteStar(columns []string) (string, error) {
	if !s.Star {
		return xsqlparser.String(s.AST), nil
	}
	selectStmt, ok := s.AST.(*xsqlparser.Select)
	if !ok {
		return "", fmt.Errorf("sqlgate: star rewrite on %s statement", s.Kind)
	}
	exprs := make(xsqlparser.SelectExprs, 0, len(columns))
	for _, col := range columns {
		exprs = append(exprs, &xsqlparser.AliasedExpr{
			Expr: &xsqlparser.ColName{Name: xsqlparser.NewColIdent(col)},
		})
	}
	selectStmt.SelectExprs = exprs
	return xsqlparser.String(selectStmt), nil
}

// tablesFromExprs extracts every table a statement reads, recursing
// through nested joins. Table expressions that cannot be classified are
// rejected rather than skipped, so no table reaches the store without
// facing the evaluator.
func tablesFromExprs(exprs xsqlparser.TableExprs) ([]string, error) {
	tables := make([]string, 0, len(exprs))
	for _, expr := range exprs {
		sub, err := tablesFromExpr(expr)
		if err != nil {
			return nil, err
		}
		tables = append(tables, sub...)
	}
	return tables, nil
}

func tablesFromExpr(expr xsqlparser.TableExpr) ([]string, error) {
	switch table := expr.(type) {
	case *xsqlparser.AliasedTableExpr:
		name, ok := table.Expr.(xsqlparser.TableName)
		if !ok {
			return nil, fmt.Errorf("%w: subquery in FROM", ErrUnsupportedStatement)
		}
		return []string{name.Name.String()}, nil
	case *xsqlparser.ParenTableExpr:
		return tablesFromExprs(table.Exprs)
	case *xsqlparser.JoinTableExpr:
		left, err := tablesFromExpr(table.LeftExpr)
		if err != nil {
			return nil, err
		}
		right, err := tablesFromExpr(table.RightExpr)
		if err != nil {
			return nil, err
		}
		return append(left, right...), nil
	default:
		return nil, fmt.Errorf("%w: %T table expression", ErrUnsupportedStatement, expr)
	}
}

func refOf(col *xsqlparser.ColName) ColumnRef {
	return ColumnRef{Table: col.Qualifier.Name.String(), Name: col.Name.String()}
}

// columnRefs collects every column reference under the given AST nodes.
func columnRefs(nodes ...xsqlparser.SQLNode) []ColumnRef {
	var refs []ColumnRef
	for _, node := range nodes {
		if node == nil {
			continue
		}
		_ = xsqlparser.Walk(func(n xsqlparser.SQLNode) (bool, error) {
			if col, ok := n.(*xsqlparser.ColName); ok {
				refs = append(refs, refOf(col))
			}
			return true, nil
		}, node)
	}
	return refs
}
