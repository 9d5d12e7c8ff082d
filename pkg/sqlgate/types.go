package sqlgate

import (
	"errors"

	xsqlparser "github.com/xwb1989/sqlparser"

	"github.com/bookwise/bookguard/pkg/policy"
)

// ErrEmptyQuery is returned when an empty SQL string is presented.
var ErrEmptyQuery = errors.New("sqlgate: empty query")

// ErrUnsupportedStatement is returned for statement kinds the gate refuses
// to authorize (DDL, unions, and anything else outside plain DML).
var ErrUnsupportedStatement = errors.New("sqlgate: unsupported statement")

// Kind classifies a parsed statement.
type Kind int

const (
	KindUnknown Kind = iota
	KindSelect
	KindInsert
	KindUpdate
	KindDelete
)

// String implements the Stringer interface for Kind.
func (k Kind) String() string {
	switch k {
	case KindSelect:
		return "SELECT"
	case KindInsert:
		return "INSERT"
	case KindUpdate:
		return "UPDATE"
	case KindDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// Operation maps a statement kind onto the policy operation it requires.
func (k Kind) Operation() policy.Operation {
	switch k {
	case KindSelect:
		return policy.OpRead
	case KindInsert:
		return policy.OpInsert
	case KindUpdate:
		return policy.OpUpdate
	case KindDelete:
		return policy.OpDelete
	default:
		return policy.OpRead
	}
}

// ColumnRef is a column reference with its optional table qualifier.
type ColumnRef struct {
	Table string
	Name  string
}

// Statement is the authorization-relevant shape of a parsed SQL statement.
// Columns holds the projected or written columns; Filters holds every
// column referenced by WHERE, ON, GROUP BY, HAVING, ORDER BY or a SET
// expression's right-hand side. Both sets require authorization: matching
// a value against a column reveals it just as surely as selecting it.
type Statement struct {
	Kind    Kind
	Tables  []string
	Columns []ColumnRef
	Filters []ColumnRef
	Star    bool
	AST     xsqlparser.Statement
}
