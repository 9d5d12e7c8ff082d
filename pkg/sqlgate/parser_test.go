package sqlgate

import (
	"errors"
	"strings"
	"testing"

	"github.com/bookwise/bookguard/pkg/policy"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		wantKind    Kind
		wantTables  []string
		wantColumns []string
		wantFilters []string
		wantStar    bool
		wantErr     bool
	}{
		{
			name:        "simple select",
			query:       "SELECT title, author FROM books",
			wantKind:    KindSelect,
			wantTables:  []string{"books"},
			wantColumns: []string{"title", "author"},
		},
		{
			name:       "select star",
			query:      "SELECT * FROM customers",
			wantKind:   KindSelect,
			wantTables: []string{"customers"},
			wantStar:   true,
		},
		{
			name:        "select with where",
			query:       "SELECT status FROM orders WHERE id = 3",
			wantKind:    KindSelect,
			wantTables:  []string{"orders"},
			wantColumns: []string{"status"},
			wantFilters: []string{"id"},
		},
		{
			name:        "join",
			query:       "SELECT orders.status FROM orders JOIN order_items ON orders.id = order_items.order_id",
			wantKind:    KindSelect,
			wantTables:  []string{"orders", "order_items"},
			wantColumns: []string{"status"},
			wantFilters: []string{"id", "order_id"},
		},
		{
			name:        "nested join",
			query:       "SELECT orders.status FROM orders JOIN order_items ON orders.id = order_items.order_id JOIN books ON order_items.book_id = books.id",
			wantKind:    KindSelect,
			wantTables:  []string{"orders", "order_items", "books"},
			wantColumns: []string{"status"},
			wantFilters: []string{"id", "order_id", "book_id", "id"},
		},
		{
			name:        "insert",
			query:       "INSERT INTO books (title, author, price) VALUES ('a', 'b', 1)",
			wantKind:    KindInsert,
			wantTables:  []string{"books"},
			wantColumns: []string{"title", "author", "price"},
		},
		{
			name:        "update",
			query:       "UPDATE books SET stock = 3 WHERE id = 1",
			wantKind:    KindUpdate,
			wantTables:  []string{"books"},
			wantColumns: []string{"stock"},
			wantFilters: []string{"id"},
		},
		{
			name:        "update reading another column",
			query:       "UPDATE books SET stock = stock - 1 WHERE id = 1",
			wantKind:    KindUpdate,
			wantTables:  []string{"books"},
			wantColumns: []string{"stock"},
			wantFilters: []string{"stock", "id"},
		},
		{
			name:        "delete",
			query:       "DELETE FROM orders WHERE id = 1",
			wantKind:    KindDelete,
			wantTables:  []string{"orders"},
			wantFilters: []string{"id"},
		},
		{
			name:    "ddl rejected",
			query:   "CREATE TABLE t (id INTEGER)",
			wantErr: true,
		},
		{
			name:    "insert from select rejected",
			query:   "INSERT INTO books (title) SELECT name FROM customers",
			wantErr: true,
		},
		{
			name:    "subquery table rejected",
			query:   "SELECT t.title FROM (SELECT title FROM books) AS t",
			wantErr: true,
		},
		{
			name:    "empty query",
			query:   "",
			wantErr: true,
		},
		{
			name:    "garbage",
			query:   "SELEKT things",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := Parse(tt.query)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Parse() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() unexpected error: %v", err)
			}
			if stmt.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", stmt.Kind, tt.wantKind)
			}
			if !equalStrings(stmt.Tables, tt.wantTables) {
				t.Errorf("Tables = %v, want %v", stmt.Tables, tt.wantTables)
			}
			if got := columnNames(stmt.Columns); !equalStrings(got, tt.wantColumns) {
				t.Errorf("Columns = %v, want %v", got, tt.wantColumns)
			}
			if got := columnNames(stmt.Filters); !equalStrings(got, tt.wantFilters) {
				t.Errorf("Filters = %v, want %v", got, tt.wantFilters)
			}
			if stmt.Star != tt.wantStar {
				t.Errorf("Star = %v, want %v", stmt.Star, tt.wantStar)
			}
		})
	}
}

func TestParseQualifiers(t *testing.T) {
	stmt, err := Parse("SELECT orders.status FROM orders JOIN order_items ON orders.id = order_items.order_id")
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}
	if len(stmt.Columns) != 1 || stmt.Columns[0].Table != "orders" {
		t.Errorf("Columns = %v, want status qualified by orders", stmt.Columns)
	}
	want := []ColumnRef{{Table: "orders", Name: "id"}, {Table: "order_items", Name: "order_id"}}
	if len(stmt.Filters) != len(want) {
		t.Fatalf("Filters = %v, want %v", stmt.Filters, want)
	}
	for i, ref := range want {
		if stmt.Filters[i] != ref {
			t.Errorf("Filters[%d] = %v, want %v", i, stmt.Filters[i], ref)
		}
	}
}

func TestParseErrorKinds(t *testing.T) {
	if _, err := Parse(""); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
	if _, err := Parse("DROP TABLE books"); !errors.Is(err, ErrUnsupportedStatement) {
		t.Errorf("expected ErrUnsupportedStatement, got %v", err)
	}
	if _, err := Parse("INSERT INTO books (title) SELECT name FROM customers"); !errors.Is(err, ErrUnsupportedStatement) {
		t.Errorf("expected ErrUnsupportedStatement, got %v", err)
	}
}

func TestKindOperation(t *testing.T) {
	pairs := map[Kind]policy.Operation{
		KindSelect: policy.OpRead,
		KindInsert: policy.OpInsert,
		KindUpdate: policy.OpUpdate,
		KindDelete: policy.OpDelete,
	}
	for kind, want := range pairs {
		if got := kind.Operation(); got != want {
			t.Errorf("%v.Operation() = %v, want %v", kind, got, want)
		}
	}
}

func TestRewriteStar(t *testing.T) {
	stmt, err := Parse("SELECT * FROM books WHERE id = 1")
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}

	rewritten, err := stmt.RewriteStar([]string{"title", "price"})
	if err != nil {
		t.Fatalf("RewriteStar() unexpected error: %v", err)
	}
	if strings.Contains(rewritten, "*") {
		t.Errorf("rewritten query still contains star: %s", rewritten)
	}
	for _, col := range []string{"title", "price"} {
		if !strings.Contains(rewritten, col) {
			t.Errorf("rewritten query missing column %s: %s", col, rewritten)
		}
	}
	if !strings.Contains(rewritten, "where id = 1") {
		t.Errorf("rewritten query lost its predicate: %s", rewritten)
	}
}

func TestRewriteStarNonStar(t *testing.T) {
	stmt, err := Parse("SELECT title FROM books")
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}
	rewritten, err := stmt.RewriteStar([]string{"ignored"})
	if err != nil {
		t.Fatalf("RewriteStar() unexpected error: %v", err)
	}
	if !strings.Contains(rewritten, "title") || strings.Contains(rewritten, "ignored") {
		t.Errorf("non-star statement should come back unchanged: %s", rewritten)
	}
}

func columnNames(refs []ColumnRef) []string {
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.Name)
	}
	return names
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
