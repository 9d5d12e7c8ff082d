package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValidPolicy(t *testing.T) {
	doc := []byte(`
roles:
  sales_rep:
    books:
      read: [title, price]
      update: [stock]
`)
	m, err := Parse(doc)
	require.NoError(t, err)

	cols, ok := m.Grant(RoleSalesRep, ResourceBooks, OpRead)
	require.True(t, ok)
	assert.Equal(t, []string{"price", "title"}, cols.Slice())

	_, ok = m.Grant(RoleSalesRep, ResourceBooks, OpInsert)
	assert.False(t, ok)
}

func TestParseRejections(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "unknown role",
			doc: `
roles:
  intern:
    books:
      read: [title]
`,
		},
		{
			name: "reserved admin role",
			doc: `
roles:
  admin:
    books:
      read: [title]
`,
		},
		{
			name: "unknown resource",
			doc: `
roles:
  sales_rep:
    invoices:
      read: [total]
`,
		},
		{
			name: "unknown operation",
			doc: `
roles:
  sales_rep:
    books:
      truncate: [title]
`,
		},
		{
			name: "unknown column",
			doc: `
roles:
  sales_rep:
    books:
      read: [isbn]
`,
		},
		{
			name: "credit card grant",
			doc: `
roles:
  sales_rep:
    customers:
      read: [name, credit_card]
`,
		},
		{
			name: "price_at_order write grant",
			doc: `
roles:
  customer_service:
    order_items:
      update: [price_at_order]
`,
		},
		{
			name: "empty grant",
			doc: `
roles:
  sales_rep:
    books:
      read: []
`,
		},
		{
			name: "no roles",
			doc:  `roles: {}`,
		},
		{
			name: "not yaml",
			doc:  `{{{{`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	doc := `
roles:
  inventory_manager:
    books:
      read: [id, title, cost_price]
      insert: [title, author, price, cost_price, stock]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	m, err := Load(path)
	require.NoError(t, err)
	cols, ok := m.Grant(RoleInventoryManager, ResourceBooks, OpInsert)
	require.True(t, ok)
	assert.True(t, cols.Has("cost_price"))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultMatchesEmbeddedDocument(t *testing.T) {
	// Default must go through the same validation as external files.
	assert.NotPanics(t, func() { Default() })
}
