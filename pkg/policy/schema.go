package policy

// resourceColumns is the physical column list per resource. Grants are
// validated against it on load; the guarded store refuses columns outside
// it regardless of what the matrix says.
var resourceColumns = map[Resource][]string{
	ResourceBooks:      {"id", "title", "author", "price", "cost_price", "stock"},
	ResourceCustomers:  {"id", "name", "email", "phone", "credit_card"},
	ResourceOrders:     {"id", "customer_id", "order_date", "status"},
	ResourceOrderItems: {"id", "order_id", "book_id", "quantity", "price_at_order"},
}

// SchemaColumns returns the full column list for a resource, or nil for an
// unknown resource.
func SchemaColumns(resource Resource) []string {
	cols, ok := resourceColumns[resource]
	if !ok {
		return nil
	}
	out := make([]string, len(cols))
	copy(out, cols)
	return out
}

// KnownResource reports whether the resource exists in the schema.
func KnownResource(resource Resource) bool {
	_, ok := resourceColumns[resource]
	return ok
}

// KnownColumn reports whether the column exists on the resource.
func KnownColumn(resource Resource, column string) bool {
	for _, col := range resourceColumns[resource] {
		if col == column {
			return true
		}
	}
	return false
}
