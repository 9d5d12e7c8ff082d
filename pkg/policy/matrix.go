package policy

// Matrix is the authoritative (role, resource, operation) -> column-set
// table. It is built once by Parse/Load and never mutated afterwards, so it
// is safe for concurrent readers without locking.
type Matrix struct {
	grants    map[Role]map[Resource]map[Operation]ColumnSet
	immutable map[Resource]ColumnSet
}

// Grant returns the column set granted to the role for the operation on the
// resource. The second return is false when no such grant exists.
func (m *Matrix) Grant(role Role, resource Resource, op Operation) (ColumnSet, bool) {
	byResource, ok := m.grants[role]
	if !ok {
		return nil, false
	}
	byOp, ok := byResource[resource]
	if !ok {
		return nil, false
	}
	cols, ok := byOp[op]
	return cols, ok
}

// HasResource reports whether the role holds any grant at all on the
// resource, regardless of operation.
func (m *Matrix) HasResource(role Role, resource Resource) bool {
	byResource, ok := m.grants[role]
	if !ok {
		return false
	}
	byOp, ok := byResource[resource]
	return ok && len(byOp) > 0
}

// Immutable returns the columns of the resource that no grantable role may
// ever write. Derived from the matrix on load: a column with no update or
// insert grant across all roles is frozen for everyone, the admin bypass
// included. price_at_order and credit_card always land here.
func (m *Matrix) Immutable(resource Resource) ColumnSet {
	return m.immutable[resource]
}

// newMatrix wraps validated grants and derives the immutable column sets.
func newMatrix(grants map[Role]map[Resource]map[Operation]ColumnSet) *Matrix {
	m := &Matrix{
		grants:    grants,
		immutable: make(map[Resource]ColumnSet, len(resourceColumns)),
	}
	for resource, cols := range resourceColumns {
		writable := make(ColumnSet)
		for _, byResource := range grants {
			for op, colSet := range byResource[resource] {
				if op != OpUpdate && op != OpInsert {
					continue
				}
				for col := range colSet {
					writable[col] = struct{}{}
				}
			}
		}
		frozen := make(ColumnSet)
		for _, col := range cols {
			if !writable.Has(col) {
				frozen[col] = struct{}{}
			}
		}
		m.immutable[resource] = frozen
	}
	return m
}
