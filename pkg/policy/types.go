// Package policy defines the column/operation-scoped access matrix for the
// bookstore schema: which role may perform which operation on which columns
// of which resource. The matrix is loaded once at startup and is immutable
// afterwards.
package policy

import "sort"

// Role is a named bundle of grants assumed by an authenticated caller.
type Role string

const (
	RoleSalesRep         Role = "sales_rep"
	RoleCustomerService  Role = "customer_service"
	RoleInventoryManager Role = "inventory_manager"

	// RoleAdmin is the superuser bypass role. It never appears in policy
	// files; the evaluator special-cases it.
	RoleAdmin Role = "admin"
)

// Resource identifies one of the four bookstore tables.
type Resource string

const (
	ResourceBooks      Resource = "books"
	ResourceCustomers  Resource = "customers"
	ResourceOrders     Resource = "orders"
	ResourceOrderItems Resource = "order_items"
)

// Operation is a data-access verb. Delete exists in the taxonomy but no
// role is ever granted it.
type Operation string

const (
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpInsert Operation = "insert"
	OpDelete Operation = "delete"
)

// Roles lists the grantable roles, excluding the admin bypass.
func Roles() []Role {
	return []Role{RoleSalesRep, RoleCustomerService, RoleInventoryManager}
}

// Resources lists the schema resources in a stable order.
func Resources() []Resource {
	return []Resource{ResourceBooks, ResourceCustomers, ResourceOrders, ResourceOrderItems}
}

// Operations lists the known operations.
func Operations() []Operation {
	return []Operation{OpRead, OpUpdate, OpInsert, OpDelete}
}

// ColumnSet is an unordered set of column names.
type ColumnSet map[string]struct{}

// NewColumnSet builds a set from the given names.
func NewColumnSet(names ...string) ColumnSet {
	set := make(ColumnSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// Has reports whether the set contains the column.
func (s ColumnSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Slice returns the columns sorted alphabetically.
func (s ColumnSet) Slice() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
