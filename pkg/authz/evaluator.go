// Package authz implements the access control matrix evaluator: a pure
// decision function over (role, resource, operation, columns) backed by an
// immutable policy matrix.
package authz

import (
	"github.com/bookwise/bookguard/pkg/policy"
)

// Evaluator decides whether a (role, resource, operation, columns) request
// is permitted. It holds no mutable state and is safe for concurrent use.
type Evaluator struct {
	matrix *policy.Matrix
}

// NewEvaluator creates an evaluator over the given matrix.
func NewEvaluator(matrix *policy.Matrix) *Evaluator {
	return &Evaluator{matrix: matrix}
}

// Projection is the column-restricted view an allowed read resolves to.
type Projection struct {
	Resource policy.Resource
	Columns  []string
}

// Authorize resolves a request in a fixed order: resource grant first, then
// operation grant, then every requested column. The first failing check
// denies the whole request; there is no partial projection and no partial
// update.
func (e *Evaluator) Authorize(role policy.Role, resource policy.Resource, op policy.Operation, columns []string) (Projection, error) {
	switch op {
	case policy.OpRead:
		return e.AuthorizeRead(role, resource, columns)
	case policy.OpUpdate:
		if err := e.AuthorizeUpdate(role, resource, columns); err != nil {
			return Projection{}, err
		}
		return Projection{Resource: resource, Columns: columns}, nil
	case policy.OpInsert:
		if err := e.AuthorizeInsert(role, resource, columns); err != nil {
			return Projection{}, err
		}
		return Projection{Resource: resource, Columns: columns}, nil
	default:
		return Projection{}, e.denyOperation(role, resource, op)
	}
}

// AuthorizeRead authorizes a read of the given columns. An empty column
// request resolves to the role's full granted set for the resource, in
// schema order.
func (e *Evaluator) AuthorizeRead(role policy.Role, resource policy.Resource, columns []string) (Projection, error) {
	if role == policy.RoleAdmin {
		if !policy.KnownResource(resource) {
			return Projection{}, &AccessError{
				Code:      CodeResourceAccessDenied,
				Role:      role,
				Resource:  resource,
				Operation: policy.OpRead,
			}
		}
		return Projection{Resource: resource, Columns: projected(resource, policy.NewColumnSet(policy.SchemaColumns(resource)...), columns)}, nil
	}
	granted, err := e.grantFor(role, resource, policy.OpRead)
	if err != nil {
		return Projection{}, err
	}
	for _, col := range columns {
		if !granted.Has(col) {
			return Projection{}, &AccessError{
				Code:      CodeColumnAccessDenied,
				Role:      role,
				Resource:  resource,
				Operation: policy.OpRead,
				Column:    col,
			}
		}
	}
	return Projection{Resource: resource, Columns: projected(resource, granted, columns)}, nil
}

// AuthorizeUpdate authorizes an update touching the given columns. The
// resource and operation grants resolve first; then a column nobody may
// ever write fails with ImmutableFieldViolation — for every role, the
// admin bypass included — and a column outside the role's whitelist fails
// with ColumnAccessDenied. Either way the whole update is rejected.
func (e *Evaluator) AuthorizeUpdate(role policy.Role, resource policy.Resource, columns []string) error {
	frozen := e.matrix.Immutable(resource)
	if role == policy.RoleAdmin {
		if !policy.KnownResource(resource) {
			return &AccessError{
				Code:      CodeResourceAccessDenied,
				Role:      role,
				Resource:  resource,
				Operation: policy.OpUpdate,
			}
		}
		for _, col := range columns {
			if frozen.Has(col) {
				return &AccessError{
					Code:      CodeImmutableFieldViolation,
					Role:      role,
					Resource:  resource,
					Operation: policy.OpUpdate,
					Column:    col,
				}
			}
		}
		return nil
	}
	granted, err := e.grantFor(role, resource, policy.OpUpdate)
	if err != nil {
		return err
	}
	for _, col := range columns {
		if frozen.Has(col) {
			return &AccessError{
				Code:      CodeImmutableFieldViolation,
				Role:      role,
				Resource:  resource,
				Operation: policy.OpUpdate,
				Column:    col,
			}
		}
		if !granted.Has(col) {
			return &AccessError{
				Code:      CodeColumnAccessDenied,
				Role:      role,
				Resource:  resource,
				Operation: policy.OpUpdate,
				Column:    col,
			}
		}
	}
	return nil
}

// AuthorizeInsert authorizes an insert supplying the given columns.
func (e *Evaluator) AuthorizeInsert(role policy.Role, resource policy.Resource, columns []string) error {
	if role == policy.RoleAdmin {
		if !policy.KnownResource(resource) {
			return &AccessError{
				Code:      CodeResourceAccessDenied,
				Role:      role,
				Resource:  resource,
				Operation: policy.OpInsert,
			}
		}
		return nil
	}
	granted, err := e.grantFor(role, resource, policy.OpInsert)
	if err != nil {
		return err
	}
	for _, col := range columns {
		if !granted.Has(col) {
			return &AccessError{
				Code:      CodeColumnAccessDenied,
				Role:      role,
				Resource:  resource,
				Operation: policy.OpInsert,
				Column:    col,
			}
		}
	}
	return nil
}

// grantFor resolves checks (a) and (b): resource-level grant, then
// operation-level grant.
func (e *Evaluator) grantFor(role policy.Role, resource policy.Resource, op policy.Operation) (policy.ColumnSet, error) {
	if !e.matrix.HasResource(role, resource) {
		return nil, &AccessError{
			Code:      CodeResourceAccessDenied,
			Role:      role,
			Resource:  resource,
			Operation: op,
		}
	}
	granted, ok := e.matrix.Grant(role, resource, op)
	if !ok {
		return nil, e.denyOperation(role, resource, op)
	}
	return granted, nil
}

func (e *Evaluator) denyOperation(role policy.Role, resource policy.Resource, op policy.Operation) error {
	if !e.matrix.HasResource(role, resource) && role != policy.RoleAdmin {
		return &AccessError{
			Code:      CodeResourceAccessDenied,
			Role:      role,
			Resource:  resource,
			Operation: op,
		}
	}
	return &AccessError{
		Code:      CodeOperationDenied,
		Role:      role,
		Resource:  resource,
		Operation: op,
	}
}

// projected materializes an allowed read: the requested columns in request
// order, or the full granted set in schema order when the request named no
// columns.
func projected(resource policy.Resource, granted policy.ColumnSet, requested []string) []string {
	if len(requested) > 0 {
		out := make([]string, len(requested))
		copy(out, requested)
		return out
	}
	out := make([]string, 0, len(granted))
	for _, col := range policy.SchemaColumns(resource) {
		if granted.Has(col) {
			out = append(out, col)
		}
	}
	return out
}
