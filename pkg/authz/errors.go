package authz

import (
	"errors"
	"fmt"

	"github.com/bookwise/bookguard/pkg/policy"
)

// Code identifies which check a denial came from. The first three are
// detected locally by the evaluator before the store is touched; the last
// two are surfaced by the store when a constraint fires.
type Code string

const (
	CodeResourceAccessDenied    Code = "RESOURCE_ACCESS_DENIED"
	CodeOperationDenied         Code = "OPERATION_DENIED"
	CodeColumnAccessDenied      Code = "COLUMN_ACCESS_DENIED"
	CodeReferentialViolation    Code = "REFERENTIAL_VIOLATION"
	CodeImmutableFieldViolation Code = "IMMUTABLE_FIELD_VIOLATION"
)

// AccessError reports a denied request. It names the check that failed and
// the subject of the failure but never carries data values, so a denial on
// credit_card states the column without echoing its content.
type AccessError struct {
	Code      Code
	Role      policy.Role
	Resource  policy.Resource
	Operation policy.Operation
	Column    string
	Err       error
}

func (e *AccessError) Error() string {
	switch e.Code {
	case CodeResourceAccessDenied:
		return fmt.Sprintf("%s: role %q has no grants on %q", e.Code, e.Role, e.Resource)
	case CodeOperationDenied:
		return fmt.Sprintf("%s: role %q may not %s on %q", e.Code, e.Role, e.Operation, e.Resource)
	case CodeColumnAccessDenied:
		return fmt.Sprintf("%s: role %q may not %s column %s.%s", e.Code, e.Role, e.Operation, e.Resource, e.Column)
	case CodeImmutableFieldViolation:
		return fmt.Sprintf("%s: column %s.%s is immutable", e.Code, e.Resource, e.Column)
	case CodeReferentialViolation:
		return fmt.Sprintf("%s: write on %q references a missing parent row", e.Code, e.Resource)
	default:
		return fmt.Sprintf("%s: access denied on %q", e.Code, e.Resource)
	}
}

func (e *AccessError) Unwrap() error {
	return e.Err
}

// CodeOf extracts the denial code from an error chain, or "" when the error
// is not an access denial.
func CodeOf(err error) Code {
	var accessErr *AccessError
	if errors.As(err, &accessErr) {
		return accessErr.Code
	}
	return ""
}

// IsDenied reports whether the error is any kind of access denial.
func IsDenied(err error) bool {
	return CodeOf(err) != ""
}
