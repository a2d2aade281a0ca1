package schema

import "fmt"

// ErrorCode identifies the invariant a hard schema error violated.
type ErrorCode string

// Hard error codes. These abort the current operation immediately, unlike
// violations, which are accumulated during transaction validation.
const (
	// ErrMissingAttribute marks an entry missing a required attribute.
	ErrMissingAttribute ErrorCode = "missing_attribute"
	// ErrInvalidOID marks an OID that is not numeric dotted form in strict mode.
	ErrInvalidOID ErrorCode = "invalid_oid"
	// ErrInvalidValue marks a malformed attribute value.
	ErrInvalidValue ErrorCode = "invalid_value"
	// ErrUnknownExtension marks an implementation key with no registered
	// extension, or an extension that failed to instantiate.
	ErrUnknownExtension ErrorCode = "unknown_extension"
	// ErrOIDMismatch marks a prototype-resolved extension whose default OID
	// differs from the declared one.
	ErrOIDMismatch ErrorCode = "oid_mismatch"
	// ErrUnknownSchema marks an operation naming a schema the manager does
	// not know.
	ErrUnknownSchema ErrorCode = "unknown_schema"
	// ErrNotLoaded marks an operation requiring a loaded schema.
	ErrNotLoaded ErrorCode = "not_loaded"
	// ErrDependencyCycle marks a cyclic schema dependency graph.
	ErrDependencyCycle ErrorCode = "dependency_cycle"
	// ErrUnknownKind marks a record with an unsupported schema object kind.
	ErrUnknownKind ErrorCode = "unknown_kind"
)

// Error is a typed hard failure surfaced by the factory and manager.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("schema: %s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("schema: %s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause.
func (e *Error) Unwrap() error { return e.Err }

// Is matches errors by code.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	return ok && other.Code == e.Code
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewError builds a typed schema error.
func NewError(code ErrorCode, format string, args ...any) *Error {
	return newError(code, format, args...)
}

// WrapError builds a typed schema error around a cause.
func WrapError(code ErrorCode, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// ViolationCode identifies a structural problem found while validating a
// staged transaction.
type ViolationCode string

// Violation codes accumulated by registry validation.
const (
	// ViolationDuplicateOID reports an OID already claimed in the catalog.
	ViolationDuplicateOID ViolationCode = "duplicate_oid"
	// ViolationDanglingReference reports a reference with no resolvable target.
	ViolationDanglingReference ViolationCode = "dangling_reference"
	// ViolationDisabledReference reports an enabled object referencing a
	// disabled one under strict mode.
	ViolationDisabledReference ViolationCode = "disabled_reference"
	// ViolationStillReferenced reports a delete blocked by live referencers.
	ViolationStillReferenced ViolationCode = "still_referenced"
	// ViolationUnknownSchema reports an object owned by an unknown schema.
	ViolationUnknownSchema ViolationCode = "unknown_schema"
	// ViolationSchemaRequired reports an unload blocked by loaded dependents.
	ViolationSchemaRequired ViolationCode = "schema_required"
)

// Violation reports one structural problem in a candidate mutation.
type Violation struct {
	Code       ViolationCode `json:"code"`
	OID        OID           `json:"oid,omitempty"`
	SchemaName string        `json:"schema,omitempty"`
	Message    string        `json:"message"`
}

// String renders the violation for logs and CLI output.
func (v Violation) String() string {
	out := string(v.Code)
	if v.OID != "" {
		out += " [" + string(v.OID) + "]"
	}
	if v.SchemaName != "" {
		out += " (" + v.SchemaName + ")"
	}
	return out + ": " + v.Message
}

// Result aggregates the violations found during one validation pass. A
// transaction commits iff its result is clean; validation collects every
// problem rather than stopping at the first.
type Result struct {
	Violations []Violation
}

// Add appends a violation.
func (r *Result) Add(v Violation) {
	r.Violations = append(r.Violations, v)
}

// Addf appends a violation built from a format string.
func (r *Result) Addf(code ViolationCode, oid OID, schemaName, format string, args ...any) {
	r.Add(Violation{Code: code, OID: oid, SchemaName: schemaName, Message: fmt.Sprintf(format, args...)})
}

// Merge appends all violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// OK reports whether the result is clean.
func (r Result) OK() bool { return len(r.Violations) == 0 }

// TransactionError is returned when a staged transaction is rejected; the
// live catalog is untouched and the result carries every violation found.
type TransactionError struct {
	Result Result
}

// Error implements the error interface.
func (e TransactionError) Error() string {
	return fmt.Sprintf("schema: transaction rejected with %d violation(s)", len(e.Result.Violations))
}
