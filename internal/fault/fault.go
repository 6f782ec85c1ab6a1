package fault

import (
	"errors"
	"fmt"
	"strings"
)

// FieldViolation names a single invalid request field and why it was rejected.
type FieldViolation struct {
	Field  string
	Reason string
}

func (v FieldViolation) String() string {
	return v.Field + ": " + v.Reason
}

// ValidationError reports every violated field of a request at once. It is
// raised before any side effect takes place.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidation builds a ValidationError from violation pairs.
func NewValidation(violations ...FieldViolation) *ValidationError {
	return &ValidationError{Violations: violations}
}

// ValidationBuilder accumulates field violations across a multi-field check.
type ValidationBuilder struct {
	violations []FieldViolation
}

// Add records a violation for the named field.
func (b *ValidationBuilder) Add(field, reason string) {
	b.violations = append(b.violations, FieldViolation{Field: field, Reason: reason})
}

// Addf records a violation with a formatted reason.
func (b *ValidationBuilder) Addf(field, format string, args ...any) {
	b.Add(field, fmt.Sprintf(format, args...))
}

// Err returns the accumulated ValidationError, or nil when every check passed.
func (b *ValidationBuilder) Err() error {
	if len(b.violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: b.violations}
}

// NotFoundError identifies a referenced record that does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// NewNotFound builds a NotFoundError for the given record kind and id.
func NewNotFound(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// ConcurrencyError reports a conflicting in-flight job or allocation race.
type ConcurrencyError struct {
	Detail string
}

func (e *ConcurrencyError) Error() string {
	if e.Detail == "" {
		return "concurrent operation conflict"
	}
	return e.Detail
}

// NewConcurrency builds a ConcurrencyError with a formatted detail message.
func NewConcurrency(format string, args ...any) *ConcurrencyError {
	return &ConcurrencyError{Detail: fmt.Sprintf(format, args...)}
}

// InvalidStateError reports an operation that is not legal for the record's
// current status.
type InvalidStateError struct {
	Operation string
	From      string
	To        string
}

func (e *InvalidStateError) Error() string {
	if e.To != "" {
		return fmt.Sprintf("%s: transition %s -> %s is not allowed", e.Operation, e.From, e.To)
	}
	return fmt.Sprintf("%s: not allowed while status is %s", e.Operation, e.From)
}

// NewInvalidState reports an operation rejected for the current status.
func NewInvalidState(operation, from string) *InvalidStateError {
	return &InvalidStateError{Operation: operation, From: from}
}

// NewInvalidTransition reports a rejected status transition.
func NewInvalidTransition(operation, from, to string) *InvalidStateError {
	return &InvalidStateError{Operation: operation, From: from, To: to}
}

// IOError wraps a filesystem or archive write failure.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// NewIO wraps err as an IOError for the given operation and path.
func NewIO(op, path string, err error) *IOError {
	return &IOError{Op: op, Path: path, Err: err}
}

// IntegrityError reports a checksum or size mismatch on a finished artifact.
type IntegrityError struct {
	Path   string
	Detail string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity check failed for %s: %s", e.Path, e.Detail)
}

// NewIntegrity builds an IntegrityError with a formatted detail message.
func NewIntegrity(path, format string, args ...any) *IntegrityError {
	return &IntegrityError{Path: path, Detail: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsConcurrency reports whether err is (or wraps) a ConcurrencyError.
func IsConcurrency(err error) bool {
	var target *ConcurrencyError
	return errors.As(err, &target)
}

// IsInvalidState reports whether err is (or wraps) an InvalidStateError.
func IsInvalidState(err error) bool {
	var target *InvalidStateError
	return errors.As(err, &target)
}

// IsIntegrity reports whether err is (or wraps) an IntegrityError.
func IsIntegrity(err error) bool {
	var target *IntegrityError
	return errors.As(err, &target)
}
