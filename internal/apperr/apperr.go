// Package apperr defines the typed error taxonomy surfaced across the
// memory-store, search, graph, and lifecycle operations (spec §7): a stable
// kind, a human message, and contextual fields, so callers can switch on Kind
// without parsing error strings.
package apperr

import "fmt"

// Kind classifies an error for programmatic handling.
type Kind string

const (
	InvalidInput Kind = "invalid_input"
	NotFound     Kind = "not_found"
	Conflict     Kind = "conflict"
	Dependency   Kind = "dependency"
	Storage      Kind = "storage"
	Cancelled    Kind = "cancelled"
)

// Error is the concrete error type returned by every public operation.
type Error struct {
	Kind      Kind
	Message   string
	Operation string
	Fields    map[string]any
	Transient bool // only meaningful for Kind == Storage
	Cause     error
}

func (e *Error) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("%s: %s: %s", e.Operation, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs an *Error with the given kind and message.
func New(kind Kind, operation, message string) *Error {
	return &Error{Kind: kind, Operation: operation, Message: message}
}

// Wrap constructs an *Error carrying cause as the wrapped error.
func Wrap(kind Kind, operation, message string, cause error) *Error {
	return &Error{Kind: kind, Operation: operation, Message: message, Cause: cause}
}

// WithField returns a copy of e with a context field attached.
func (e *Error) WithField(key string, value any) *Error {
	cp := *e
	cp.Fields = make(map[string]any, len(e.Fields)+1)
	for k, v := range e.Fields {
		cp.Fields[k] = v
	}
	cp.Fields[key] = value
	return &cp
}

// TransientStorage marks a Storage error as transient (busy/lock contention)
// so callers know it is safe to retry with backoff.
func TransientStorage(operation, message string, cause error) *Error {
	e := Wrap(Storage, operation, message, cause)
	e.Transient = true
	return e
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	ae, ok := err.(*Error)
	if !ok {
		return false
	}
	return ae.Kind == kind
}

// NotFoundf builds a NotFound error with a formatted message.
func NotFoundf(operation, format string, args ...any) *Error {
	return New(NotFound, operation, fmt.Sprintf(format, args...))
}

// InvalidInputf builds an InvalidInput error with a formatted message.
func InvalidInputf(operation, format string, args ...any) *Error {
	return New(InvalidInput, operation, fmt.Sprintf(format, args...))
}

// Conflictf builds a Conflict error with a formatted message.
func Conflictf(operation, format string, args ...any) *Error {
	return New(Conflict, operation, fmt.Sprintf(format, args...))
}
