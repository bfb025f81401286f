package store

import "fmt"

// NotFoundError is returned when a requested document does not exist.
type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s/%s: not found", e.Collection, e.ID)
}

// ConflictError is returned when a transaction kept colliding with
// concurrent writers and the retry budget ran out. The operation performed
// no writes; the caller may re-issue it.
type ConflictError struct {
	Attempts int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("transaction aborted after %d conflicting attempts", e.Attempts)
}

// TransportError wraps a store connectivity failure. It is surfaced verbatim
// so callers can distinguish "unreachable" from domain failures.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("store unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// SchemaError is returned when a stored document carries a schema version
// this build does not understand.
type SchemaError struct {
	Collection string
	ID         string
	Version    int
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s/%s: unsupported schema version %d", e.Collection, e.ID, e.Version)
}
