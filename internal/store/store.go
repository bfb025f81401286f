// Package store defines the transactional document store consumed by the
// registration services, plus the typed errors every implementation returns.
//
// Implementations must provide atomic multi-document transactions with
// optimistic conflict detection: Update re-runs its callback from scratch on
// every conflict so precondition checks are re-evaluated against fresh
// documents, up to a bounded retry budget.
package store

import (
	"context"

	"github.com/lottos-app/lottos/internal/model"
)

// Collection names used in NotFoundError values.
const (
	CollectionEvents = "events"
	CollectionUsers  = "users"
)

// Tx is the view of a single in-flight transaction. Reads observe one logical
// snapshot; writes are staged and become visible only if the whole
// transaction commits.
type Tx interface {
	// Event reads an event document inside the transaction.
	Event(ctx context.Context, id string) (model.Event, error)

	// User reads a user document inside the transaction.
	User(ctx context.Context, id string) (model.User, error)

	// PutEvent stages an upsert of the event document.
	PutEvent(ctx context.Context, event model.Event) error

	// PutUser stages an upsert of the user document.
	PutUser(ctx context.Context, user model.User) error
}

// UpdateFunc is the body of a transaction. Returning an error aborts the
// transaction with no partial writes; the error is surfaced to the caller
// unchanged. The function may run more than once and must be free of side
// effects other than through the Tx.
type UpdateFunc func(ctx context.Context, tx Tx) error

// Store is the document store the services depend on.
type Store interface {
	// Event reads a single event document.
	Event(ctx context.Context, id string) (model.Event, error)

	// User reads a single user document.
	User(ctx context.Context, id string) (model.User, error)

	// Events reads every event document. Used by the sweepers.
	Events(ctx context.Context) ([]model.Event, error)

	// SetEventOpen writes the isOpen flag of one event as an independent
	// single-field update. Idempotent and safe under concurrent callers.
	SetEventOpen(ctx context.Context, id string, open bool) error

	// Update runs fn inside one atomic transaction, retrying on optimistic
	// conflicts until the retry budget is exhausted.
	Update(ctx context.Context, fn UpdateFunc) error
}
