// Package postgres implements the document store on PostgreSQL using pgx.
//
// Event and user documents are stored as JSONB rows. Update runs its callback
// inside a SERIALIZABLE transaction and retries serialization failures, which
// gives the optimistic read-check-write semantics the services rely on:
// precondition checks re-run against fresh rows on every attempt.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lottos-app/lottos/internal/model"
	"github.com/lottos-app/lottos/internal/store"
)

// DefaultMaxRetries bounds the serialization-failure retry loop in Update.
const DefaultMaxRetries = 5

// Store is a PostgreSQL-backed document store.
type Store struct {
	db         *pgxpool.Pool
	maxRetries int
}

// New constructs a Store. A non-positive maxRetries falls back to
// DefaultMaxRetries.
func New(db *pgxpool.Pool, maxRetries int) *Store {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Store{db: db, maxRetries: maxRetries}
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getEvent(ctx context.Context, q querier, id string) (model.Event, error) {
	var raw []byte
	err := q.QueryRow(ctx, `SELECT doc FROM events WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Event{}, &store.NotFoundError{Collection: store.CollectionEvents, ID: id}
		}
		return model.Event{}, &store.TransportError{Err: fmt.Errorf("get event: %w", err)}
	}
	return decodeEvent(id, raw)
}

func getUser(ctx context.Context, q querier, id string) (model.User, error) {
	var raw []byte
	err := q.QueryRow(ctx, `SELECT doc FROM users WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, &store.NotFoundError{Collection: store.CollectionUsers, ID: id}
		}
		return model.User{}, &store.TransportError{Err: fmt.Errorf("get user: %w", err)}
	}
	return decodeUser(id, raw)
}

func decodeEvent(id string, raw []byte) (model.Event, error) {
	var event model.Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return model.Event{}, fmt.Errorf("decode event %q: %w", id, err)
	}
	if event.SchemaVersion != model.SchemaVersion {
		return model.Event{}, &store.SchemaError{Collection: store.CollectionEvents, ID: id, Version: event.SchemaVersion}
	}
	return event, nil
}

func decodeUser(id string, raw []byte) (model.User, error) {
	var user model.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return model.User{}, fmt.Errorf("decode user %q: %w", id, err)
	}
	if user.SchemaVersion != model.SchemaVersion {
		return model.User{}, &store.SchemaError{Collection: store.CollectionUsers, ID: id, Version: user.SchemaVersion}
	}
	return user, nil
}

// Event reads a single event document.
func (s *Store) Event(ctx context.Context, id string) (model.Event, error) {
	return getEvent(ctx, s.db, id)
}

// User reads a single user document.
func (s *Store) User(ctx context.Context, id string) (model.User, error) {
	return getUser(ctx, s.db, id)
}

// Events reads every event document, ordered by id for stable iteration.
func (s *Store) Events(ctx context.Context) ([]model.Event, error) {
	rows, err := s.db.Query(ctx, `SELECT id, doc FROM events ORDER BY id`)
	if err != nil {
		return nil, &store.TransportError{Err: fmt.Errorf("list events: %w", err)}
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		event, err := decodeEvent(id, raw)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// SetEventOpen writes the isOpen flag of one event in place. This is a
// single-field update on one row, so no surrounding transaction is needed.
func (s *Store) SetEventOpen(ctx context.Context, id string, open bool) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE events SET doc = jsonb_set(doc, '{isOpen}', to_jsonb($2::boolean)) WHERE id = $1`,
		id, open,
	)
	if err != nil {
		return &store.TransportError{Err: fmt.Errorf("set event open: %w", err)}
	}
	if tag.RowsAffected() == 0 {
		return &store.NotFoundError{Collection: store.CollectionEvents, ID: id}
	}
	return nil
}

// Update runs fn inside a SERIALIZABLE transaction. Serialization failures
// restart fn from scratch until the retry budget runs out, then surface as
// ConflictError. Any other error returned by fn aborts the transaction and
// is returned unchanged.
func (s *Store) Update(ctx context.Context, fn store.UpdateFunc) error {
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		err := s.updateOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !isSerializationFailure(err) {
			return err
		}
	}
	return &store.ConflictError{Attempts: s.maxRetries}
}

func (s *Store) updateOnce(ctx context.Context, fn store.UpdateFunc) error {
	pgtx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return &store.TransportError{Err: fmt.Errorf("begin transaction: %w", err)}
	}
	defer pgtx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := fn(ctx, &tx{pgtx: pgtx}); err != nil {
		return err
	}
	if err := pgtx.Commit(ctx); err != nil {
		if isSerializationFailure(err) {
			return err
		}
		return &store.TransportError{Err: fmt.Errorf("commit transaction: %w", err)}
	}
	return nil
}

// tx adapts a pgx transaction to the store.Tx interface.
type tx struct {
	pgtx pgx.Tx
}

func (t *tx) Event(ctx context.Context, id string) (model.Event, error) {
	return getEvent(ctx, t.pgtx, id)
}

func (t *tx) User(ctx context.Context, id string) (model.User, error) {
	return getUser(ctx, t.pgtx, id)
}

func (t *tx) PutEvent(ctx context.Context, event model.Event) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %q: %w", event.ID, err)
	}
	_, err = t.pgtx.Exec(ctx,
		`INSERT INTO events (id, doc) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`,
		event.ID, raw,
	)
	if err != nil {
		if isSerializationFailure(err) {
			return err
		}
		return &store.TransportError{Err: fmt.Errorf("put event: %w", err)}
	}
	return nil
}

func (t *tx) PutUser(ctx context.Context, user model.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user %q: %w", user.ID, err)
	}
	_, err = t.pgtx.Exec(ctx,
		`INSERT INTO users (id, doc) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`,
		user.ID, raw,
	)
	if err != nil {
		if isSerializationFailure(err) {
			return err
		}
		return &store.TransportError{Err: fmt.Errorf("put user: %w", err)}
	}
	return nil
}

// isSerializationFailure reports whether err is a snapshot conflict worth
// retrying: serialization_failure (40001) or deadlock_detected (40P01).
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
