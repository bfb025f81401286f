// Package memory implements the document store on in-process maps.
//
// It exists so service and handler tests can run against real store
// semantics (snapshot reads, staged writes, conflict surfacing) without a
// database, and doubles as a local development backend.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/lottos-app/lottos/internal/model"
	"github.com/lottos-app/lottos/internal/store"
)

// Store is a mutex-guarded in-memory document store.
type Store struct {
	mu               sync.Mutex
	events           map[string]model.Event
	users            map[string]model.User
	pendingConflicts int
	maxRetries       int
}

// New constructs an empty Store with the given conflict retry budget.
func New(maxRetries int) *Store {
	if maxRetries <= 0 {
		maxRetries = 1
	}
	return &Store{
		events:     make(map[string]model.Event),
		users:      make(map[string]model.User),
		maxRetries: maxRetries,
	}
}

// InjectConflicts makes the next n commit attempts fail with a simulated
// optimistic conflict. Used to exercise the ConflictError path in tests.
func (s *Store) InjectConflicts(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingConflicts = n
}

// Event reads a single event document.
func (s *Store) Event(ctx context.Context, id string) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if !ok {
		return model.Event{}, &store.NotFoundError{Collection: store.CollectionEvents, ID: id}
	}
	if err := checkEventSchema(event); err != nil {
		return model.Event{}, err
	}
	return cloneEvent(event), nil
}

// User reads a single user document.
func (s *Store) User(ctx context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return model.User{}, &store.NotFoundError{Collection: store.CollectionUsers, ID: id}
	}
	if err := checkUserSchema(user); err != nil {
		return model.User{}, err
	}
	return cloneUser(user), nil
}

// Events reads every event document, ordered by id for stable iteration.
func (s *Store) Events(ctx context.Context) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]model.Event, 0, len(s.events))
	for _, event := range s.events {
		if err := checkEventSchema(event); err != nil {
			return nil, err
		}
		events = append(events, cloneEvent(event))
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events, nil
}

// SetEventOpen writes the isOpen flag of one event in place.
func (s *Store) SetEventOpen(ctx context.Context, id string, open bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if !ok {
		return &store.NotFoundError{Collection: store.CollectionEvents, ID: id}
	}
	event.IsOpen = open
	s.events[id] = event
	return nil
}

// Update runs fn against staged copies of the documents under the store
// mutex, committing the staged writes only when fn succeeds. Injected
// conflicts restart fn, mirroring the optimistic retry loop of the
// PostgreSQL adapter.
func (s *Store) Update(ctx context.Context, fn store.UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		t := &tx{store: s, events: make(map[string]model.Event), users: make(map[string]model.User)}
		if err := fn(ctx, t); err != nil {
			return err
		}
		if s.pendingConflicts > 0 {
			s.pendingConflicts--
			continue
		}
		for id, event := range t.events {
			s.events[id] = event
		}
		for id, user := range t.users {
			s.users[id] = user
		}
		return nil
	}
	return &store.ConflictError{Attempts: s.maxRetries}
}

// tx stages writes for one Update attempt. Reads observe staged writes
// first, then the committed state — the same read-your-writes view a
// database transaction provides.
type tx struct {
	store  *Store
	events map[string]model.Event
	users  map[string]model.User
}

func (t *tx) Event(ctx context.Context, id string) (model.Event, error) {
	if event, ok := t.events[id]; ok {
		return cloneEvent(event), nil
	}
	event, ok := t.store.events[id]
	if !ok {
		return model.Event{}, &store.NotFoundError{Collection: store.CollectionEvents, ID: id}
	}
	if err := checkEventSchema(event); err != nil {
		return model.Event{}, err
	}
	return cloneEvent(event), nil
}

func (t *tx) User(ctx context.Context, id string) (model.User, error) {
	if user, ok := t.users[id]; ok {
		return cloneUser(user), nil
	}
	user, ok := t.store.users[id]
	if !ok {
		return model.User{}, &store.NotFoundError{Collection: store.CollectionUsers, ID: id}
	}
	if err := checkUserSchema(user); err != nil {
		return model.User{}, err
	}
	return cloneUser(user), nil
}

func (t *tx) PutEvent(ctx context.Context, event model.Event) error {
	t.events[event.ID] = cloneEvent(event)
	return nil
}

func (t *tx) PutUser(ctx context.Context, user model.User) error {
	t.users[user.ID] = cloneUser(user)
	return nil
}

func checkEventSchema(event model.Event) error {
	if event.SchemaVersion != model.SchemaVersion {
		return &store.SchemaError{Collection: store.CollectionEvents, ID: event.ID, Version: event.SchemaVersion}
	}
	return nil
}

func checkUserSchema(user model.User) error {
	if user.SchemaVersion != model.SchemaVersion {
		return &store.SchemaError{Collection: store.CollectionUsers, ID: user.ID, Version: user.SchemaVersion}
	}
	return nil
}

func cloneEvent(event model.Event) model.Event {
	out := event
	if event.WaitlistCap != nil {
		cap := *event.WaitlistCap
		out.WaitlistCap = &cap
	}
	out.WaitList.Users = cloneStrings(event.WaitList.Users)
	out.SelectedList.Users = cloneStrings(event.SelectedList.Users)
	out.NotSelectedList.Users = cloneStrings(event.NotSelectedList.Users)
	out.EnrolledList.Users = cloneStrings(event.EnrolledList.Users)
	out.CancelledList.Users = cloneStrings(event.CancelledList.Users)
	return out
}

func cloneUser(user model.User) model.User {
	out := user
	out.Waitlisted.Events = cloneStrings(user.Waitlisted.Events)
	out.Selected.Events = cloneStrings(user.Selected.Events)
	out.NotSelected.Events = cloneStrings(user.NotSelected.Events)
	out.Declined.Events = cloneStrings(user.Declined.Events)
	out.Enrolled.Events = cloneStrings(user.Enrolled.Events)
	out.Organized.Events = cloneStrings(user.Organized.Events)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
