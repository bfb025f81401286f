package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lottos-app/lottos/internal/model"
	"github.com/lottos-app/lottos/internal/notify"
	"github.com/lottos-app/lottos/internal/store"
	"github.com/lottos-app/lottos/internal/store/memory"
)

var testNow = time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

type env struct {
	store *memory.Store
	log   *notify.MemoryLog
}

func newEnv() *env {
	return &env{store: memory.New(3), log: notify.NewMemoryLog()}
}

func (e *env) seedUser(t *testing.T, id string) {
	t.Helper()
	err := e.store.Update(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.PutUser(ctx, model.User{
			SchemaVersion: model.SchemaVersion,
			ID:            id,
			Name:          id,
			CreatedAt:     testNow,
		})
	})
	require.NoError(t, err)
}

// seedEvent stores an open event whose registration closes one hour from
// testNow and which starts in two. mutate adjusts the fixture per test.
func (e *env) seedEvent(t *testing.T, id string, mutate func(*model.Event)) {
	t.Helper()
	event := model.Event{
		SchemaVersion:   model.SchemaVersion,
		ID:              id,
		OrganizerID:     "organizer",
		Name:            "Swim Lessons " + id,
		StartTime:       testNow.Add(2 * time.Hour),
		EndTime:         testNow.Add(3 * time.Hour),
		RegisterEndTime: testNow.Add(time.Hour),
		IsOpen:          true,
		CreatedAt:       testNow,
	}
	if mutate != nil {
		mutate(&event)
	}
	err := e.store.Update(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.PutEvent(ctx, event)
	})
	require.NoError(t, err)
}

func (e *env) event(t *testing.T, id string) model.Event {
	t.Helper()
	event, err := e.store.Event(context.Background(), id)
	require.NoError(t, err)
	return event
}

func (e *env) user(t *testing.T, id string) model.User {
	t.Helper()
	user, err := e.store.User(context.Background(), id)
	require.NoError(t, err)
	return user
}

// requireExclusive asserts the mutual-exclusion invariant: every user known
// to the event sits in at most one membership list.
func requireExclusive(t *testing.T, event model.Event) {
	t.Helper()
	counts := make(map[string]int)
	for _, list := range []model.UserList{
		event.WaitList, event.SelectedList, event.NotSelectedList, event.EnrolledList, event.CancelledList,
	} {
		for _, id := range list.Users {
			counts[id]++
		}
	}
	for id, n := range counts {
		require.Equal(t, 1, n, "user %q must appear in exactly one membership list", id)
	}
}
