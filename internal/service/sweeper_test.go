package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lottos-app/lottos/internal/model"
	"github.com/lottos-app/lottos/internal/store"
)

func TestLifecycleSweepCorrectsDrift(t *testing.T) {
	e := newEnv()
	// Still open but the deadline passed: must close.
	e.seedEvent(t, "stale-open", func(ev *model.Event) {
		ev.RegisterEndTime = testNow.Add(-time.Minute)
		ev.IsOpen = true
	})
	// Closed but the deadline is ahead: must reopen.
	e.seedEvent(t, "stale-closed", func(ev *model.Event) {
		ev.RegisterEndTime = testNow.Add(time.Hour)
		ev.IsOpen = false
	})
	// Already correct: untouched.
	e.seedEvent(t, "fresh", nil)
	// Lottery already ran: stays closed no matter the deadline.
	e.seedEvent(t, "drawn", func(ev *model.Event) {
		ev.RegisterEndTime = testNow.Add(time.Hour)
		ev.IsOpen = false
		ev.IsLotteryRun = true
	})

	svc := NewLifecycleSweeper(e.store).WithClock(testClock)
	corrected, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, corrected)

	assert.False(t, e.event(t, "stale-open").IsOpen)
	assert.True(t, e.event(t, "stale-closed").IsOpen)
	assert.True(t, e.event(t, "fresh").IsOpen)
	assert.False(t, e.event(t, "drawn").IsOpen, "a drawn event must never reopen")
}

func TestLifecycleSweepIdempotent(t *testing.T) {
	e := newEnv()
	e.seedEvent(t, "e1", func(ev *model.Event) {
		ev.RegisterEndTime = testNow.Add(-time.Minute)
		ev.IsOpen = true
	})
	svc := NewLifecycleSweeper(e.store).WithClock(testClock)

	first, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first)
	stateAfterFirst := e.event(t, "e1")

	second, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second, "second sweep at the same instant corrects nothing")
	assert.Equal(t, stateAfterFirst, e.event(t, "e1"))
}

// seedStartedEvent stores an event that has started with the given users
// still pending in selected, mirrored on the user side.
func seedStartedEvent(t *testing.T, e *env, id string, pending []string) {
	t.Helper()
	for _, userID := range pending {
		e.seedUser(t, userID)
	}
	e.seedEvent(t, id, func(ev *model.Event) {
		ev.StartTime = testNow.Add(-time.Hour)
		ev.RegisterEndTime = testNow.Add(-2 * time.Hour)
		ev.IsOpen = false
		ev.IsLotteryRun = true
		for _, userID := range pending {
			ev.SelectedList.Add(userID)
		}
	})
	err := e.store.Update(context.Background(), func(ctx context.Context, tx store.Tx) error {
		for _, userID := range pending {
			user, err := tx.User(ctx, userID)
			if err != nil {
				return err
			}
			user.Selected.Add(id)
			if err := tx.PutUser(ctx, user); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestExpirySweepForfeitsPendingInvitations(t *testing.T) {
	e := newEnv()
	seedStartedEvent(t, e, "e1", []string{"A", "B"})

	svc := NewExpirySweeper(e.store, e.log).WithClock(testClock)
	report, err := svc.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.EventsSwept)
	assert.Equal(t, 2, report.Forfeited)
	assert.Empty(t, report.FailedIDs)

	event := e.event(t, "e1")
	assert.Empty(t, event.SelectedList.Users)
	assert.True(t, event.CancelledList.Contains("A"))
	assert.True(t, event.CancelledList.Contains("B"))
	requireExclusive(t, event)

	for _, userID := range []string{"A", "B"} {
		assert.False(t, e.user(t, userID).Selected.Contains("e1"))
	}

	records := e.log.All()
	require.Len(t, records, 2, "exactly one forfeiture notification per affected user")
	receivers := map[string]bool{}
	for _, r := range records {
		receivers[r.ReceiverID] = true
		assert.Contains(t, r.Content, "forfeited")
	}
	assert.True(t, receivers["A"])
	assert.True(t, receivers["B"])
}

func TestExpirySweepSkipsFutureAndSettledEvents(t *testing.T) {
	e := newEnv()
	// Not started yet: pending invitations survive.
	e.seedUser(t, "alice")
	e.seedEvent(t, "future", func(ev *model.Event) {
		ev.IsOpen = false
		ev.IsLotteryRun = true
		ev.SelectedList.Add("alice")
	})
	// Started but nothing pending: nothing to do.
	e.seedEvent(t, "settled", func(ev *model.Event) {
		ev.StartTime = testNow.Add(-time.Hour)
		ev.IsOpen = false
		ev.IsLotteryRun = true
		ev.EnrolledList.Add("alice")
	})

	report, err := NewExpirySweeper(e.store, e.log).WithClock(testClock).Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, report.EventsSwept)
	assert.Equal(t, 0, report.Forfeited)
	assert.True(t, e.event(t, "future").SelectedList.Contains("alice"))
	assert.Empty(t, e.log.All())
}

func TestExpirySweepIdempotent(t *testing.T) {
	e := newEnv()
	seedStartedEvent(t, e, "e1", []string{"A"})
	svc := NewExpirySweeper(e.store, e.log).WithClock(testClock)

	_, err := svc.Sweep(context.Background())
	require.NoError(t, err)

	report, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Forfeited, "second sweep finds nothing pending")
	assert.Len(t, e.log.All(), 1, "no duplicate notifications on re-sweep")
}

// One poisoned event must not block the others: conflicts exhaust the retry
// budget for the first transaction, and the sweep carries on.
func TestExpirySweepIsolatesEventFailures(t *testing.T) {
	e := newEnv()
	seedStartedEvent(t, e, "e1", []string{"A"})
	seedStartedEvent(t, e, "e2", []string{"B"})

	// Events are swept in id order; sink the first event's transaction.
	e.store.InjectConflicts(3)

	report, err := NewExpirySweeper(e.store, e.log).WithClock(testClock).Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"e1"}, report.FailedIDs)
	assert.Equal(t, 1, report.EventsSwept)
	assert.Equal(t, 1, report.Forfeited)
	assert.True(t, e.event(t, "e1").SelectedList.Contains("A"), "failed event keeps its pending invitation")
	assert.Empty(t, e.event(t, "e2").SelectedList.Users)
}
