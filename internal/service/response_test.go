package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lottos-app/lottos/internal/model"
	"github.com/lottos-app/lottos/internal/store"
)

// seedInvitation stores an event with the user pending in selected, mirrored
// on the user side.
func seedInvitation(t *testing.T, e *env, eventID, userID string) {
	t.Helper()
	e.seedUser(t, userID)
	e.seedEvent(t, eventID, func(ev *model.Event) {
		ev.IsOpen = false
		ev.IsLotteryRun = true
		ev.SelectedList.Add(userID)
	})
	err := e.store.Update(context.Background(), func(ctx context.Context, tx store.Tx) error {
		user, err := tx.User(ctx, userID)
		if err != nil {
			return err
		}
		user.Selected.Add(eventID)
		return tx.PutUser(ctx, user)
	})
	require.NoError(t, err)
}

func TestAcceptMovesToEnrolled(t *testing.T) {
	e := newEnv()
	seedInvitation(t, e, "e1", "alice")

	require.NoError(t, NewResponse(e.store).Accept(context.Background(), "e1", "alice"))

	event := e.event(t, "e1")
	assert.False(t, event.SelectedList.Contains("alice"))
	assert.True(t, event.EnrolledList.Contains("alice"))
	requireExclusive(t, event)

	user := e.user(t, "alice")
	assert.False(t, user.Selected.Contains("e1"))
	assert.True(t, user.Enrolled.Contains("e1"))
}

func TestDeclineMovesToCancelled(t *testing.T) {
	e := newEnv()
	seedInvitation(t, e, "e1", "alice")

	require.NoError(t, NewResponse(e.store).Decline(context.Background(), "e1", "alice"))

	event := e.event(t, "e1")
	assert.False(t, event.SelectedList.Contains("alice"))
	assert.True(t, event.CancelledList.Contains("alice"))
	requireExclusive(t, event)

	user := e.user(t, "alice")
	assert.False(t, user.Selected.Contains("e1"))
	assert.True(t, user.Declined.Contains("e1"))
	assert.False(t, user.Enrolled.Contains("e1"))
}

func TestRespondRequiresPendingInvitation(t *testing.T) {
	e := newEnv()
	e.seedUser(t, "alice")
	e.seedEvent(t, "e1", func(ev *model.Event) {
		ev.IsOpen = false
		ev.IsLotteryRun = true
		ev.NotSelectedList.Add("alice")
	})
	svc := NewResponse(e.store)

	var precond *PreconditionError

	err := svc.Accept(context.Background(), "e1", "alice")
	require.ErrorAs(t, err, &precond)
	assert.Equal(t, ReasonNotSelected, precond.Reason)

	err = svc.Decline(context.Background(), "e1", "alice")
	require.ErrorAs(t, err, &precond)
	assert.Equal(t, ReasonNotSelected, precond.Reason)
}

// A second submission finds the user already moved out of selected and must
// fail rather than double-apply.
func TestRespondDoubleSubmission(t *testing.T) {
	e := newEnv()
	seedInvitation(t, e, "e1", "alice")
	svc := NewResponse(e.store)

	require.NoError(t, svc.Accept(context.Background(), "e1", "alice"))

	var precond *PreconditionError
	err := svc.Accept(context.Background(), "e1", "alice")
	require.ErrorAs(t, err, &precond)
	assert.Equal(t, ReasonNotSelected, precond.Reason)

	event := e.event(t, "e1")
	assert.True(t, event.EnrolledList.Contains("alice"))
	requireExclusive(t, event)
}

func TestRespondMissingEvent(t *testing.T) {
	e := newEnv()

	var notFound *store.NotFoundError
	err := NewResponse(e.store).Accept(context.Background(), "ghost", "alice")
	require.ErrorAs(t, err, &notFound)
}
