// Package service implements the registration lifecycle: waitlist
// transitions, the lottery run, invitation responses, and the two
// reconciliation sweeps. Every state change goes through a store
// transaction so event-side and user-side memberships stay mirror images.
package service

import (
	"context"
	"time"

	"github.com/lottos-app/lottos/internal/store"
)

// Clock supplies the current time. Injected so tests can pin it.
type Clock func() time.Time

// Waitlist moves entrants on and off an event's waitlist.
type Waitlist struct {
	store store.Store
}

// NewWaitlist constructs a Waitlist service.
func NewWaitlist(st store.Store) *Waitlist {
	return &Waitlist{store: st}
}

// Join adds the user to the event's waitlist and the event to the user's
// waitlisted set in one transaction. The capacity check and the append run
// inside the same transaction, so two racing joiners cannot both pass the
// check and overflow the cap: the store retries the loser against fresh
// documents and the re-run check rejects it.
func (s *Waitlist) Join(ctx context.Context, eventID, userID string) error {
	return s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		event, err := tx.Event(ctx, eventID)
		if err != nil {
			return err
		}
		if !event.IsOpen {
			return &PreconditionError{Reason: ReasonClosed}
		}
		if event.WaitList.Contains(userID) {
			return &PreconditionError{Reason: ReasonAlreadyJoined}
		}
		if event.WaitlistFull() {
			return &PreconditionError{Reason: ReasonWaitlistFull}
		}

		user, err := tx.User(ctx, userID)
		if err != nil {
			return err
		}

		event.WaitList.Add(userID)
		user.Waitlisted.Add(eventID)

		if err := tx.PutEvent(ctx, event); err != nil {
			return err
		}
		return tx.PutUser(ctx, user)
	})
}

// Leave removes the user from the event's waitlist and the event from the
// user's waitlisted set. Leaving a waitlist the user is not on is an error,
// not a silent no-op.
func (s *Waitlist) Leave(ctx context.Context, eventID, userID string) error {
	return s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		event, err := tx.Event(ctx, eventID)
		if err != nil {
			return err
		}
		if !event.WaitList.Contains(userID) {
			return &PreconditionError{Reason: ReasonNotOnWaitlist}
		}

		user, err := tx.User(ctx, userID)
		if err != nil {
			return err
		}

		event.WaitList.Remove(userID)
		user.Waitlisted.Remove(eventID)

		if err := tx.PutEvent(ctx, event); err != nil {
			return err
		}
		return tx.PutUser(ctx, user)
	})
}
