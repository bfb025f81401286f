package service

import (
	"context"

	"github.com/lottos-app/lottos/internal/store"
)

// Response handles an invited entrant accepting or declining their spot.
type Response struct {
	store store.Store
}

// NewResponse constructs a Response service.
func NewResponse(st store.Store) *Response {
	return &Response{store: st}
}

// Accept moves the user from selected to enrolled on both sides. Users who
// are not pending invitees get a "not selected" precondition failure, which
// also covers double submissions and invitations that already expired.
func (s *Response) Accept(ctx context.Context, eventID, userID string) error {
	return s.respond(ctx, eventID, userID, true)
}

// Decline moves the user from selected to cancelled on the event side and
// records the event under declined on the user side.
func (s *Response) Decline(ctx context.Context, eventID, userID string) error {
	return s.respond(ctx, eventID, userID, false)
}

func (s *Response) respond(ctx context.Context, eventID, userID string, accept bool) error {
	return s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		event, err := tx.Event(ctx, eventID)
		if err != nil {
			return err
		}
		if !event.SelectedList.Contains(userID) {
			return &PreconditionError{Reason: ReasonNotSelected}
		}

		user, err := tx.User(ctx, userID)
		if err != nil {
			return err
		}

		event.SelectedList.Remove(userID)
		user.Selected.Remove(eventID)
		if accept {
			event.EnrolledList.Add(userID)
			user.Enrolled.Add(eventID)
		} else {
			event.CancelledList.Add(userID)
			user.Declined.Add(eventID)
		}

		if err := tx.PutEvent(ctx, event); err != nil {
			return err
		}
		return tx.PutUser(ctx, user)
	})
}
