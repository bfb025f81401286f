package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lottos-app/lottos/internal/lottery"
	"github.com/lottos-app/lottos/internal/model"
	"github.com/lottos-app/lottos/internal/notify"
	"github.com/lottos-app/lottos/internal/store"
)

// DrawResult summarises a completed lottery run.
type DrawResult struct {
	EventID string   `json:"event_id"`
	Winners []string `json:"winners"`
	Losers  []string `json:"losers"`
}

// Lottery runs the one-shot seeded draw that drains an event's waitlist
// into selected and notSelected.
type Lottery struct {
	store   store.Store
	emitter notify.Emitter
	clock   Clock
}

// NewLottery constructs a Lottery service.
func NewLottery(st store.Store, emitter notify.Emitter) *Lottery {
	return &Lottery{store: st, emitter: emitter, clock: time.Now}
}

// WithClock overrides the clock. Test hook.
func (s *Lottery) WithClock(clock Clock) *Lottery {
	s.clock = clock
	return s
}

// Run executes the lottery for an event. Preconditions — registration
// closed, lottery not yet run, waitlist non-empty — are checked inside the
// transaction, and the whole reassignment (event lists plus every
// candidate's user document) commits atomically. The event id is the draw
// seed, so re-running against the same pool reproduces the result.
//
// Win/lose notifications are appended after commit, at-least-once; an
// append failure is logged and does not undo the draw.
func (s *Lottery) Run(ctx context.Context, eventID string) (DrawResult, error) {
	var (
		result    DrawResult
		eventName string
		organizer string
	)
	err := s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		event, err := tx.Event(ctx, eventID)
		if err != nil {
			return err
		}
		if event.IsOpen {
			return &PreconditionError{Reason: ReasonStillOpen}
		}
		if event.IsLotteryRun {
			return &PreconditionError{Reason: ReasonAlreadyRun}
		}
		if len(event.WaitList.Users) == 0 {
			return &PreconditionError{Reason: ReasonNoCandidates}
		}

		winners, losers := lottery.Draw(event.ID, event.WaitList.Users, event.SelectionCap)

		event.SelectedList = model.UserList{Users: winners}
		event.NotSelectedList = model.UserList{Users: losers}
		event.WaitList = model.UserList{}
		event.IsLotteryRun = true
		if err := tx.PutEvent(ctx, event); err != nil {
			return err
		}

		for _, userID := range winners {
			user, err := tx.User(ctx, userID)
			if err != nil {
				return fmt.Errorf("winner %q: %w", userID, err)
			}
			user.Waitlisted.Remove(eventID)
			user.Selected.Add(eventID)
			if err := tx.PutUser(ctx, user); err != nil {
				return err
			}
		}
		for _, userID := range losers {
			user, err := tx.User(ctx, userID)
			if err != nil {
				return fmt.Errorf("loser %q: %w", userID, err)
			}
			user.Waitlisted.Remove(eventID)
			user.NotSelected.Add(eventID)
			if err := tx.PutUser(ctx, user); err != nil {
				return err
			}
		}

		result = DrawResult{EventID: eventID, Winners: winners, Losers: losers}
		eventName = event.Name
		organizer = event.OrganizerID
		return nil
	})
	if err != nil {
		return DrawResult{}, err
	}

	now := s.clock()
	for _, userID := range result.Winners {
		s.append(ctx, notify.Record{
			ReceiverID: userID,
			SenderID:   organizer,
			EventName:  eventName,
			Content:    fmt.Sprintf("You were selected for %s. Accept or decline your invitation before the event starts.", eventName),
			CreatedAt:  now,
		})
	}
	for _, userID := range result.Losers {
		s.append(ctx, notify.Record{
			ReceiverID: userID,
			SenderID:   organizer,
			EventName:  eventName,
			Content:    fmt.Sprintf("You were not selected in the draw for %s.", eventName),
			CreatedAt:  now,
		})
	}

	return result, nil
}

func (s *Lottery) append(ctx context.Context, record notify.Record) {
	if s.emitter == nil {
		return
	}
	if err := s.emitter.Append(ctx, record); err != nil {
		slog.Warn("notification append failed",
			"receiver", record.ReceiverID,
			"event", record.EventName,
			"error", err,
		)
	}
}
