package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lottos-app/lottos/internal/model"
	"github.com/lottos-app/lottos/internal/notify"
	"github.com/lottos-app/lottos/internal/store"
)

// ExpiryReport summarises one expired-selection sweep.
type ExpiryReport struct {
	EventsSwept int      `json:"events_swept"`
	Forfeited   int      `json:"forfeited"`
	FailedIDs   []string `json:"failed_event_ids,omitempty"`
}

// ExpirySweeper forfeits invitations that were never answered: once an
// event has started, anyone still in selected is moved to cancelled.
type ExpirySweeper struct {
	store   store.Store
	emitter notify.Emitter
	clock   Clock
}

// NewExpirySweeper constructs an ExpirySweeper.
func NewExpirySweeper(st store.Store, emitter notify.Emitter) *ExpirySweeper {
	return &ExpirySweeper{store: st, emitter: emitter, clock: time.Now}
}

// WithClock overrides the clock. Test hook.
func (s *ExpirySweeper) WithClock(clock Clock) *ExpirySweeper {
	s.clock = clock
	return s
}

// Sweep scans every started event with pending invitations and forfeits
// them. Each event is swept in its own transaction, so one failing event
// never blocks the rest; failures are recorded in the report and logged.
// Forfeiture notifications are appended after each per-event commit,
// at-least-once.
func (s *ExpirySweeper) Sweep(ctx context.Context) (ExpiryReport, error) {
	events, err := s.store.Events(ctx)
	if err != nil {
		return ExpiryReport{}, fmt.Errorf("expiry sweep: %w", err)
	}

	now := s.clock()
	var report ExpiryReport
	for i := range events {
		event := &events[i]
		if now.Before(event.StartTime) || len(event.SelectedList.Users) == 0 {
			continue
		}

		forfeited, err := s.sweepEvent(ctx, event.ID)
		if err != nil {
			slog.Warn("expiry sweep: event failed",
				"event_id", event.ID,
				"error", err,
			)
			report.FailedIDs = append(report.FailedIDs, event.ID)
			continue
		}
		report.EventsSwept++
		report.Forfeited += len(forfeited)

		for _, userID := range forfeited {
			s.append(ctx, notify.Record{
				ReceiverID: userID,
				SenderID:   event.OrganizerID,
				EventName:  event.Name,
				Content:    fmt.Sprintf("Your invitation to %s expired because the event has started. Your spot was forfeited.", event.Name),
				CreatedAt:  now,
			})
		}
	}
	return report, nil
}

// sweepEvent moves every pending invitee of one event from selected to
// cancelled, on both sides, in a single transaction. The transaction
// guarantees no observer ever sees a user out of selected without being in
// cancelled, or the reverse. Returns the forfeited user ids.
func (s *ExpirySweeper) sweepEvent(ctx context.Context, eventID string) ([]string, error) {
	var forfeited []string
	err := s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		event, err := tx.Event(ctx, eventID)
		if err != nil {
			return err
		}
		// Re-read inside the transaction: an invitee may have answered
		// between the scan and this attempt.
		forfeited = append([]string(nil), event.SelectedList.Users...)
		if len(forfeited) == 0 {
			return nil
		}

		for _, userID := range forfeited {
			event.CancelledList.Add(userID)
		}
		event.SelectedList = model.UserList{}
		if err := tx.PutEvent(ctx, event); err != nil {
			return err
		}

		for _, userID := range forfeited {
			user, err := tx.User(ctx, userID)
			if err != nil {
				return fmt.Errorf("invitee %q: %w", userID, err)
			}
			user.Selected.Remove(eventID)
			if err := tx.PutUser(ctx, user); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return forfeited, nil
}

func (s *ExpirySweeper) append(ctx context.Context, record notify.Record) {
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
