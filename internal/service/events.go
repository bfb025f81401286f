package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lottos-app/lottos/internal/model"
	"github.com/lottos-app/lottos/internal/store"
)

// Events handles event creation and reads for the UI layer.
type Events struct {
	store store.Store
	clock Clock
	newID func() string
}

// NewEvents constructs an Events service.
func NewEvents(st store.Store) *Events {
	return &Events{
		store: st,
		clock: time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

// WithClock overrides the clock. Test hook.
func (s *Events) WithClock(clock Clock) *Events {
	s.clock = clock
	return s
}

// Create validates the request and persists a new open event with empty
// membership lists. The event is recorded under the organizer's organized
// set in the same transaction.
func (s *Events) Create(ctx context.Context, req model.CreateEventRequest) (model.Event, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return model.Event{}, fmt.Errorf("event name is required")
	}
	if !req.StartTime.Before(req.EndTime) {
		return model.Event{}, fmt.Errorf("start_time must be before end_time")
	}
	if req.RegisterEndTime.After(req.StartTime) {
		return model.Event{}, fmt.Errorf("register_end_time must not be after start_time")
	}
	if req.SelectionCap < 0 {
		return model.Event{}, fmt.Errorf("selection_cap must not be negative")
	}
	if req.WaitlistCap != nil && *req.WaitlistCap <= 0 {
		return model.Event{}, fmt.Errorf("waitlist_cap must be a positive integer")
	}

	now := s.clock()
	event := model.Event{
		SchemaVersion:   model.SchemaVersion,
		ID:              s.newID(),
		OrganizerID:     req.OrganizerID,
		Name:            req.Name,
		Description:     req.Description,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		RegisterEndTime: req.RegisterEndTime,
		SelectionCap:    req.SelectionCap,
		WaitlistCap:     req.WaitlistCap,
		IsOpen:          now.Before(req.RegisterEndTime),
		CreatedAt:       now,
	}

	err := s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		organizer, err := tx.User(ctx, req.OrganizerID)
		if err != nil {
			return err
		}
		organizer.Organized.Add(event.ID)
		if err := tx.PutEvent(ctx, event); err != nil {
			return err
		}
		return tx.PutUser(ctx, organizer)
	})
	if err != nil {
		return model.Event{}, err
	}
	return event, nil
}

// Get returns a single event document.
func (s *Events) Get(ctx context.Context, id string) (model.Event, error) {
	if id == "" {
		return model.Event{}, fmt.Errorf("event id is required")
	}
	return s.store.Event(ctx, id)
}

// List returns all events.
func (s *Events) List(ctx context.Context) ([]model.Event, error) {
	return s.store.Events(ctx)
}
