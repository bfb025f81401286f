// Package model defines the core domain documents for the event lottery system.
package model

import "time"

// SchemaVersion is the document schema understood by this build. Documents
// carrying a different version are rejected at the store boundary.
const SchemaVersion = 1

// Membership names the five mutually exclusive event-side categories an
// entrant can occupy for a single event.
type Membership string

const (
	MembershipWaitlist    Membership = "waitlist"
	MembershipSelected    Membership = "selected"
	MembershipNotSelected Membership = "notSelected"
	MembershipEnrolled    Membership = "enrolled"
	MembershipCancelled   Membership = "cancelled"
)

// UserList is an event-side membership set, stored as an ordered list of
// user ids with set semantics.
type UserList struct {
	Users []string `json:"users"`
}

// Contains reports whether the list holds the given user id.
func (l UserList) Contains(userID string) bool {
	for _, id := range l.Users {
		if id == userID {
			return true
		}
	}
	return false
}

// Add appends the user id if it is not already present.
func (l *UserList) Add(userID string) {
	if !l.Contains(userID) {
		l.Users = append(l.Users, userID)
	}
}

// Remove deletes the user id, preserving the order of the remainder.
func (l *UserList) Remove(userID string) {
	kept := l.Users[:0]
	for _, id := range l.Users {
		if id != userID {
			kept = append(kept, id)
		}
	}
	l.Users = kept
}

// EventList is a user-side membership set holding event ids.
type EventList struct {
	Events []string `json:"events"`
}

// Contains reports whether the list holds the given event id.
func (l EventList) Contains(eventID string) bool {
	for _, id := range l.Events {
		if id == eventID {
			return true
		}
	}
	return false
}

// Add appends the event id if it is not already present.
func (l *EventList) Add(eventID string) {
	if !l.Contains(eventID) {
		l.Events = append(l.Events, eventID)
	}
}

// Remove deletes the event id, preserving the order of the remainder.
func (l *EventList) Remove(eventID string) {
	kept := l.Events[:0]
	for _, id := range l.Events {
		if id != eventID {
			kept = append(kept, id)
		}
	}
	l.Events = kept
}

// Event is the stored event document. The five membership lists are mutually
// exclusive: a user id appears in at most one of them at any time.
type Event struct {
	SchemaVersion   int       `json:"schemaVersion"`
	ID              string    `json:"id"`
	OrganizerID     string    `json:"organizerId"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	RegisterEndTime time.Time `json:"registerEndTime"`
	SelectionCap    int       `json:"selectionCap"`
	WaitlistCap     *int      `json:"waitlistCap"`
	IsOpen          bool      `json:"isOpen"`
	IsLotteryRun    bool      `json:"isLotteryRun"`
	WaitList        UserList  `json:"waitList"`
	SelectedList    UserList  `json:"selectedList"`
	NotSelectedList UserList  `json:"notSelectedList"`
	EnrolledList    UserList  `json:"enrolledList"`
	CancelledList   UserList  `json:"cancelledList"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ShouldBeOpen computes the registration flag this event ought to carry at
// the given instant. An event whose lottery has run stays closed regardless
// of the deadline.
func (e *Event) ShouldBeOpen(now time.Time) bool {
	return !e.IsLotteryRun && now.Before(e.RegisterEndTime)
}

// WaitlistFull reports whether the waitlist has reached its cap. A nil or
// non-positive cap means the waitlist is unbounded.
func (e *Event) WaitlistFull() bool {
	return e.WaitlistCap != nil && *e.WaitlistCap > 0 && len(e.WaitList.Users) >= *e.WaitlistCap
}

// MembershipOf returns the category currently holding the user, if any.
func (e *Event) MembershipOf(userID string) (Membership, bool) {
	switch {
	case e.WaitList.Contains(userID):
		return MembershipWaitlist, true
	case e.SelectedList.Contains(userID):
		return MembershipSelected, true
	case e.NotSelectedList.Contains(userID):
		return MembershipNotSelected, true
	case e.EnrolledList.Contains(userID):
		return MembershipEnrolled, true
	case e.CancelledList.Contains(userID):
		return MembershipCancelled, true
	}
	return "", false
}

// User is the stored entrant document. Each list mirrors the event-side
// membership of the same name.
type User struct {
	SchemaVersion int       `json:"schemaVersion"`
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email,omitempty"`
	Waitlisted    EventList `json:"waitlisted"`
	Selected      EventList `json:"selected"`
	NotSelected   EventList `json:"notSelected"`
	Declined      EventList `json:"declined"`
	Enrolled      EventList `json:"enrolled"`
	Organized     EventList `json:"organized"`
	CreatedAt     time.Time `json:"createdAt"`
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Name            string    `json:"name" validate:"required"`
	Description     string    `json:"description"`
	OrganizerID     string    `json:"organizer_id" validate:"required"`
	StartTime       time.Time `json:"start_time" validate:"required"`
	EndTime         time.Time `json:"end_time" validate:"required"`
	RegisterEndTime time.Time `json:"register_end_time" validate:"required"`
	SelectionCap    int       `json:"selection_cap" validate:"gte=0"`
	WaitlistCap     *int      `json:"waitlist_cap,omitempty" validate:"omitempty,gt=0"`
}

// CreateUserRequest is the payload for creating an entrant profile.
type CreateUserRequest struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name" validate:"required"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// EntrantRequest identifies the entrant acting on an event.
type EntrantRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
