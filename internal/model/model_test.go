package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserListSetSemantics(t *testing.T) {
	var l UserList

	l.Add("a")
	l.Add("b")
	l.Add("a") // duplicate ignored
	assert.Equal(t, []string{"a", "b"}, l.Users)

	l.Remove("a")
	assert.Equal(t, []string{"b"}, l.Users)
	assert.False(t, l.Contains("a"))

	l.Remove("missing") // no-op
	assert.Equal(t, []string{"b"}, l.Users)
}

func TestMembershipOf(t *testing.T) {
	event := Event{
		WaitList:      UserList{Users: []string{"w"}},
		SelectedList:  UserList{Users: []string{"s"}},
		EnrolledList:  UserList{Users: []string{"e"}},
		CancelledList: UserList{Users: []string{"c"}},
	}

	tests := []struct {
		userID string
		want   Membership
		ok     bool
	}{
		{"w", MembershipWaitlist, true},
		{"s", MembershipSelected, true},
		{"e", MembershipEnrolled, true},
		{"c", MembershipCancelled, true},
		{"nobody", "", false},
	}
	for _, tt := range tests {
		got, ok := event.MembershipOf(tt.userID)
		assert.Equal(t, tt.ok, ok)
		assert.Equal(t, tt.want, got)
	}
}

func TestShouldBeOpen(t *testing.T) {
	now := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)

	event := Event{RegisterEndTime: now.Add(time.Hour)}
	assert.True(t, event.ShouldBeOpen(now))
	assert.False(t, event.ShouldBeOpen(now.Add(2*time.Hour)))

	// A drawn event never reopens, deadline or not.
	event.IsLotteryRun = true
	assert.False(t, event.ShouldBeOpen(now))
}

func TestWaitlistFull(t *testing.T) {
	two := 2

	event := Event{WaitList: UserList{Users: []string{"a", "b"}}}
	assert.False(t, event.WaitlistFull(), "nil cap means unbounded")

	event.WaitlistCap = &two
	assert.True(t, event.WaitlistFull())

	event.WaitList.Remove("b")
	assert.False(t, event.WaitlistFull())
}
