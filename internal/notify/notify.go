// Package notify provides the append-only notification log consumed by the
// notification UI. Appends are fire-and-forget from the caller's point of
// view: services log append failures and carry on.
package notify

import (
	"context"
	"time"
)

// Record is one appended notification.
type Record struct {
	ID         string    `json:"id"`
	ReceiverID string    `json:"receiver_id"`
	SenderID   string    `json:"sender_id"`
	EventName  string    `json:"event_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// Emitter appends records to the log.
type Emitter interface {
	Append(ctx context.Context, record Record) error
}

// Log is an emitter whose records can be read back per receiver.
type Log interface {
	Emitter

	// ByReceiver returns the receiver's records, oldest first.
	ByReceiver(ctx context.Context, receiverID string) ([]Record, error)
}
