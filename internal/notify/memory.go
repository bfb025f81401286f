package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryLog is an in-process notification log for tests and local runs.
type MemoryLog struct {
	mu      sync.Mutex
	records []Record
}

// NewMemoryLog constructs an empty MemoryLog.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// Append stores one record.
func (l *MemoryLog) Append(ctx context.Context, record Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	l.records = append(l.records, record)
	return nil
}

// ByReceiver returns the receiver's records in append order.
func (l *MemoryLog) ByReceiver(ctx context.Context, receiverID string) ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Record
	for _, r := range l.records {
		if r.ReceiverID == receiverID {
			out = append(out, r)
		}
	}
	return out, nil
}

// All returns every record in append order. Test helper.
func (l *MemoryLog) All() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}
