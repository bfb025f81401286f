package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lottos-app/lottos/internal/store"
)

// PostgresLog stores notification records in the notifications table.
type PostgresLog struct {
	db *pgxpool.Pool
}

// NewPostgresLog constructs a PostgresLog.
func NewPostgresLog(db *pgxpool.Pool) *PostgresLog {
	return &PostgresLog{db: db}
}

// Append inserts one record. A missing id is generated here so callers can
// stay oblivious to identity.
func (l *PostgresLog) Append(ctx context.Context, record Record) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	_, err := l.db.Exec(ctx,
		`INSERT INTO notifications (id, receiver_id, sender_id, event_name, content, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		record.ID, record.ReceiverID, record.SenderID, record.EventName, record.Content, record.CreatedAt,
	)
	if err != nil {
		return &store.TransportError{Err: fmt.Errorf("append notification: %w", err)}
	}
	return nil
}

// ByReceiver returns the receiver's records, oldest first.
func (l *PostgresLog) ByReceiver(ctx context.Context, receiverID string) ([]Record, error) {
	rows, err := l.db.Query(ctx,
		`SELECT id, receiver_id, sender_id, event_name, content, created_at
		 FROM notifications
		 WHERE receiver_id = $1
		 ORDER BY created_at ASC`,
		receiverID,
	)
	if err != nil {
		return nil, &store.TransportError{Err: fmt.Errorf("list notifications: %w", err)}
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.ReceiverID, &r.SenderID, &r.EventName, &r.Content, &r.CreatedAt); err != nil {
			return nil, &store.TransportError{Err: fmt.Errorf("scan notification: %w", err)}
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &store.TransportError{Err: fmt.Errorf("list notifications: %w", err)}
	}
	return records, nil
}
