package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/recallbe/recall/internal/database"
	"github.com/recallbe/recall/internal/domain/messages"
)

// MessageRepository persists messages using a *sql.DB handle.
type MessageRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewMessageRepository returns a repository backed by a pooled DB connection.
func NewMessageRepository(db *sql.DB, dialect database.Dialect) *MessageRepository {
	return &MessageRepository{db: db, dialect: dialect}
}

// Save inserts a message.
func (r *MessageRepository) Save(ctx context.Context, msg messages.Message) (messages.Message, error) {
	const insert = `
        INSERT INTO messages (id, call_id, caller_name, phone_number, body, preferred_date, preferred_time, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    `

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(insert),
		msg.ID,
		msg.CallID,
		msg.CallerName,
		msg.PhoneNumber,
		msg.Body,
		msg.PreferredDate,
		msg.PreferredTime,
		msg.CreatedAt,
	)
	if err != nil {
		return messages.Message{}, fmt.Errorf("insert message: %w", err)
	}
	return msg, nil
}

// List returns messages newest first.
func (r *MessageRepository) List(ctx context.Context, offset, limit int) ([]messages.Message, error) {
	const query = `
        SELECT id, call_id, caller_name, phone_number, body, preferred_date, preferred_time, created_at
          FROM messages
         ORDER BY created_at DESC, id
         LIMIT $1 OFFSET $2
    `

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var list []messages.Message
	for rows.Next() {
		var m messages.Message
		if err := rows.Scan(
			&m.ID,
			&m.CallID,
			&m.CallerName,
			&m.PhoneNumber,
			&m.Body,
			&m.PreferredDate,
			&m.PreferredTime,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.CreatedAt = m.CreatedAt.UTC()
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return list, nil
}
