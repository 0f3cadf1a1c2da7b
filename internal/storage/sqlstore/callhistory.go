package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/recallbe/recall/internal/database"
	"github.com/recallbe/recall/internal/domain/callhistory"
)

// CallHistoryRepository persists call history rows using a *sql.DB handle.
type CallHistoryRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewCallHistoryRepository returns a repository backed by a pooled DB connection.
func NewCallHistoryRepository(db *sql.DB, dialect database.Dialect) *CallHistoryRepository {
	return &CallHistoryRepository{db: db, dialect: dialect}
}

// Upsert inserts the row for a call or rewrites the existing one, then
// returns the stored row.
func (r *CallHistoryRepository) Upsert(ctx context.Context, record callhistory.Record) (callhistory.Record, error) {
	const upsert = `
        INSERT INTO call_history (id, call_id, phone_number, name, meeting_date, notes, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (call_id) DO UPDATE
           SET phone_number = excluded.phone_number,
               name = excluded.name,
               meeting_date = excluded.meeting_date,
               notes = excluded.notes,
               updated_at = excluded.updated_at
    `

	now := time.Now().UTC()
	id := record.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(upsert),
		id,
		record.CallID,
		record.PhoneNumber,
		record.Name,
		nullString(record.MeetingDate),
		record.Notes,
		now,
		now,
	)
	if err != nil {
		return callhistory.Record{}, fmt.Errorf("upsert call history: %w", err)
	}
	return r.FindByCallID(ctx, record.CallID)
}

// FindByCallID fetches the row for a call.
func (r *CallHistoryRepository) FindByCallID(ctx context.Context, callID string) (callhistory.Record, error) {
	const query = `
        SELECT id, call_id, phone_number, name, meeting_date, notes, created_at, updated_at
          FROM call_history
         WHERE call_id = $1
    `

	rec, err := scanRecord(r.db.QueryRowContext(ctx, r.dialect.Rebind(query), callID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return callhistory.Record{}, callhistory.ErrNotFound
		}
		return callhistory.Record{}, fmt.Errorf("find call history: %w", err)
	}
	return rec, nil
}

// List returns rows newest first.
func (r *CallHistoryRepository) List(ctx context.Context, filter callhistory.Filter) ([]callhistory.Record, error) {
	const all = `
        SELECT id, call_id, phone_number, name, meeting_date, notes, created_at, updated_at
          FROM call_history
         ORDER BY created_at DESC, id
         LIMIT $1 OFFSET $2
    `
	const byPhone = `
        SELECT id, call_id, phone_number, name, meeting_date, notes, created_at, updated_at
          FROM call_history
         WHERE phone_number = $1
         ORDER BY created_at DESC, id
         LIMIT $2 OFFSET $3
    `

	var (
		rows *sql.Rows
		err  error
	)
	if filter.PhoneNumber != "" {
		rows, err = r.db.QueryContext(ctx, r.dialect.Rebind(byPhone), filter.PhoneNumber, filter.Limit, filter.Offset)
	} else {
		rows, err = r.db.QueryContext(ctx, r.dialect.Rebind(all), filter.Limit, filter.Offset)
	}
	if err != nil {
		return nil, fmt.Errorf("list call history: %w", err)
	}
	defer rows.Close()

	var list []callhistory.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan call history: %w", err)
		}
		list = append(list, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate call history: %w", err)
	}
	return list, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (callhistory.Record, error) {
	var (
		rec     callhistory.Record
		meeting sql.NullString
	)
	if err := s.Scan(
		&rec.ID,
		&rec.CallID,
		&rec.PhoneNumber,
		&rec.Name,
		&meeting,
		&rec.Notes,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return callhistory.Record{}, err
	}
	if meeting.Valid {
		rec.MeetingDate = &meeting.String
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
