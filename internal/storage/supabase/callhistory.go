// Package supabase stores call history in a Supabase project through its
// PostgREST endpoint.
package supabase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/supabase-community/postgrest-go"

	"github.com/recallbe/recall/internal/domain/callhistory"
)

const table = "call_history"

// CallHistoryRepository implements callhistory.Repository over PostgREST.
type CallHistoryRepository struct {
	client *postgrest.Client
}

// NewCallHistoryRepository targets the project at baseURL with a service key.
func NewCallHistoryRepository(baseURL, serviceKey string) (*CallHistoryRepository, error) {
	if baseURL == "" || serviceKey == "" {
		return nil, errors.New("supabase url and service key are required")
	}
	client := postgrest.NewClient(strings.TrimRight(baseURL, "/")+"/rest/v1", "", map[string]string{
		"apikey":        serviceKey,
		"Authorization": "Bearer " + serviceKey,
	})
	if client.ClientError != nil {
		return nil, fmt.Errorf("supabase client: %w", client.ClientError)
	}
	return &CallHistoryRepository{client: client}, nil
}

// row leaves id out on write so the table default assigns it once.
type row struct {
	ID          string     `json:"id,omitempty"`
	CallID      string     `json:"call_id"`
	PhoneNumber string     `json:"phone_number"`
	Name        string     `json:"name"`
	MeetingDate *string    `json:"meeting_date"`
	Notes       string     `json:"notes"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

func (r row) record() callhistory.Record {
	rec := callhistory.Record{
		ID:          r.ID,
		CallID:      r.CallID,
		PhoneNumber: r.PhoneNumber,
		Name:        r.Name,
		MeetingDate: r.MeetingDate,
		Notes:       r.Notes,
	}
	if r.CreatedAt != nil {
		rec.CreatedAt = r.CreatedAt.UTC()
	}
	if r.UpdatedAt != nil {
		rec.UpdatedAt = r.UpdatedAt.UTC()
	}
	return rec
}

// Upsert merges the row on call_id.
func (r *CallHistoryRepository) Upsert(ctx context.Context, record callhistory.Record) (callhistory.Record, error) {
	if err := ctx.Err(); err != nil {
		return callhistory.Record{}, err
	}
	now := time.Now().UTC()
	payload := []row{{
		CallID:      record.CallID,
		PhoneNumber: record.PhoneNumber,
		Name:        record.Name,
		MeetingDate: record.MeetingDate,
		Notes:       record.Notes,
		UpdatedAt:   &now,
	}}

	var rows []row
	_, err := r.client.From(table).
		Upsert(payload, "call_id", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		return callhistory.Record{}, fmt.Errorf("upsert call history: %w", err)
	}
	if len(rows) == 0 {
		return callhistory.Record{}, errors.New("upsert call history: empty response")
	}
	return rows[0].record(), nil
}

// FindByCallID fetches the row for a call.
func (r *CallHistoryRepository) FindByCallID(ctx context.Context, callID string) (callhistory.Record, error) {
	if err := ctx.Err(); err != nil {
		return callhistory.Record{}, err
	}
	var rows []row
	_, err := r.client.From(table).
		Select("*", "", false).
		Eq("call_id", callID).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return callhistory.Record{}, fmt.Errorf("find call history: %w", err)
	}
	if len(rows) == 0 {
		return callhistory.Record{}, callhistory.ErrNotFound
	}
	return rows[0].record(), nil
}

// List returns rows newest first.
func (r *CallHistoryRepository) List(ctx context.Context, filter callhistory.Filter) ([]callhistory.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := r.client.From(table).Select("*", "", false)
	if filter.PhoneNumber != "" {
		q = q.Eq("phone_number", filter.PhoneNumber)
	}
	q = q.Order("created_at", &postgrest.OrderOpts{Ascending: false})
	if filter.Limit > 0 {
		q = q.Range(filter.Offset, filter.Offset+filter.Limit-1, "")
	}

	var rows []row
	if _, err := q.ExecuteTo(&rows); err != nil {
		return nil, fmt.Errorf("list call history: %w", err)
	}
	out := make([]callhistory.Record, 0, len(rows))
	for _, rw := range rows {
		out = append(out, rw.record())
	}
	return out, nil
}
