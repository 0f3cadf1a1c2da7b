package callhistory

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Domain-level errors for call history.
var (
	ErrNotImplemented = errors.New("call history repository: not implemented")
	ErrNotFound       = errors.New("call history record not found")
	ErrInvalid        = errors.New("call history: invalid record")
)

// NoNotes is stored when a call produced no notes.
const NoNotes = "No specific notes"

// Record is one row of the call_history table. A call keeps a single row
// that is rewritten on every terminal event.
type Record struct {
	ID          string    `json:"id"`
	CallID      string    `json:"call_id"`
	PhoneNumber string    `json:"phone_number"`
	Name        string    `json:"name"`
	MeetingDate *string   `json:"meeting_date"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Filter narrows List results.
type Filter struct {
	PhoneNumber string
	Offset      int
	Limit       int
}

// Repository abstracts persistence for call history.
type Repository interface {
	// Upsert inserts a record or replaces the record with the same CallID.
	Upsert(ctx context.Context, record Record) (Record, error)
	FindByCallID(ctx context.Context, callID string) (Record, error)
	List(ctx context.Context, filter Filter) ([]Record, error)
}

// NullRepository stub implementation returning ErrNotImplemented.
type NullRepository struct{}

func (NullRepository) Upsert(ctx context.Context, record Record) (Record, error) {
	return Record{}, ErrNotImplemented
}

func (NullRepository) FindByCallID(ctx context.Context, callID string) (Record, error) {
	return Record{}, ErrNotImplemented
}

func (NullRepository) List(ctx context.Context, filter Filter) ([]Record, error) {
	return nil, ErrNotImplemented
}

// Entry is what an agent reports at the end of a call event.
type Entry struct {
	CallID      string
	PhoneNumber string
	Name        string
	MeetingDate *string
	Notes       []string
}

// Service exposes call history operations.
type Service interface {
	Write(ctx context.Context, entry Entry) (Record, error)
	Get(ctx context.Context, callID string) (Record, error)
	List(ctx context.Context, filter Filter) ([]Record, error)
}

// NewService builds a call history service with the given repository.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

type service struct {
	repo Repository
}

func (s *service) Write(ctx context.Context, entry Entry) (Record, error) {
	if strings.TrimSpace(entry.CallID) == "" {
		return Record{}, ErrInvalid
	}
	record := Record{
		CallID:      entry.CallID,
		PhoneNumber: strings.TrimSpace(entry.PhoneNumber),
		Name:        strings.TrimSpace(entry.Name),
		MeetingDate: entry.MeetingDate,
		Notes:       JoinNotes(entry.Notes),
	}
	return s.repo.Upsert(ctx, record)
}

func (s *service) Get(ctx context.Context, callID string) (Record, error) {
	return s.repo.FindByCallID(ctx, callID)
}

func (s *service) List(ctx context.Context, filter Filter) ([]Record, error) {
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}

// JoinNotes collapses call notes into the stored text form.
func JoinNotes(notes []string) string {
	kept := make([]string, 0, len(notes))
	for _, n := range notes {
		if n = strings.TrimSpace(n); n != "" {
			kept = append(kept, n)
		}
	}
	if len(kept) == 0 {
		return NoNotes
	}
	return strings.Join(kept, "; ")
}
