package messages

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotImplemented = errors.New("messages repository: not implemented")
	ErrNotFound       = errors.New("message not found")
	ErrInvalid        = errors.New("message: caller name required")
)

// NotProvided stands in for a missing phone number.
const NotProvided = "Not provided"

// Message is a note or meeting request taken by the receptionist.
type Message struct {
	ID            string    `json:"id"`
	CallID        string    `json:"call_id"`
	CallerName    string    `json:"caller_name"`
	PhoneNumber   string    `json:"phone_number"`
	Body          string    `json:"body"`
	PreferredDate string    `json:"preferred_date,omitempty"`
	PreferredTime string    `json:"preferred_time,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// IsMeetingRequest reports whether the caller asked for a specific time.
func (m Message) IsMeetingRequest() bool {
	return m.PreferredDate != "" || m.PreferredTime != ""
}

// Repository abstracts message persistence.
type Repository interface {
	Save(ctx context.Context, msg Message) (Message, error)
	List(ctx context.Context, offset, limit int) ([]Message, error)
}

// NullRepository returns ErrNotImplemented for all operations.
type NullRepository struct{}

func (NullRepository) Save(ctx context.Context, msg Message) (Message, error) {
	return Message{}, ErrNotImplemented
}

func (NullRepository) List(ctx context.Context, offset, limit int) ([]Message, error) {
	return nil, ErrNotImplemented
}

// TakeInput is what the receptionist collected from the caller.
type TakeInput struct {
	CallID        string
	CallerName    string
	PhoneNumber   string
	CallerID      string
	Body          string
	PreferredDate string
	PreferredTime string
}

// Service provides message taking.
type Service interface {
	Take(ctx context.Context, input TakeInput) (Message, error)
	List(ctx context.Context, offset, limit int) ([]Message, error)
}

// NewService builds a message service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

type service struct {
	repo Repository
}

func (s *service) Take(ctx context.Context, input TakeInput) (Message, error) {
	name := strings.TrimSpace(input.CallerName)
	if name == "" {
		return Message{}, ErrInvalid
	}

	phone := firstNonEmpty(input.PhoneNumber, input.CallerID, NotProvided)
	msg := Message{
		CallID:        input.CallID,
		CallerName:    name,
		PhoneNumber:   phone,
		Body:          strings.TrimSpace(input.Body),
		PreferredDate: strings.TrimSpace(input.PreferredDate),
		PreferredTime: strings.TrimSpace(input.PreferredTime),
	}
	if msg.Body == "" {
		if msg.IsMeetingRequest() {
			msg.Body = "Meeting request"
		} else {
			msg.Body = "General inquiry"
		}
	}
	return s.repo.Save(ctx, msg)
}

func (s *service) List(ctx context.Context, offset, limit int) ([]Message, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 50
	}
	return s.repo.List(ctx, offset, limit)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
