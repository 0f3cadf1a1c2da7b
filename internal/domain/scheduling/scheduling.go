package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/recallbe/recall/internal/domain/business"
)

// Domain-level errors for scheduling.
var (
	ErrNotConfigured = errors.New("scheduling: no calendar configured")
	ErrClosedDay     = errors.New("scheduling: closed on that day")
	ErrOutsideHours  = errors.New("scheduling: outside business hours")
	ErrSlotTaken     = errors.New("scheduling: slot already booked")
	ErrInvalidInput  = errors.New("scheduling: invalid input")
)

const (
	// DefaultSlotCount is how many alternatives are offered at once.
	DefaultSlotCount = 3
	// SearchHorizonDays bounds how far ahead free slots are searched.
	SearchHorizonDays = 14

	SlotLayout = "Monday, January 02 at 03:04 PM"
	BusyLayout = "03:04 PM"
)

// Reminder is a calendar notification override.
type Reminder struct {
	Method  string
	Minutes int64
}

// DefaultReminders are attached to every booked meeting.
var DefaultReminders = []Reminder{
	{Method: "email", Minutes: 24 * 60},
	{Method: "popup", Minutes: 30},
}

// Event is a calendar entry.
type Event struct {
	ID            string
	Summary       string
	Description   string
	Start         time.Time
	End           time.Time
	AllDay        bool
	TimeZone      string
	AttendeeEmail string
	Reminders     []Reminder
	Link          string
}

// Overlaps reports whether the event intersects [from, to).
func (e Event) Overlaps(from, to time.Time) bool {
	return e.Start.Before(to) && e.End.After(from)
}

// Calendar abstracts the backing calendar provider.
type Calendar interface {
	// ListEvents returns events overlapping [from, to) ordered by start time.
	ListEvents(ctx context.Context, from, to time.Time) ([]Event, error)
	InsertEvent(ctx context.Context, event Event) (Event, error)
}

// NullCalendar reports ErrNotConfigured for every call.
type NullCalendar struct{}

func (NullCalendar) ListEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	return nil, ErrNotConfigured
}

func (NullCalendar) InsertEvent(ctx context.Context, event Event) (Event, error) {
	return Event{}, ErrNotConfigured
}

// Slot is a bookable start time.
type Slot struct {
	Start time.Time
	End   time.Time
}

// Formatted renders the slot the way it is read to callers.
func (s Slot) Formatted() string {
	return s.Start.Format(SlotLayout)
}

// Booking carries what is needed to put a meeting on the calendar.
type Booking struct {
	Start            time.Time
	Duration         time.Duration
	CallerName       string
	PhoneNumber      string
	Purpose          string
	RescheduledFrom  string
	SkipAvailability bool
}

// Service exposes scheduling operations over a calendar.
type Service interface {
	Profile() business.Profile
	CheckAvailability(ctx context.Context, start time.Time, duration time.Duration) (bool, error)
	CheckBookable(ctx context.Context, start time.Time) (bool, error)
	NextAvailableSlots(ctx context.Context, from time.Time, n int) ([]Slot, error)
	BusyPeriods(ctx context.Context, day time.Time) ([]Event, error)
	Book(ctx context.Context, booking Booking) (Event, error)
	Now() time.Time
}

// Option configures the service.
type Option func(*service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// NewService builds a scheduling service backed by cal.
func NewService(cal Calendar, profile business.Profile, opts ...Option) Service {
	if cal == nil {
		cal = NullCalendar{}
	}
	if profile.MeetingDuration <= 0 {
		profile.MeetingDuration = time.Hour
	}
	s := &service{cal: cal, profile: profile, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type service struct {
	cal     Calendar
	profile business.Profile
	now     func() time.Time
}

func (s *service) Profile() business.Profile { return s.profile }

func (s *service) Now() time.Time { return s.now().In(s.profile.Loc()) }

func (s *service) CheckAvailability(ctx context.Context, start time.Time, duration time.Duration) (bool, error) {
	if duration <= 0 {
		duration = s.profile.MeetingDuration
	}
	end := start.Add(duration)
	events, err := s.cal.ListEvents(ctx, start, end)
	if err != nil {
		return false, fmt.Errorf("list events: %w", err)
	}
	for _, e := range events {
		if e.Overlaps(start, end) {
			return false, nil
		}
	}
	return true, nil
}

func (s *service) CheckBookable(ctx context.Context, start time.Time) (bool, error) {
	if !s.profile.IsOpenDay(start) {
		return false, ErrClosedDay
	}
	if !s.profile.WithinHours(start) {
		return false, ErrOutsideHours
	}
	return s.CheckAvailability(ctx, start, s.profile.MeetingDuration)
}

func (s *service) NextAvailableSlots(ctx context.Context, from time.Time, n int) ([]Slot, error) {
	if n <= 0 {
		n = DefaultSlotCount
	}
	loc := s.profile.Loc()
	now := s.now()
	from = from.In(loc)
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	duration := s.profile.MeetingDuration

	slots := make([]Slot, 0, n)
	for i := 0; i < SearchHorizonDays && len(slots) < n; i, day = i+1, day.AddDate(0, 0, 1) {
		if !s.profile.IsOpenDay(day) {
			continue
		}

		windowStart := time.Date(day.Year(), day.Month(), day.Day(), s.profile.StartHour, 0, 0, 0, loc)
		windowEnd := time.Date(day.Year(), day.Month(), day.Day(), s.profile.EndHour-1, 0, 0, 0, loc).Add(duration)
		events, err := s.cal.ListEvents(ctx, windowStart, windowEnd)
		if err != nil {
			return nil, fmt.Errorf("list events for %s: %w", day.Format("2006-01-02"), err)
		}

		for hour := s.profile.StartHour; hour < s.profile.EndHour; hour++ {
			start := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, loc)
			if !start.After(now) {
				continue
			}
			end := start.Add(duration)
			if busy(events, start, end) {
				continue
			}
			slots = append(slots, Slot{Start: start, End: end})
			if len(slots) >= n {
				break
			}
		}
	}
	return slots, nil
}

func busy(events []Event, from, to time.Time) bool {
	for _, e := range events {
		if e.Overlaps(from, to) {
			return true
		}
	}
	return false
}

func (s *service) BusyPeriods(ctx context.Context, day time.Time) ([]Event, error) {
	loc := s.profile.Loc()
	day = day.In(loc)
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	to := from.AddDate(0, 0, 1)
	events, err := s.cal.ListEvents(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

func (s *service) Book(ctx context.Context, b Booking) (Event, error) {
	if b.Start.IsZero() {
		return Event{}, fmt.Errorf("%w: start time required", ErrInvalidInput)
	}
	if strings.TrimSpace(b.CallerName) == "" {
		return Event{}, fmt.Errorf("%w: caller name required", ErrInvalidInput)
	}
	duration := b.Duration
	if duration <= 0 {
		duration = s.profile.MeetingDuration
	}
	start := b.Start.In(s.profile.Loc())

	if !b.SkipAvailability {
		free, err := s.CheckAvailability(ctx, start, duration)
		if err != nil {
			return Event{}, err
		}
		if !free {
			return Event{}, ErrSlotTaken
		}
	}

	event := Event{
		Summary:     "Meeting with " + b.CallerName,
		Description: describe(b),
		Start:       start,
		End:         start.Add(duration),
		TimeZone:    s.profile.Loc().String(),
		Reminders:   DefaultReminders,
	}
	if strings.Contains(b.CallerName, "@") {
		event.AttendeeEmail = b.CallerName
	}

	created, err := s.cal.InsertEvent(ctx, event)
	if err != nil {
		return Event{}, fmt.Errorf("insert event: %w", err)
	}
	return created, nil
}

func describe(b Booking) string {
	desc := fmt.Sprintf("Purpose: %s\nPhone: %s", b.Purpose, b.PhoneNumber)
	if b.RescheduledFrom != "" {
		desc += "\nRescheduled from: " + b.RescheduledFrom
	}
	return desc
}
