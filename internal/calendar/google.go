package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/recallbe/recall/internal/domain/scheduling"
)

// GoogleConfig selects the calendar and credentials used by Google.
type GoogleConfig struct {
	CredentialsFile string
	CalendarID      string
	Location        *time.Location
}

// Google is a scheduling.Calendar backed by Google Calendar v3.
type Google struct {
	events     *gcal.EventsService
	calendarID string
	loc        *time.Location
}

// NewGoogle builds the adapter. Extra client options are appended after
// the credentials option.
func NewGoogle(ctx context.Context, cfg GoogleConfig, opts ...option.ClientOption) (*Google, error) {
	if cfg.CalendarID == "" {
		cfg.CalendarID = "primary"
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	clientOpts := []option.ClientOption{option.WithScopes(gcal.CalendarScope)}
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	clientOpts = append(clientOpts, opts...)

	svc, err := gcal.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("google calendar client: %w", err)
	}
	return &Google{events: svc.Events, calendarID: cfg.CalendarID, loc: cfg.Location}, nil
}

func (g *Google) ListEvents(ctx context.Context, from, to time.Time) ([]scheduling.Event, error) {
	call := g.events.List(g.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")

	var out []scheduling.Event
	err := call.Pages(ctx, func(page *gcal.Events) error {
		for _, item := range page.Items {
			if item.Status == "cancelled" {
				continue
			}
			ev, err := g.fromGoogle(item)
			if err != nil {
				return err
			}
			out = append(out, ev)
		}
		return nil
	})
	if err != nil {
		return nil, wrapGoogle("list events", err)
	}
	return out, nil
}

func (g *Google) InsertEvent(ctx context.Context, event scheduling.Event) (scheduling.Event, error) {
	created, err := g.events.Insert(g.calendarID, toGoogle(event)).Context(ctx).Do()
	if err != nil {
		return scheduling.Event{}, wrapGoogle("insert event", err)
	}
	out, err := g.fromGoogle(created)
	if err != nil {
		return scheduling.Event{}, err
	}
	if len(out.Reminders) == 0 {
		out.Reminders = event.Reminders
	}
	return out, nil
}

func toGoogle(e scheduling.Event) *gcal.Event {
	ev := &gcal.Event{
		Summary:     e.Summary,
		Description: e.Description,
	}
	if e.AllDay {
		ev.Start = &gcal.EventDateTime{Date: e.Start.Format("2006-01-02")}
		ev.End = &gcal.EventDateTime{Date: e.End.Format("2006-01-02")}
	} else {
		ev.Start = &gcal.EventDateTime{DateTime: e.Start.Format(time.RFC3339), TimeZone: e.TimeZone}
		ev.End = &gcal.EventDateTime{DateTime: e.End.Format(time.RFC3339), TimeZone: e.TimeZone}
	}
	if e.AttendeeEmail != "" {
		ev.Attendees = []*gcal.EventAttendee{{Email: e.AttendeeEmail}}
	}
	if len(e.Reminders) > 0 {
		overrides := make([]*gcal.EventReminder, 0, len(e.Reminders))
		for _, r := range e.Reminders {
			overrides = append(overrides, &gcal.EventReminder{Method: r.Method, Minutes: r.Minutes})
		}
		ev.Reminders = &gcal.EventReminders{
			UseDefault:      false,
			Overrides:       overrides,
			ForceSendFields: []string{"UseDefault"},
		}
	}
	return ev
}

func (g *Google) fromGoogle(item *gcal.Event) (scheduling.Event, error) {
	ev := scheduling.Event{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Link:        item.HtmlLink,
	}
	var err error
	if ev.Start, ev.AllDay, err = g.parseWhen(item.Start); err != nil {
		return scheduling.Event{}, fmt.Errorf("event %s start: %w", item.Id, err)
	}
	if ev.End, _, err = g.parseWhen(item.End); err != nil {
		return scheduling.Event{}, fmt.Errorf("event %s end: %w", item.Id, err)
	}
	if item.Start != nil {
		ev.TimeZone = item.Start.TimeZone
	}
	for _, a := range item.Attendees {
		if a != nil && a.Email != "" {
			ev.AttendeeEmail = a.Email
			break
		}
	}
	if item.Reminders != nil {
		for _, r := range item.Reminders.Overrides {
			ev.Reminders = append(ev.Reminders, scheduling.Reminder{Method: r.Method, Minutes: r.Minutes})
		}
	}
	return ev, nil
}

// parseWhen reads a timed or all-day boundary. All-day dates are midnight
// in the business zone.
func (g *Google) parseWhen(dt *gcal.EventDateTime) (time.Time, bool, error) {
	if dt == nil {
		return time.Time{}, false, errors.New("missing time")
	}
	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		return t, false, err
	}
	if dt.Date != "" {
		t, err := time.ParseInLocation("2006-01-02", dt.Date, g.loc)
		return t, true, err
	}
	return time.Time{}, false, errors.New("missing time")
}

func wrapGoogle(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return fmt.Errorf("google calendar %s: status %d: %w", op, gerr.Code, err)
	}
	return fmt.Errorf("google calendar %s: %w", op, err)
}
