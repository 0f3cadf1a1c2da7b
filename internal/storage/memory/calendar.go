package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/recallbe/recall/internal/domain/scheduling"
)

// Calendar is an in-memory scheduling.Calendar for development and tests.
type Calendar struct {
	mu     sync.RWMutex
	events []scheduling.Event
}

// NewCalendar returns a calendar holding the given events.
func NewCalendar(events ...scheduling.Event) *Calendar {
	c := &Calendar{}
	for _, e := range events {
		if e.ID == "" {
			e.ID = newID()
		}
		c.events = append(c.events, e)
	}
	return c
}

// ListEvents returns events overlapping [from, to) ordered by start.
func (c *Calendar) ListEvents(ctx context.Context, from, to time.Time) ([]scheduling.Event, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]scheduling.Event, 0)
	for _, e := range c.events {
		if e.Overlaps(from, to) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out, nil
}

// InsertEvent stores the event and assigns an ID.
func (c *Calendar) InsertEvent(ctx context.Context, event scheduling.Event) (scheduling.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	event.ID = newID()
	event.Link = "memory://calendar/" + event.ID
	c.events = append(c.events, event)
	return event, nil
}

// Events returns a copy of every stored event.
func (c *Calendar) Events() []scheduling.Event {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]scheduling.Event, len(c.events))
	copy(out, c.events)
	return out
}
