package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/recallbe/recall/internal/domain/scheduling"
)

// Cached wraps a Calendar with a short-lived window cache. Any insert
// clears every cached window.
type Cached struct {
	next  scheduling.Calendar
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewCached returns next unchanged when ttl is not positive.
func NewCached(next scheduling.Calendar, ttl time.Duration) (scheduling.Calendar, error) {
	if ttl <= 0 {
		return next, nil
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     100_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("calendar cache: %w", err)
	}
	return &Cached{next: next, cache: cache, ttl: ttl}, nil
}

func (c *Cached) ListEvents(ctx context.Context, from, to time.Time) ([]scheduling.Event, error) {
	key := windowKey(from, to)
	if v, ok := c.cache.Get(key); ok {
		if events, ok := v.([]scheduling.Event); ok {
			return clone(events), nil
		}
	}

	events, err := c.next.ListEvents(ctx, from, to)
	if err != nil {
		return nil, err
	}
	c.cache.SetWithTTL(key, clone(events), int64(len(events)+1), c.ttl)
	c.cache.Wait()
	return events, nil
}

func (c *Cached) InsertEvent(ctx context.Context, event scheduling.Event) (scheduling.Event, error) {
	created, err := c.next.InsertEvent(ctx, event)
	if err != nil {
		return scheduling.Event{}, err
	}
	c.cache.Clear()
	return created, nil
}

// Close stops the cache's background goroutines.
func (c *Cached) Close() {
	c.cache.Close()
}

func windowKey(from, to time.Time) string {
	return fmt.Sprintf("%d:%d", from.UnixNano(), to.UnixNano())
}

func clone(events []scheduling.Event) []scheduling.Event {
	out := make([]scheduling.Event, len(events))
	copy(out, events)
	return out
}
