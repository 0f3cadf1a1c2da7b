package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/recallbe/recall/internal/domain/callhistory"
)

// CallHistoryRepository is an in-memory implementation of callhistory.Repository.
type CallHistoryRepository struct {
	mu      sync.RWMutex
	records map[string]callhistory.Record // keyed by call ID
}

// NewCallHistoryRepository returns an initialized in-memory repository.
func NewCallHistoryRepository() *CallHistoryRepository {
	return &CallHistoryRepository{
		records: make(map[string]callhistory.Record),
	}
}

// Upsert inserts a record or replaces the one sharing its call ID.
func (r *CallHistoryRepository) Upsert(ctx context.Context, record callhistory.Record) (callhistory.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := r.records[record.CallID]; ok {
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
	} else {
		record.ID = newID()
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	r.records[record.CallID] = record
	return record, nil
}

// FindByCallID returns the record for a call.
func (r *CallHistoryRepository) FindByCallID(ctx context.Context, callID string) (callhistory.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[callID]
	if !ok {
		return callhistory.Record{}, callhistory.ErrNotFound
	}
	return rec, nil
}

// List returns records newest first, optionally filtered by phone number.
func (r *CallHistoryRepository) List(ctx context.Context, filter callhistory.Filter) ([]callhistory.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]callhistory.Record, 0, len(r.records))
	for _, rec := range r.records {
		if filter.PhoneNumber != "" && rec.PhoneNumber != filter.PhoneNumber {
			continue
		}
		list = append(list, rec)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})

	return page(list, filter.Offset, filter.Limit), nil
}

func page[T any](list []T, offset, limit int) []T {
	if offset > len(list) {
		return []T{}
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return list[offset:end]
}
