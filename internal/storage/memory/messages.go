package memory

import (
	"context"
	"sync"
	"time"

	"github.com/recallbe/recall/internal/domain/messages"
)

// MessageRepository is an in-memory implementation of messages.Repository.
type MessageRepository struct {
	mu       sync.RWMutex
	messages []messages.Message
}

// NewMessageRepository returns an empty repository.
func NewMessageRepository() *MessageRepository {
	return &MessageRepository{}
}

// Save appends a message.
func (r *MessageRepository) Save(ctx context.Context, msg messages.Message) (messages.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if msg.ID == "" {
		msg.ID = newID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	r.messages = append(r.messages, msg)
	return msg, nil
}

// List returns messages newest first.
func (r *MessageRepository) List(ctx context.Context, offset, limit int) ([]messages.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]messages.Message, 0, len(r.messages))
	for i := len(r.messages) - 1; i >= 0; i-- {
		list = append(list, r.messages[i])
	}
	return page(list, offset, limit), nil
}
