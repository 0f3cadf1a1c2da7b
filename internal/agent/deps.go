package agent

import (
	"context"
	"log/slog"

	"github.com/recallbe/recall/internal/domain/callhistory"
	"github.com/recallbe/recall/internal/domain/messages"
	"github.com/recallbe/recall/internal/domain/scheduling"
)

// Phone disconnects calls.
type Phone interface {
	Hangup(ctx context.Context, room string) error
}

// NullPhone only logs hang-ups. Used when telephony is not configured.
type NullPhone struct {
	Logger *slog.Logger
}

func (p NullPhone) Hangup(ctx context.Context, room string) error {
	if p.Logger != nil {
		p.Logger.Info("hangup requested without telephony", "room", room)
	}
	return nil
}

// Deps are the services tools act on.
type Deps struct {
	Scheduling scheduling.Service
	History    callhistory.Service
	Messages   messages.Service
	Phone      Phone
	Logger     *slog.Logger

	// SchedulingEnabled exposes calendar tools to the receptionist.
	SchedulingEnabled bool
}
