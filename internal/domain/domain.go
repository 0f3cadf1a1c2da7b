package domain

import (
	"time"

	"github.com/recallbe/recall/internal/domain/business"
	"github.com/recallbe/recall/internal/domain/callhistory"
	"github.com/recallbe/recall/internal/domain/messages"
	"github.com/recallbe/recall/internal/domain/scheduling"
)

// Container wires domain services together.
type Container struct {
	Scheduling scheduling.Service
	History    callhistory.Service
	Messages   messages.Service

	// SchedulingEnabled is false when no calendar backend is configured.
	SchedulingEnabled bool
}

// Options configures the domain container.
type Options struct {
	HistoryRepo callhistory.Repository
	MessageRepo messages.Repository
	Calendar    scheduling.Calendar
	Profile     business.Profile
	Clock       func() time.Time
}

// New constructs a domain container with provided repositories.
func New(opts Options) Container {
	historyRepo := opts.HistoryRepo
	if historyRepo == nil {
		historyRepo = callhistory.NullRepository{}
	}

	messageRepo := opts.MessageRepo
	if messageRepo == nil {
		messageRepo = messages.NullRepository{}
	}

	cal := opts.Calendar
	enabled := cal != nil
	if cal == nil {
		cal = scheduling.NullCalendar{}
	}

	var schedOpts []scheduling.Option
	if opts.Clock != nil {
		schedOpts = append(schedOpts, scheduling.WithClock(opts.Clock))
	}

	return Container{
		Scheduling:        scheduling.NewService(cal, opts.Profile, schedOpts...),
		History:           callhistory.NewService(historyRepo),
		Messages:          messages.NewService(messageRepo),
		SchedulingEnabled: enabled,
	}
}
