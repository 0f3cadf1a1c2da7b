package main

import (
	"context"
	"fmt"

	"github.com/recallbe/recall/internal/domain/callhistory"
	"github.com/recallbe/recall/internal/domain/messages"
)

// seed writes sample calls and messages. Rerunning it rewrites the same
// call history rows and appends the messages again.
func seed(ctx context.Context, history callhistory.Service, msgs messages.Service) (calls, taken int, err error) {
	confirmed := "2026-10-10"
	rescheduled := "2026-10-20T10:00:00-04:00"
	sampleCalls := []callhistory.Entry{
		{
			CallID:      "outbound-seed-confirmed",
			PhoneNumber: "+19045550101",
			Name:        "Alex Rivera",
			MeetingDate: &confirmed,
			Notes:       []string{"Confirmed attendance for original appointment"},
		},
		{
			CallID:      "outbound-seed-rescheduled",
			PhoneNumber: "+19045550202",
			Name:        "Jordan Lee",
			MeetingDate: &rescheduled,
			Notes:       []string{"Rescheduled from 2026-10-08 to Tuesday, October 20 at 10:00 AM. Purpose: Consultation", "Call completed successfully"},
		},
		{
			CallID:      "outbound-seed-voicemail",
			PhoneNumber: "+19045550303",
			Name:        "Sam Patel",
			Notes:       []string{"Voicemail detected - no answer"},
		},
	}
	for _, e := range sampleCalls {
		if _, err := history.Write(ctx, e); err != nil {
			return calls, taken, fmt.Errorf("seed call %s: %w", e.CallID, err)
		}
		calls++
	}

	sampleMessages := []messages.TakeInput{
		{CallID: "call-seed-1", CallerName: "Kim Nguyen", PhoneNumber: "+19045550404", Body: "Please call back about my invoice"},
		{CallID: "call-seed-2", CallerName: "Lee Park", CallerID: "+19045550505", PreferredDate: "Friday", PreferredTime: "noon"},
	}
	for _, m := range sampleMessages {
		if _, err := msgs.Take(ctx, m); err != nil {
			return calls, taken, fmt.Errorf("seed message from %s: %w", m.CallerName, err)
		}
		taken++
	}
	return calls, taken, nil
}
