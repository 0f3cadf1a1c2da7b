package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/recallbe/recall/internal/domain/callhistory"
	"github.com/recallbe/recall/internal/domain/scheduling"
)

// MeetingData describes the missed meeting an outbound call is about.
type MeetingData struct {
	PhoneNumber  string `json:"phone_number"`
	CustomerName string `json:"customer_name"`
	Date         string `json:"meeting_date"`
	Time         string `json:"meeting_time"`
	Purpose      string `json:"meeting_purpose"`
}

// WithDefaults fills the spoken placeholders used when metadata is sparse.
// Time stays empty when unknown.
func (m MeetingData) WithDefaults() MeetingData {
	m.PhoneNumber = firstNonEmpty(m.PhoneNumber, "Unknown")
	m.CustomerName = firstNonEmpty(m.CustomerName, "the customer")
	m.Date = firstNonEmpty(m.Date, "your scheduled time")
	m.Time = strings.TrimSpace(m.Time)
	m.Purpose = firstNonEmpty(m.Purpose, "your meeting")
	return m
}

const (
	msgCalendarDown     = "I'm having trouble accessing the calendar right now. Let me take your preferred time and we'll confirm availability shortly."
	msgAvailabilityHelp = "I'm having trouble checking availability. What time works best for you and we'll confirm it?"
	msgRescheduleNoted  = "I've recorded your rescheduling request. Someone will call you back to confirm the new appointment details."
)

type recall struct {
	deps Deps
	sess *Session
	// raw holds the metadata as received, before placeholders.
	raw MeetingData
}

func outboundTools(deps Deps, sess *Session, raw MeetingData) *Registry {
	r := &recall{deps: deps, sess: sess, raw: raw}
	return NewRegistry(
		Tool{
			Name:        "get_meeting_details",
			Description: "Get the original missed meeting details to share with the customer if they ask",
			Schema:      NoArgs(),
			Handler:     r.meetingDetails,
		},
		Tool{
			Name:        "get_available_slots",
			Description: "Check available time slots for a specific date. Date should be in format YYYY-MM-DD.",
			Schema: ObjectSchema(map[string]interface{}{
				"date": StringProperty("Date to check, YYYY-MM-DD"),
			}, "date"),
			Handler: r.availableSlots,
		},
		Tool{
			Name:        "confirm_meeting",
			Description: "Call this when customer confirms they will attend the meeting",
			Schema:      NoArgs(),
			Handler:     r.confirm,
		},
		Tool{
			Name:        "schedule_appointment",
			Description: "Schedule a new appointment on the calendar to replace the missed one.",
			Schema: ObjectSchema(map[string]interface{}{
				"date_time": StringProperty("Date and time in ISO format (YYYY-MM-DDTHH:MM:SS) or parseable format"),
				"purpose":   StringProperty("Purpose of the meeting (optional, will use original purpose if not provided)"),
			}, "date_time"),
			Handler: r.schedule,
		},
		Tool{
			Name:        "detected_answering_machine",
			Description: "URGENT: Call this tool IMMEDIATELY when you hear ANY voicemail phrases like 'Thanks for the call', 'Configure your number', 'leave a message', or ANY automated greeting. DO NOT continue talking - just call this function instantly!",
			Schema:      NoArgs(),
			Handler:     r.voicemail,
		},
		Tool{
			Name:        "end_call_successful",
			Description: "Call this when the conversation is complete and customer is informed",
			Schema:      NoArgs(),
			Handler:     r.endCall,
		},
	)
}

func (r *recall) meetingDetails(ctx context.Context, _ json.RawMessage) (string, error) {
	r.deps.Logger.Info("customer requested meeting details", "session", r.sess.ID)
	m := r.sess.Meeting
	details := "Your original meeting was scheduled"
	if m.Date != "" {
		details += " for " + m.Date
	}
	if m.Time != "" {
		details += " at " + m.Time
	}
	if m.Purpose != "" {
		details += " regarding " + m.Purpose
	}
	return details, nil
}

func (r *recall) availableSlots(ctx context.Context, input json.RawMessage) (string, error) {
	var in struct {
		Date string `json:"date"`
	}
	if err := decode(input, &in); err != nil {
		return "", err
	}
	r.deps.Logger.Info("checking availability", "session", r.sess.ID, "date", in.Date)

	svc := r.deps.Scheduling
	loc := svc.Profile().Loc()
	day, err := scheduling.ParseDate(in.Date, svc.Now(), loc)
	if err != nil {
		r.deps.Logger.Warn("could not parse date", "session", r.sess.ID, "date", in.Date, "error", err)
		return msgAvailabilityHelp, nil
	}

	events, err := svc.BusyPeriods(ctx, day)
	if err != nil {
		r.deps.Logger.Error("calendar lookup failed", "session", r.sess.ID, "error", err)
		return msgCalendarDown, nil
	}
	if len(events) == 0 {
		return fmt.Sprintf("The calendar is completely free on %s. What time would work best for you?", in.Date), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "On %s, the following times are already booked:\n", in.Date)
	for _, e := range events {
		if e.AllDay {
			b.WriteString("- all day\n")
			continue
		}
		fmt.Fprintf(&b, "- %s to %s\n", e.Start.In(loc).Format(scheduling.BusyLayout), e.End.In(loc).Format(scheduling.BusyLayout))
	}
	b.WriteString("\nWhat time would you prefer for your appointment?")
	return b.String(), nil
}

func (r *recall) confirm(ctx context.Context, _ json.RawMessage) (string, error) {
	r.deps.Logger.Info("customer confirmed attendance", "session", r.sess.ID)
	r.sess.addNote("Confirmed attendance for original appointment")

	var original *string
	if d := strings.TrimSpace(r.raw.Date); d != "" {
		original = &d
	}
	r.sess.meetingDate = original
	r.writeHistory(ctx, original)
	r.sess.requestHangup(HangupAfterReply)
	return "Great! We look forward to seeing you. Thank you!", nil
}

func (r *recall) schedule(ctx context.Context, input json.RawMessage) (string, error) {
	var in struct {
		DateTime string `json:"date_time"`
		Purpose  string `json:"purpose"`
	}
	if err := decode(input, &in); err != nil {
		return "", err
	}
	m := r.sess.Meeting
	r.deps.Logger.Info("rescheduling appointment", "session", r.sess.ID, "customer", m.CustomerName, "date_time", in.DateTime)

	svc := r.deps.Scheduling
	start, err := scheduling.ParseISO(in.DateTime, svc.Now(), svc.Profile().Loc())
	if err != nil {
		r.deps.Logger.Warn("could not parse new time", "session", r.sess.ID, "date_time", in.DateTime, "error", err)
		return msgRescheduleNoted, nil
	}

	purpose := firstNonEmpty(in.Purpose, m.Purpose)
	created, err := svc.Book(ctx, scheduling.Booking{
		Start:            start,
		CallerName:       m.CustomerName,
		PhoneNumber:      m.PhoneNumber,
		Purpose:          purpose,
		RescheduledFrom:  m.Date,
		SkipAvailability: true,
	})
	if err != nil {
		r.deps.Logger.Error("could not create event", "session", r.sess.ID, "error", err)
		return fmt.Sprintf("I've noted your preferred time of %s, but I'm having trouble accessing the calendar. Someone will call you back to confirm the rescheduled appointment.", in.DateTime), nil
	}
	r.deps.Logger.Info("event created", "session", r.sess.ID, "event_id", created.ID, "link", created.Link)

	newDate := created.Start.Format(time.RFC3339)
	r.sess.meetingDate = &newDate
	formatted := created.Start.Format(scheduling.SlotLayout)
	r.sess.addNote(fmt.Sprintf("Rescheduled from %s to %s. Purpose: %s", m.Date, formatted, purpose))
	r.writeHistory(ctx, r.sess.meetingDate)

	return fmt.Sprintf("Perfect! I've rescheduled your appointment for %s. You should receive a confirmation shortly. Is there anything else I can help you with?", formatted), nil
}

func (r *recall) voicemail(ctx context.Context, _ json.RawMessage) (string, error) {
	r.deps.Logger.Info("voicemail detected, hanging up", "session", r.sess.ID)
	r.sess.addNote("Voicemail detected - no answer")
	r.writeHistory(ctx, nil)

	r.sess.requestHangup(HangupNow)
	if err := r.deps.Phone.Hangup(ctx, r.sess.Room); err != nil {
		r.deps.Logger.Error("hangup failed", "session", r.sess.ID, "room", r.sess.Room, "error", err)
	} else {
		r.sess.hungUp = true
	}
	return "Voicemail detected - hung up immediately", nil
}

func (r *recall) endCall(ctx context.Context, _ json.RawMessage) (string, error) {
	r.deps.Logger.Info("call completed", "session", r.sess.ID)
	r.sess.addNote("Call completed successfully")
	r.writeHistory(ctx, r.sess.meetingDate)
	r.sess.requestHangup(HangupAfterReply)
	return "Thank you! Have a great day!", nil
}

// writeHistory records the call. Failures are logged only.
func (r *recall) writeHistory(ctx context.Context, meetingDate *string) {
	m := r.sess.Meeting
	_, err := r.deps.History.Write(ctx, callhistory.Entry{
		CallID:      r.sess.CallID(),
		PhoneNumber: m.PhoneNumber,
		Name:        m.CustomerName,
		MeetingDate: meetingDate,
		Notes:       r.sess.notesLocked(),
	})
	if err != nil {
		r.deps.Logger.Error("failed to write call history", "session", r.sess.ID, "error", err)
		return
	}
	r.deps.Logger.Info("call history written", "session", r.sess.ID, "call_id", r.sess.CallID())
}
