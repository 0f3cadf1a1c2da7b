package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/recallbe/recall/internal/domain/messages"
	"github.com/recallbe/recall/internal/domain/scheduling"
)

const (
	msgCheckTrouble   = "I'm having trouble checking that date and time. Could you please repeat it?"
	msgNoSlots        = "I'm sorry, I couldn't find any available slots in the next two weeks. Let me take your information and someone will call you back to find a suitable time."
	msgSlotsTrouble   = "I'm having trouble finding available times. Let me take your information and someone will call you back."
	msgJustBooked     = "I apologize, but that time slot was just booked. Let me find another available time for you."
	msgCalendarFailed = "I've recorded your meeting request, but had trouble adding it to the calendar. Someone will call you back to confirm."
	msgRecordedInfo   = "I've recorded your information. Someone from our team will call you back to confirm the appointment."
)

type receptionist struct {
	deps Deps
	sess *Session
}

func receptionistTools(deps Deps, sess *Session) *Registry {
	r := &receptionist{deps: deps, sess: sess}
	reg := NewRegistry(Tool{
		Name:        "get_business_hours",
		Description: "Get the business hours and availability information.",
		Schema:      NoArgs(),
		Handler:     r.businessHours,
	})

	if deps.SchedulingEnabled {
		reg.Register(Tool{
			Name:        "check_availability",
			Description: "Check if a specific date and time is available for scheduling.",
			Schema: ObjectSchema(map[string]interface{}{
				"date": StringProperty("Date in format 'YYYY-MM-DD' or natural language like 'tomorrow', 'next Monday'"),
				"time": StringProperty("Time in format like '2:00 PM', '14:00', '2pm'"),
			}, "date", "time"),
			Handler: r.checkAvailability,
		})
		reg.Register(Tool{
			Name:        "find_next_available_slot",
			Description: "Find the next available appointment slots. Use this when the requested time is not available.",
			Schema: ObjectSchema(map[string]interface{}{
				"preferred_date": StringProperty("Starting date to search from (optional, defaults to today)"),
			}),
			Handler: r.nextSlots,
		})
		reg.Register(Tool{
			Name:        "schedule_meeting",
			Description: "Schedule a confirmed meeting appointment in the calendar.",
			Schema: ObjectSchema(map[string]interface{}{
				"caller_name":  StringProperty("Name of the caller"),
				"date":         StringProperty("Date in format 'YYYY-MM-DD' or natural language"),
				"time":         StringProperty("Time in format like '2:00 PM'"),
				"purpose":      StringProperty("Purpose or reason for the meeting"),
				"phone_number": StringProperty("Contact phone number (optional if auto-detected)"),
			}, "caller_name", "date", "time", "purpose"),
			Handler: r.scheduleMeeting,
		})
	}

	reg.Register(Tool{
		Name:        "take_message",
		Description: "Record a message or meeting request from the caller. Use this when the caller wants to leave a message or a meeting cannot be booked.",
		Schema: ObjectSchema(map[string]interface{}{
			"caller_name":    StringProperty("Name of the caller"),
			"phone_number":   StringProperty("Contact phone number (optional if auto-detected)"),
			"message":        StringProperty("The message to pass on"),
			"preferred_date": StringProperty("Preferred meeting date, if any"),
			"preferred_time": StringProperty("Preferred meeting time, if any"),
		}, "caller_name"),
		Handler: r.takeMessage,
	})
	return reg
}

func (r *receptionist) businessHours(ctx context.Context, _ json.RawMessage) (string, error) {
	r.deps.Logger.Info("caller requested business hours", "session", r.sess.ID)
	return r.deps.Scheduling.Profile().HoursMessage(), nil
}

func (r *receptionist) checkAvailability(ctx context.Context, input json.RawMessage) (string, error) {
	var in struct {
		Date string `json:"date"`
		Time string `json:"time"`
	}
	if err := decode(input, &in); err != nil {
		return "", err
	}

	svc := r.deps.Scheduling
	profile := svc.Profile()
	start, err := scheduling.ParseDateTime(in.Date, in.Time, svc.Now(), profile.Loc())
	if err != nil {
		r.deps.Logger.Warn("could not parse requested time", "session", r.sess.ID, "date", in.Date, "time", in.Time, "error", err)
		return msgCheckTrouble, nil
	}

	free, err := svc.CheckBookable(ctx, start)
	switch {
	case errors.Is(err, scheduling.ErrClosedDay):
		return fmt.Sprintf("Sorry, we're closed on %ss. We're open %s.", start.Weekday(), profile.HoursText), nil
	case errors.Is(err, scheduling.ErrOutsideHours):
		return fmt.Sprintf("Sorry, that time is outside our business hours (%s).", profile.HoursText), nil
	case err != nil:
		r.deps.Logger.Error("availability check failed", "session", r.sess.ID, "error", err)
		return msgCheckTrouble, nil
	}

	formatted := start.Format(scheduling.SlotLayout)
	r.deps.Logger.Info("availability checked", "session", r.sess.ID, "start", start, "available", free)
	if free {
		return fmt.Sprintf("Great news! %s is available.", formatted), nil
	}
	return fmt.Sprintf("I'm sorry, %s is already booked.", formatted), nil
}

func (r *receptionist) nextSlots(ctx context.Context, input json.RawMessage) (string, error) {
	var in struct {
		PreferredDate string `json:"preferred_date"`
	}
	if err := decode(input, &in); err != nil {
		return "", err
	}

	svc := r.deps.Scheduling
	from := svc.Now()
	if strings.TrimSpace(in.PreferredDate) != "" {
		day, err := scheduling.ParseDate(in.PreferredDate, from, svc.Profile().Loc())
		if err != nil {
			r.deps.Logger.Warn("could not parse preferred date", "session", r.sess.ID, "date", in.PreferredDate, "error", err)
			return msgSlotsTrouble, nil
		}
		from = day
	}

	slots, err := svc.NextAvailableSlots(ctx, from, scheduling.DefaultSlotCount)
	if err != nil {
		r.deps.Logger.Error("slot search failed", "session", r.sess.ID, "error", err)
		return msgSlotsTrouble, nil
	}
	if len(slots) == 0 {
		return msgNoSlots, nil
	}

	var b strings.Builder
	b.WriteString("Here are the next available times:\n")
	for i, slot := range slots {
		fmt.Fprintf(&b, "%d. %s\n", i+1, slot.Formatted())
	}
	b.WriteString("\nWhich of these times works best for you?")
	return b.String(), nil
}

func (r *receptionist) scheduleMeeting(ctx context.Context, input json.RawMessage) (string, error) {
	var in struct {
		CallerName  string `json:"caller_name"`
		Date        string `json:"date"`
		Time        string `json:"time"`
		Purpose     string `json:"purpose"`
		PhoneNumber string `json:"phone_number"`
	}
	if err := decode(input, &in); err != nil {
		return "", err
	}
	if strings.TrimSpace(in.CallerName) == "" {
		return "", errors.New("caller_name is required")
	}

	svc := r.deps.Scheduling
	phone := firstNonEmpty(in.PhoneNumber, r.sess.CallerPhone, messages.NotProvided)

	start, err := scheduling.ParseDateTime(in.Date, in.Time, svc.Now(), svc.Profile().Loc())
	if err != nil {
		r.deps.Logger.Warn("could not parse meeting time", "session", r.sess.ID, "date", in.Date, "time", in.Time, "error", err)
		r.recordRequest(ctx, in.CallerName, phone, in.Purpose, in.Date, in.Time)
		return msgRecordedInfo, nil
	}

	created, err := svc.Book(ctx, scheduling.Booking{
		Start:       start,
		CallerName:  in.CallerName,
		PhoneNumber: phone,
		Purpose:     in.Purpose,
	})
	switch {
	case errors.Is(err, scheduling.ErrSlotTaken):
		return msgJustBooked, nil
	case errors.Is(err, scheduling.ErrInvalidInput):
		r.recordRequest(ctx, in.CallerName, phone, in.Purpose, in.Date, in.Time)
		return msgRecordedInfo, nil
	case err != nil:
		r.deps.Logger.Error("booking failed", "session", r.sess.ID, "error", err)
		r.recordRequest(ctx, in.CallerName, phone, in.Purpose, in.Date, in.Time)
		return msgCalendarFailed, nil
	}

	r.deps.Logger.Info("meeting scheduled", "session", r.sess.ID, "caller", in.CallerName, "start", created.Start, "event_id", created.ID)
	return fmt.Sprintf("Perfect! I've scheduled your appointment for %s. You'll receive a confirmation, and we look forward to meeting with you, %s!",
		created.Start.Format(scheduling.SlotLayout), in.CallerName), nil
}

// recordRequest keeps a meeting request that could not be booked.
func (r *receptionist) recordRequest(ctx context.Context, name, phone, purpose, date, clock string) {
	body := "Meeting request"
	if purpose = strings.TrimSpace(purpose); purpose != "" {
		body += ": " + purpose
	}
	_, err := r.deps.Messages.Take(ctx, messages.TakeInput{
		CallID:        r.sess.CallID(),
		CallerName:    name,
		PhoneNumber:   phone,
		CallerID:      r.sess.CallerPhone,
		Body:          body,
		PreferredDate: date,
		PreferredTime: clock,
	})
	if err != nil {
		r.deps.Logger.Error("could not record meeting request", "session", r.sess.ID, "error", err)
	}
}

func (r *receptionist) takeMessage(ctx context.Context, input json.RawMessage) (string, error) {
	var in struct {
		CallerName    string `json:"caller_name"`
		PhoneNumber   string `json:"phone_number"`
		Message       string `json:"message"`
		PreferredDate string `json:"preferred_date"`
		PreferredTime string `json:"preferred_time"`
	}
	if err := decode(input, &in); err != nil {
		return "", err
	}

	msg, err := r.deps.Messages.Take(ctx, messages.TakeInput{
		CallID:        r.sess.CallID(),
		CallerName:    in.CallerName,
		PhoneNumber:   in.PhoneNumber,
		CallerID:      r.sess.CallerPhone,
		Body:          in.Message,
		PreferredDate: in.PreferredDate,
		PreferredTime: in.PreferredTime,
	})
	if errors.Is(err, messages.ErrInvalid) {
		return "", errors.New("caller_name is required to take a message")
	}
	if err != nil {
		r.deps.Logger.Error("could not save message", "session", r.sess.ID, "error", err)
		msg = messages.Message{
			CallerName:    strings.TrimSpace(in.CallerName),
			PreferredDate: strings.TrimSpace(in.PreferredDate),
			PreferredTime: strings.TrimSpace(in.PreferredTime),
		}
	} else {
		r.deps.Logger.Info("message taken", "session", r.sess.ID, "caller", msg.CallerName, "phone", msg.PhoneNumber, "meeting_request", msg.IsMeetingRequest())
	}

	if !msg.IsMeetingRequest() {
		return fmt.Sprintf("Thank you, %s. I've recorded your message. Someone from our team will call you back shortly to confirm.", msg.CallerName), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you, %s. I've recorded your meeting request", msg.CallerName)
	if msg.PreferredDate != "" {
		fmt.Fprintf(&b, " for %s", msg.PreferredDate)
	}
	if msg.PreferredTime != "" {
		fmt.Fprintf(&b, " at %s", msg.PreferredTime)
	}
	b.WriteString(". Someone from our team will call you back shortly to confirm.")
	return b.String(), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
