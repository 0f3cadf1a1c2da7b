package business_test

import (
	"strings"
	"testing"
	"time"

	"github.com/recallbe/recall/internal/domain/business"
)

func newYorkProfile(t *testing.T) business.Profile {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	p := business.Default()
	p.Name = "John Doe Legal"
	p.Location = loc
	return p
}

func TestProfileOpenDayAndHours(t *testing.T) {
	p := newYorkProfile(t)
	loc := p.Loc()

	monday := time.Date(2026, time.October, 12, 10, 0, 0, 0, loc)
	saturday := time.Date(2026, time.October, 17, 10, 0, 0, 0, loc)
	if !p.IsOpenDay(monday) {
		t.Fatalf("expected Monday to be open")
	}
	if p.IsOpenDay(saturday) {
		t.Fatalf("expected Saturday to be closed")
	}

	if !p.WithinHours(time.Date(2026, time.October, 12, 9, 0, 0, 0, loc)) {
		t.Fatalf("expected 9:00 to be within hours")
	}
	if p.WithinHours(time.Date(2026, time.October, 12, 17, 0, 0, 0, loc)) {
		t.Fatalf("expected 17:00 to be outside hours")
	}
	// 14:00 UTC is 10:00 in New York during daylight time.
	if !p.WithinHours(time.Date(2026, time.October, 12, 14, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected hours to be evaluated in the business zone")
	}
}

func TestProfileMessages(t *testing.T) {
	p := newYorkProfile(t)
	if got := p.Greeting(); got != "Thank you for calling John Doe Legal, how may I help you today?" {
		t.Fatalf("unexpected greeting: %s", got)
	}
	if got := p.HoursMessage(); got != "Our business hours are Mon-Fri 9AM-5PM. We're happy to schedule a meeting during these times." {
		t.Fatalf("unexpected hours message: %s", got)
	}
}

func TestReceptionistInstructions(t *testing.T) {
	p := newYorkProfile(t)

	withCalendar := p.ReceptionistInstructions(true)
	if !strings.Contains(withCalendar, "check_availability") || !strings.Contains(withCalendar, "schedule_meeting") {
		t.Fatalf("scheduling prompt must mention calendar tools")
	}
	messageOnly := p.ReceptionistInstructions(false)
	if strings.Contains(messageOnly, "check_availability") {
		t.Fatalf("message-only prompt must not mention calendar tools")
	}
	if !strings.Contains(messageOnly, "take_message") || !strings.Contains(messageOnly, p.Greeting()) {
		t.Fatalf("message-only prompt missing flow or greeting")
	}
}

func TestOutboundInstructionsUsesCurrentYear(t *testing.T) {
	p := newYorkProfile(t)
	now := time.Date(2026, time.October, 14, 15, 0, 0, 0, time.UTC)

	got := p.OutboundInstructions(now)
	if !strings.Contains(got, "Today's date is 2026-10-14 (Wednesday, October 14, 2026)") {
		t.Fatalf("missing date line: %s", got)
	}
	if !strings.Contains(got, "always use the year 2026") {
		t.Fatalf("expected current year default")
	}
	for _, phrase := range business.VoicemailPhrases {
		if !strings.Contains(got, phrase) {
			t.Fatalf("missing voicemail phrase %q", phrase)
		}
	}
}
