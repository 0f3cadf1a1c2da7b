package scheduling_test

import (
	"errors"
	"testing"
	"time"

	"github.com/recallbe/recall/internal/domain/scheduling"
)

func nyc(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func TestParseDate(t *testing.T) {
	loc := nyc(t)
	// Wednesday.
	now := time.Date(2026, time.October, 14, 15, 0, 0, 0, loc)

	cases := []struct {
		in   string
		want string
	}{
		{"today", "2026-10-14"},
		{"Tomorrow", "2026-10-15"},
		{"day after tomorrow", "2026-10-16"},
		{"friday", "2026-10-16"},
		{"wednesday", "2026-10-14"},
		{"next wednesday", "2026-10-21"},
		{"next Monday", "2026-10-19"},
		{"on thurs", "2026-10-15"},
		{"2026-11-03", "2026-11-03"},
		{"11/03/2026", "2026-11-03"},
		{"November 3rd, 2026", "2026-11-03"},
		{"December 1", "2026-12-01"},
		{"Jan 2", "2027-01-02"},
		{"October 1st", "2027-10-01"},
		{"October 14", "2026-10-14"},
	}
	for _, tc := range cases {
		got, err := scheduling.ParseDate(tc.in, now, loc)
		if err != nil {
			t.Fatalf("ParseDate(%q) error: %v", tc.in, err)
		}
		if got.Format("2006-01-02") != tc.want {
			t.Fatalf("ParseDate(%q) = %s, want %s", tc.in, got.Format("2006-01-02"), tc.want)
		}
		if got.Location() != loc || got.Hour() != 0 {
			t.Fatalf("ParseDate(%q) should be midnight in zone, got %s", tc.in, got)
		}
	}

	for _, bad := range []string{"", "someday", "next blursday"} {
		if _, err := scheduling.ParseDate(bad, now, loc); !errors.Is(err, scheduling.ErrInvalidInput) {
			t.Fatalf("ParseDate(%q) expected invalid input, got %v", bad, err)
		}
	}
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in     string
		hour   int
		minute int
	}{
		{"2:00 PM", 14, 0},
		{"2pm", 14, 0},
		{"10:30 a.m.", 10, 30},
		{"12 am", 0, 0},
		{"12pm", 12, 0},
		{"14:15", 14, 15},
		{"9", 9, 0},
		{"noon", 12, 0},
		{"3 o'clock", 3, 0},
	}
	for _, tc := range cases {
		h, m, err := scheduling.ParseClock(tc.in)
		if err != nil {
			t.Fatalf("ParseClock(%q) error: %v", tc.in, err)
		}
		if h != tc.hour || m != tc.minute {
			t.Fatalf("ParseClock(%q) = %d:%02d, want %d:%02d", tc.in, h, m, tc.hour, tc.minute)
		}
	}

	for _, bad := range []string{"13pm", "25:00", "10:75", "later"} {
		if _, _, err := scheduling.ParseClock(bad); err == nil {
			t.Fatalf("ParseClock(%q) expected error", bad)
		}
	}
}

func TestParseDateTime(t *testing.T) {
	loc := nyc(t)
	now := time.Date(2026, time.October, 14, 15, 0, 0, 0, loc)

	got, err := scheduling.ParseDateTime("tomorrow", "2:30 PM", now, loc)
	if err != nil {
		t.Fatalf("ParseDateTime error: %v", err)
	}
	want := time.Date(2026, time.October, 15, 14, 30, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestParseISO(t *testing.T) {
	loc := nyc(t)
	now := time.Date(2026, time.October, 14, 15, 0, 0, 0, loc)

	cases := []struct {
		in   string
		want time.Time
	}{
		{"2026-10-15T14:00:00", time.Date(2026, time.October, 15, 14, 0, 0, 0, loc)},
		{"2026-10-15T14:00", time.Date(2026, time.October, 15, 14, 0, 0, 0, loc)},
		{"2026-10-15T18:00:00Z", time.Date(2026, time.October, 15, 14, 0, 0, 0, loc)},
		{"2026-10-15T14:00:00-04:00", time.Date(2026, time.October, 15, 14, 0, 0, 0, loc)},
		{"tomorrow at 3pm", time.Date(2026, time.October, 15, 15, 0, 0, 0, loc)},
		{"next monday 10:00 am", time.Date(2026, time.October, 19, 10, 0, 0, 0, loc)},
	}
	for _, tc := range cases {
		got, err := scheduling.ParseISO(tc.in, now, loc)
		if err != nil {
			t.Fatalf("ParseISO(%q) error: %v", tc.in, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("ParseISO(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}

	if _, err := scheduling.ParseISO("whenever works", now, loc); !errors.Is(err, scheduling.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
