package scheduling

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ordinalRE = regexp.MustCompile(`(\d+)(st|nd|rd|th)\b`)
	clockRE   = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?(?::(\d{2}))?(am|pm)?$`)
	spaceRE   = regexp.MustCompile(`\s+`)
)

var datedLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"Monday, January 2, 2006",
	"Monday January 2 2006",
	"Mon, Jan 2, 2006",
}

var yearlessLayouts = []string{
	"January 2",
	"Jan 2",
	"2 January",
	"2 Jan",
	"1/2",
	"01/02",
	"Monday, January 2",
	"Monday January 2",
}

var isoLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// ParseDate resolves a spoken or written date to midnight in loc. Relative
// forms are evaluated against now.
func ParseDate(input string, now time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	s := normalize(input)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", ErrInvalidInput)
	}

	switch s {
	case "today", "now":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case "day after tomorrow", "the day after tomorrow":
		return today.AddDate(0, 0, 2), nil
	}

	if d, ok := parseWeekday(s, today); ok {
		return d, nil
	}

	s = ordinalRE.ReplaceAllString(s, "$1")
	for _, layout := range datedLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	for _, layout := range yearlessLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			continue
		}
		d := time.Date(today.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		if d.Before(today) {
			d = d.AddDate(1, 0, 0)
		}
		return d, nil
	}

	return time.Time{}, fmt.Errorf("%w: unrecognised date %q", ErrInvalidInput, input)
}

func parseWeekday(s string, today time.Time) (time.Time, bool) {
	strict := false
	switch {
	case strings.HasPrefix(s, "next "):
		strict = true
		s = strings.TrimPrefix(s, "next ")
	case strings.HasPrefix(s, "this "):
		s = strings.TrimPrefix(s, "this ")
	case strings.HasPrefix(s, "on "):
		s = strings.TrimPrefix(s, "on ")
	}
	if len(s) < 3 || strings.ContainsAny(s, " 0123456789,") {
		return time.Time{}, false
	}
	wd, ok := weekdayNames[s[:3]]
	if !ok || !isWeekdayWord(s) {
		return time.Time{}, false
	}

	delta := (int(wd) - int(today.Weekday()) + 7) % 7
	if delta == 0 && strict {
		delta = 7
	}
	return today.AddDate(0, 0, delta), true
}

func isWeekdayWord(s string) bool {
	for _, full := range []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"} {
		if strings.HasPrefix(full, s) {
			return true
		}
	}
	return s == "tues" || s == "thur" || s == "thurs"
}

// ParseClock reads times such as "2:00 PM", "2pm", "14:00" or "noon".
func ParseClock(input string) (hour, minute int, err error) {
	s := strings.ToLower(strings.TrimSpace(input))
	s = strings.NewReplacer(" ", "", ".", "", "o'clock", "", "oclock", "").Replace(s)
	switch s {
	case "noon", "midday":
		return 12, 0, nil
	case "midnight":
		return 0, 0, nil
	}

	m := clockRE.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("%w: unrecognised time %q", ErrInvalidInput, input)
	}
	hour, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if minute > 59 {
		return 0, 0, fmt.Errorf("%w: invalid minutes in %q", ErrInvalidInput, input)
	}

	switch m[4] {
	case "am", "pm":
		if hour < 1 || hour > 12 {
			return 0, 0, fmt.Errorf("%w: invalid hour in %q", ErrInvalidInput, input)
		}
		if hour == 12 {
			hour = 0
		}
		if m[4] == "pm" {
			hour += 12
		}
	default:
		if hour > 23 {
			return 0, 0, fmt.Errorf("%w: invalid hour in %q", ErrInvalidInput, input)
		}
	}
	return hour, minute, nil
}

// ParseDateTime combines a date phrase and a clock phrase in loc.
func ParseDateTime(date, clock string, now time.Time, loc *time.Location) (time.Time, error) {
	day, err := ParseDate(date, now, loc)
	if err != nil {
		return time.Time{}, err
	}
	hour, minute, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location()), nil
}

// ParseISO reads an ISO-8601 timestamp. Timestamps without an offset are
// taken in loc. Free-form "<date> at <time>" input is accepted as well.
func ParseISO(input string, now time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := strings.TrimSpace(input)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04Z07:00"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}

	lower := normalize(s)
	if idx := strings.LastIndex(lower, " at "); idx > 0 {
		return ParseDateTime(lower[:idx], lower[idx+4:], now, loc)
	}
	fields := strings.Split(lower, " ")
	for i := len(fields) - 1; i > 0; i-- {
		t, err := ParseDateTime(strings.Join(fields[:i], " "), strings.Join(fields[i:], " "), now, loc)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognised date and time %q", ErrInvalidInput, input)
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return spaceRE.ReplaceAllString(s, " ")
}
