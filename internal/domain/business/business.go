package business

import (
	"fmt"
	"time"
)

// Profile describes the business the agents answer for.
type Profile struct {
	Name            string
	HoursText       string
	Phone           string
	Days            []time.Weekday
	StartHour       int
	EndHour         int
	Location        *time.Location
	MeetingDuration time.Duration
}

// Default mirrors the values used when nothing is configured.
func Default() Profile {
	return Profile{
		Name:            "Your Business",
		HoursText:       "Mon-Fri 9AM-5PM",
		Phone:           "+1234567890",
		Days:            []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		StartHour:       9,
		EndHour:         17,
		Location:        time.UTC,
		MeetingDuration: time.Hour,
	}
}

// Loc returns the profile zone, falling back to UTC.
func (p Profile) Loc() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// IsOpenDay reports whether t falls on a business day in the profile zone.
func (p Profile) IsOpenDay(t time.Time) bool {
	wd := t.In(p.Loc()).Weekday()
	for _, d := range p.Days {
		if d == wd {
			return true
		}
	}
	return false
}

// WithinHours reports whether t starts inside the bookable window.
func (p Profile) WithinHours(t time.Time) bool {
	h := t.In(p.Loc()).Hour()
	return h >= p.StartHour && h < p.EndHour
}

// HoursMessage is the spoken answer to "when are you open".
func (p Profile) HoursMessage() string {
	return fmt.Sprintf("Our business hours are %s. We're happy to schedule a meeting during these times.", p.HoursText)
}

// Greeting is the first line of every inbound call.
func (p Profile) Greeting() string {
	return fmt.Sprintf("Thank you for calling %s, how may I help you today?", p.Name)
}
