package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format used for all scheduling dates.
const DateLayout = "2006-01-02"

// AllTimeSlots is the fixed universe of daily time slots exercises can be
// scheduled into: ten one-hour windows from 08:00 to 19:00 with a midday
// gap between 12:00 and 13:00. Order is chronological and significant.
var AllTimeSlots = []string{
	"08:00 - 09:00",
	"09:00 - 10:00",
	"10:00 - 11:00",
	"11:00 - 12:00",
	"13:00 - 14:00",
	"14:00 - 15:00",
	"15:00 - 16:00",
	"16:00 - 17:00",
	"17:00 - 18:00",
	"18:00 - 19:00",
}

// TimeSlot is the structured form of a slot label. The ID is synthesized
// deterministically from the two components, so re-parsing the same label
// always yields the same identifier; no slot id column is persisted.
type TimeSlot struct {
	ID        string `json:"id"`
	StartTime string `json:"startTime"` // "HH:MM"
	EndTime   string `json:"endTime"`   // "HH:MM"
}

var ErrInvalidTimeSlot = errors.New("invalid time slot label")

// AvailableTimeSlots returns the canonical slots minus the booked set,
// preserving chronological order. Booked labels outside the canonical
// universe (legacy or malformed data) are ignored, not an error.
func AvailableTimeSlots(booked []string) []string {
	taken := make(map[string]struct{}, len(booked))
	for _, slot := range booked {
		taken[slot] = struct{}{}
	}

	available := make([]string, 0, len(AllTimeSlots))
	for _, slot := range AllTimeSlots {
		if _, ok := taken[slot]; !ok {
			available = append(available, slot)
		}
	}
	return available
}

// IsCanonicalSlot reports whether label is one of the ten fixed slots.
func IsCanonicalSlot(label string) bool {
	for _, slot := range AllTimeSlots {
		if slot == label {
			return true
		}
	}
	return false
}

// ParseTimeSlot parses a stored "HH:MM - HH:MM" label into a TimeSlot.
func ParseTimeSlot(label string) (TimeSlot, error) {
	parts := strings.Split(label, " - ")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return TimeSlot{}, fmt.Errorf("%w: %q", ErrInvalidTimeSlot, label)
	}
	return TimeSlot{
		ID:        "ts-" + parts[0] + "-" + parts[1],
		StartTime: parts[0],
		EndTime:   parts[1],
	}, nil
}

// WeekDay is a named day of the week used for calendar display.
type WeekDay string

const (
	Monday    WeekDay = "monday"
	Tuesday   WeekDay = "tuesday"
	Wednesday WeekDay = "wednesday"
	Thursday  WeekDay = "thursday"
	Friday    WeekDay = "friday"
	Saturday  WeekDay = "saturday"
	Sunday    WeekDay = "sunday"
)

// weekDays indexed by time.Weekday (Sunday = 0).
var weekDays = [7]WeekDay{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// ParseDate validates and parses an ISO "2006-01-02" date string.
func ParseDate(date string) (time.Time, error) {
	return time.Parse(DateLayout, date)
}

// WeekDayFromDate derives the named weekday for an ISO date string.
func WeekDayFromDate(date string) (WeekDay, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return weekDays[t.Weekday()], nil
}
