// Package visit holds the pure calendar arithmetic for a speaker's
// three-day visit: the window derived from the seminar date and the
// hour-granular times used by agenda meetings. It performs no I/O.
package visit

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrEndNotAfterStart is returned when a slot's end does not follow its start.
	ErrEndNotAfterStart = errors.New("visit: end time must be after start time")
	// ErrOutsideWindow is returned when a meeting date falls outside the visit window.
	ErrOutsideWindow = errors.New("visit: date falls outside the visit window")
	// ErrInvalidTimeOfDay is returned for malformed or out-of-range clock values.
	ErrInvalidTimeOfDay = errors.New("visit: invalid time of day")
)

// TimeOfDay is a wall-clock time on the agenda grid.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// At constructs a TimeOfDay without validation; use for literals.
func At(hour, minute int) TimeOfDay {
	return TimeOfDay{Hour: hour, Minute: minute}
}

// ParseTimeOfDay parses "HH:MM". The whole input must be the two unsigned
// components; trailing text or sign characters are rejected.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	hours, minutes, ok := strings.Cut(value, ":")
	if !ok {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	t, err := timeOfDayFromParts(hours, minutes)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	return t, nil
}

func timeOfDayFromParts(hours, minutes string) (TimeOfDay, error) {
	hour, err := parseClockComponent(hours)
	if err != nil {
		return TimeOfDay{}, err
	}
	minute, err := parseClockComponent(minutes)
	if err != nil {
		return TimeOfDay{}, err
	}
	t := TimeOfDay{Hour: hour, Minute: minute}
	if !t.Valid() {
		return TimeOfDay{}, ErrInvalidTimeOfDay
	}
	return t, nil
}

func parseClockComponent(part string) (int, error) {
	if part == "" || len(part) > 2 {
		return 0, ErrInvalidTimeOfDay
	}
	value := 0
	for _, digit := range part {
		if digit < '0' || digit > '9' {
			return 0, ErrInvalidTimeOfDay
		}
		value = value*10 + int(digit-'0')
	}
	return value, nil
}

// Valid reports whether the value is a real clock time.
func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour < 24 && t.Minute >= 0 && t.Minute < 60
}

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Before reports whether t precedes other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.Minutes() < other.Minutes()
}

// String renders the value as zero-padded "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On combines the clock value with a calendar day into a UTC instant.
func (t TimeOfDay) On(date time.Time) time.Time {
	return Day(date).Add(time.Duration(t.Minutes()) * time.Minute)
}

// Day truncates a timestamp to day granularity in UTC. All calendar dates
// in the coordinator are normalized through this before comparison.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Window is the inclusive date range of a visit.
type Window struct {
	Start time.Time
	End   time.Time
}

// WindowAround derives the visit window from the seminar date: the day
// before through the day after.
func WindowAround(seminarDate time.Time) Window {
	day := Day(seminarDate)
	return Window{
		Start: day.AddDate(0, 0, -1),
		End:   day.AddDate(0, 0, 1),
	}
}

// Contains reports whether the given date (day granularity) lies inside the window.
func (w Window) Contains(date time.Time) bool {
	day := Day(date)
	return !day.Before(w.Start) && !day.After(w.End)
}

// ValidateSlot checks a candidate meeting slot against the window and the
// end-after-start rule. Overlap between meetings is not checked here.
func ValidateSlot(w Window, date time.Time, start, end TimeOfDay) error {
	if !start.Valid() || !end.Valid() {
		return ErrInvalidTimeOfDay
	}
	if !start.Before(end) {
		return ErrEndNotAfterStart
	}
	if !w.Contains(date) {
		return ErrOutsideWindow
	}
	return nil
}
