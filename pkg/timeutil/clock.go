package timeutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const MinutesPerDay = 24 * 60

var (
	ErrMalformedTime = errors.New("malformed time")
	ErrOutOfDay      = errors.New("time is outside of a single day")
)

// ToMinutes parses an H:MM or HH:MM time of day into minutes since midnight.
// Signs, spaces and single-digit minutes are rejected.
func ToMinutes(clock string) (int, error) {
	hh, mm, ok := strings.Cut(clock, ":")
	if !ok || len(hh) < 1 || len(hh) > 2 || len(mm) != 2 || !digits(hh) || !digits(mm) {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, clock)
	}
	hour, _ := strconv.Atoi(hh)
	minute, _ := strconv.Atoi(mm)
	if hour > 23 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, clock)
	}
	return hour*60 + minute, nil
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Canonical rewrites a valid time of day as zero-padded HH:MM.
func Canonical(clock string) (string, error) {
	minutes, err := ToMinutes(clock)
	if err != nil {
		return "", err
	}
	return ToTimeString(minutes)
}

// ToTimeString formats minutes since midnight as HH:MM. The end of the day is
// rendered as 24:00; anything past it is rejected instead of wrapping around.
func ToTimeString(minutes int) (string, error) {
	if minutes < 0 || minutes > MinutesPerDay {
		return "", fmt.Errorf("%w: %d minutes", ErrOutOfDay, minutes)
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60), nil
}

// EndTime returns the time of day a meeting starting at start ends.
func EndTime(start string, durationMinutes int) (string, error) {
	begin, err := ToMinutes(start)
	if err != nil {
		return "", err
	}
	return ToTimeString(begin + durationMinutes)
}

func FormatDuration(minutes int) string {
	switch minutes {
	case 30:
		return "30 minutes"
	case 60:
		return "1 hour"
	case 120:
		return "2 hours"
	case 180:
		return "3 hours"
	}
	return fmt.Sprintf("%d minutes", minutes)
}

// Interval is a half-open range [Start, End) of minutes since midnight.
type Interval struct {
	Start int
	End   int
}

// NewInterval builds the interval occupied by a meeting. Meetings may end at
// midnight but never cross it.
func NewInterval(start string, durationMinutes int) (Interval, error) {
	begin, err := ToMinutes(start)
	if err != nil {
		return Interval{}, err
	}
	if durationMinutes <= 0 {
		return Interval{}, fmt.Errorf("%w: non-positive duration %d", ErrOutOfDay, durationMinutes)
	}
	end := begin + durationMinutes
	if end > MinutesPerDay {
		return Interval{}, fmt.Errorf("%w: %s + %d minutes", ErrOutOfDay, start, durationMinutes)
	}
	return Interval{Start: begin, End: end}, nil
}

// Overlaps reports whether two intervals intersect. Intervals that only touch
// at an endpoint do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && i.End > other.Start
}
