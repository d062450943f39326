package timeutil

import (
	"time"
)

const DefaultWorkdayCount = 10

type Workday struct {
	Date  Date   `json:"date"`
	Label string `json:"label"`
}

// WorkWeek is the set of weekdays meetings can be scheduled on.
type WorkWeek []time.Weekday

var DefaultWorkWeek = WorkWeek{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

func (w WorkWeek) Contains(day time.Weekday) bool {
	for _, d := range w {
		if d == day {
			return true
		}
	}
	return false
}

// NextWorkdays walks forward from start (inclusive) and collects count days
// that fall on the work week. Holidays are not skipped.
func (w WorkWeek) NextWorkdays(start time.Time, count int) []Workday {
	if count <= 0 {
		count = DefaultWorkdayCount
	}
	if len(w) == 0 {
		return nil
	}
	result := make([]Workday, 0, count)
	current := DateOf(start).Time(time.UTC)
	for len(result) < count {
		if w.Contains(current.Weekday()) {
			d := DateOf(current)
			result = append(result, Workday{Date: d, Label: d.Label()})
		}
		current = current.AddDate(0, 0, 1)
	}
	return result
}

func NextWorkdays(start time.Time, count int) []Workday {
	return DefaultWorkWeek.NextWorkdays(start, count)
}

// AvailableTimes filters the offered start times for date. For today only the
// slots strictly after the current minute remain; malformed slots are dropped.
func AvailableTimes(slots []string, date Date, now time.Time) []string {
	if date != DateOf(now) {
		return append([]string(nil), slots...)
	}
	current := now.Hour()*60 + now.Minute()
	available := make([]string, 0, len(slots))
	for _, slot := range slots {
		minutes, err := ToMinutes(slot)
		if err != nil {
			continue
		}
		if minutes > current {
			available = append(available, slot)
		}
	}
	return available
}
