package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	isoLayout   = "2006-01-02"
	labelLayout = "02.01"
)

// Date is a calendar day without a time of day. Meetings are shown by their
// DD.MM label but compared as full dates so that ordering survives New Year.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate accepts YYYY-MM-DD or DD.MM. A DD.MM label belongs to the current
// year unless its month is already behind now, in which case it is next year's.
func ParseDate(s string, now time.Time) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(isoLayout, s); err == nil {
		return DateOf(t), nil
	}
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return Date{}, fmt.Errorf("invalid date %q", s)
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	year := now.Year()
	if time.Month(month) < now.Month() {
		year++
	}
	d := Date{Year: year, Month: time.Month(month), Day: day}
	if !d.valid() {
		return Date{}, fmt.Errorf("invalid date %q", s)
	}
	return d, nil
}

func (d Date) valid() bool {
	if d.Month < time.January || d.Month > time.December || d.Day < 1 {
		return false
	}
	return DateOf(d.Time(time.UTC)) == d
}

func (d Date) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Label renders the DD.MM form used in menus and persisted records.
func (d Date) Label() string {
	return d.Time(time.UTC).Format(labelLayout)
}

func (d Date) String() string {
	return d.Time(time.UTC).Format(isoLayout)
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

func (d Date) Weekday() time.Weekday {
	return d.Time(time.UTC).Weekday()
}

func (d Date) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(isoLayout, string(text))
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", text, err)
	}
	*d = DateOf(t)
	return nil
}
