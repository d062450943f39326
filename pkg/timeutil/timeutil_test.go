package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestToMinutes(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "09:30", want: 570},
		{in: "23:59", want: 1439},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "12", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "1:2:3", wantErr: true},
		{in: "-1:00", wantErr: true},
		{in: "9:00", want: 540},
		{in: "+9:00", wantErr: true},
		{in: " 9:00", wantErr: true},
		{in: "09:00 ", wantErr: true},
		{in: "9:0", wantErr: true},
		{in: "009:00", wantErr: true},
		{in: ":30", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ToMinutes(tc.in)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrMalformedTime)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestCanonical(t *testing.T) {
	s, err := Canonical("9:05")
	require.NoError(t, err)
	require.Equal(t, "09:05", s)

	s, err = Canonical("14:30")
	require.NoError(t, err)
	require.Equal(t, "14:30", s)

	_, err = Canonical("+9:00")
	require.ErrorIs(t, err, ErrMalformedTime)
}

func TestToTimeString(t *testing.T) {
	s, err := ToTimeString(545)
	require.NoError(t, err)
	require.Equal(t, "09:05", s)

	s, err = ToTimeString(MinutesPerDay)
	require.NoError(t, err)
	require.Equal(t, "24:00", s)

	_, err = ToTimeString(MinutesPerDay + 30)
	require.ErrorIs(t, err, ErrOutOfDay)
	_, err = ToTimeString(-1)
	require.ErrorIs(t, err, ErrOutOfDay)
}

func TestEndTimeRoundTrip(t *testing.T) {
	for _, start := range []string{"00:00", "09:00", "14:30", "21:15"} {
		for _, d := range []int{30, 60, 120, 180} {
			begin, err := ToMinutes(start)
			require.NoError(t, err)
			if begin+d >= MinutesPerDay {
				continue
			}
			end, err := EndTime(start, d)
			require.NoError(t, err)
			got, err := ToMinutes(end)
			require.NoError(t, err)
			require.Equal(t, begin+d, got)
		}
	}

	_, err := EndTime("23:00", 120)
	require.ErrorIs(t, err, ErrOutOfDay)
	_, err = EndTime("9h", 60)
	require.ErrorIs(t, err, ErrMalformedTime)
}

func TestFormatDuration(t *testing.T) {
	require.Equal(t, "30 minutes", FormatDuration(30))
	require.Equal(t, "1 hour", FormatDuration(60))
	require.Equal(t, "2 hours", FormatDuration(120))
	require.Equal(t, "3 hours", FormatDuration(180))
	require.Equal(t, "45 minutes", FormatDuration(45))
	require.Equal(t, "90 minutes", FormatDuration(90))
}

func TestIntervalOverlaps(t *testing.T) {
	mustInterval := func(start string, d int) Interval {
		i, err := NewInterval(start, d)
		require.NoError(t, err)
		return i
	}
	nineToTen := mustInterval("09:00", 60)

	t.Run("back to back", func(t *testing.T) {
		tenToEleven := mustInterval("10:00", 60)
		require.False(t, nineToTen.Overlaps(tenToEleven))
		require.False(t, tenToEleven.Overlaps(nineToTen))
	})

	t.Run("partial overlap", func(t *testing.T) {
		other := mustInterval("09:30", 60)
		require.True(t, nineToTen.Overlaps(other))
		require.True(t, other.Overlaps(nineToTen))
	})

	t.Run("containment", func(t *testing.T) {
		inner := mustInterval("09:15", 30)
		require.True(t, nineToTen.Overlaps(inner))
		require.True(t, inner.Overlaps(nineToTen))
	})

	t.Run("symmetry", func(t *testing.T) {
		starts := []string{"08:00", "08:30", "09:00", "09:45", "10:00", "11:00"}
		for _, a := range starts {
			for _, b := range starts {
				x, y := mustInterval(a, 60), mustInterval(b, 90)
				require.Equal(t, x.Overlaps(y), y.Overlaps(x), "%s vs %s", a, b)
			}
		}
	})

	t.Run("midnight", func(t *testing.T) {
		i, err := NewInterval("23:00", 60)
		require.NoError(t, err)
		require.Equal(t, MinutesPerDay, i.End)
		_, err = NewInterval("23:00", 61)
		require.ErrorIs(t, err, ErrOutOfDay)
		_, err = NewInterval("10:00", 0)
		require.ErrorIs(t, err, ErrOutOfDay)
	})
}

func TestParseDate(t *testing.T) {
	now := time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

	d, err := ParseDate("2027-01-04", now)
	require.NoError(t, err)
	require.Equal(t, Date{Year: 2027, Month: time.January, Day: 4}, d)

	d, err = ParseDate("20.10", now)
	require.NoError(t, err)
	require.Equal(t, Date{Year: 2026, Month: time.October, Day: 20}, d)

	d, err = ParseDate("01.10", now)
	require.NoError(t, err)
	require.Equal(t, 2026, d.Year, "same month stays in the current year")

	d, err = ParseDate("12.01", now)
	require.NoError(t, err)
	require.Equal(t, 2027, d.Year)

	for _, bad := range []string{"", "31.02", "1.13", "x.y", "2026/10/01"} {
		_, err = ParseDate(bad, now)
		require.Error(t, err, bad)
	}
}

func TestDateOrderingAcrossYears(t *testing.T) {
	dec := Date{Year: 2026, Month: time.December, Day: 31}
	jan := Date{Year: 2027, Month: time.January, Day: 1}
	require.True(t, dec.Before(jan))
	require.False(t, jan.Before(dec))
	require.False(t, dec.Before(dec))
	require.Equal(t, "31.12", dec.Label())
	require.Equal(t, "2027-01-01", jan.String())
}

func TestDateText(t *testing.T) {
	var d Date
	require.NoError(t, d.UnmarshalText([]byte("2026-11-02")))
	text, err := d.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "2026-11-02", string(text))
	require.Error(t, d.UnmarshalText([]byte("02.11")))

	text, err = Date{}.MarshalText()
	require.NoError(t, err)
	require.Empty(t, text)
	require.NoError(t, d.UnmarshalText(nil))
	require.True(t, d.IsZero())
}

func TestNextWorkdays(t *testing.T) {
	saturday := time.Date(2026, time.October, 17, 10, 0, 0, 0, time.UTC)
	days := NextWorkdays(saturday, 3)
	require.Len(t, days, 3)
	require.Equal(t, Date{Year: 2026, Month: time.October, Day: 19}, days[0].Date)
	require.Equal(t, "19.10", days[0].Label)
	require.Equal(t, "20.10", days[1].Label)
	require.Equal(t, "21.10", days[2].Label)
	for i, d := range days {
		require.True(t, DefaultWorkWeek.Contains(d.Date.Weekday()))
		if i > 0 {
			require.True(t, days[i-1].Date.Before(d.Date))
		}
	}
}

func TestNextWorkdaysDefaults(t *testing.T) {
	thursday := time.Date(2026, time.December, 31, 8, 0, 0, 0, time.UTC)
	days := NextWorkdays(thursday, 0)
	require.Len(t, days, DefaultWorkdayCount)
	require.Equal(t, "31.12", days[0].Label, "start day is included")
	require.Equal(t, "01.01", days[1].Label)
	require.Equal(t, 2027, days[1].Date.Year)
	require.Equal(t, "04.01", days[2].Label)

	require.Nil(t, WorkWeek{}.NextWorkdays(thursday, 3))
}

func TestAvailableTimes(t *testing.T) {
	slots := []string{"09:00", "10:00", "11:00", "14:00", "15:00", "16:00"}
	now := time.Date(2026, time.October, 15, 10, 30, 0, 0, time.UTC)

	require.Equal(t, []string{"11:00", "14:00", "15:00", "16:00"}, AvailableTimes(slots, DateOf(now), now))

	atSlot := time.Date(2026, time.October, 15, 14, 0, 0, 0, time.UTC)
	require.Equal(t, []string{"15:00", "16:00"}, AvailableTimes(slots, DateOf(atSlot), atSlot))

	tomorrow := Date{Year: 2026, Month: time.October, Day: 16}
	require.Equal(t, slots, AvailableTimes(slots, tomorrow, now))

	late := time.Date(2026, time.October, 15, 18, 0, 0, 0, time.UTC)
	require.Empty(t, AvailableTimes(slots, DateOf(late), late))
}
