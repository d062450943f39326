package models

import "github.com/pershin-daniil/MeetBot/pkg/timeutil"

// DayAgenda lists the meetings of one upcoming workday in start order.
type DayAgenda struct {
	Day      timeutil.Workday `json:"day"`
	Meetings []Meeting        `json:"meetings"`
}

// CreatorGroup is the calendar view of a day: meetings grouped by creator in
// the order creators first appear that day.
type CreatorGroup struct {
	Creator  string    `json:"creator"`
	Meetings []Meeting `json:"meetings"`
}

type DayCalendar struct {
	Day    timeutil.Workday `json:"day"`
	Groups []CreatorGroup   `json:"groups"`
}

func (d DayCalendar) Total() int {
	total := 0
	for _, g := range d.Groups {
		total += len(g.Meetings)
	}
	return total
}
