package models

import (
	"github.com/pershin-daniil/MeetBot/pkg/timeutil"
)

type Meeting struct {
	ID              int           `json:"id"`
	Creator         string        `json:"creator"`
	Date            timeutil.Date `json:"date"`
	StartTime       string        `json:"startTime"`
	DurationMinutes int           `json:"durationMinutes"`
	Participants    []string      `json:"participants"`
}

// EndTime is the wall-clock end of the meeting. Malformed records render as
// their start time so that listings never fail on a single bad row.
func (m Meeting) EndTime() string {
	end, err := timeutil.EndTime(m.StartTime, m.DurationMinutes)
	if err != nil {
		return m.StartTime
	}
	return end
}

func (m Meeting) HasParticipant(user string) bool {
	for _, p := range m.Participants {
		if p == user {
			return true
		}
	}
	return false
}

type MeetingRequest struct {
	Date            *string  `json:"date"`
	StartTime       *string  `json:"startTime"`
	DurationMinutes *int     `json:"durationMinutes"`
	Participants    []string `json:"participants"`
}

type Notification struct {
	ID          int    `json:"id" db:"id"`
	MeetingID   int    `json:"meetingId" db:"meeting_id"`
	Participant string `json:"participant" db:"participant"`
	Read        bool   `json:"read" db:"is_read"`
}
