package service

import (
	"context"
	"fmt"

	"github.com/pershin-daniil/MeetBot/pkg/models"
	"github.com/pershin-daniil/MeetBot/pkg/timeutil"
)

func (s *ScheduleService) Workdays(count int) []timeutil.Workday {
	return timeutil.NextWorkdays(s.now(), count)
}

func (s *ScheduleService) Today() timeutil.Date {
	return timeutil.DateOf(s.now())
}

// AvailableTimes narrows the offered start times for date to those not yet
// started when date is today.
func (s *ScheduleService) AvailableTimes(slots []string, date timeutil.Date) []string {
	return timeutil.AvailableTimes(slots, date, s.now())
}

// CreatorAgenda lists the meetings created by creator on each upcoming workday.
func (s *ScheduleService) CreatorAgenda(ctx context.Context, creator string, days int) ([]models.DayAgenda, error) {
	meetings, err := s.store.MeetingsByCreator(ctx, creator)
	if err != nil {
		return nil, fmt.Errorf("err building agenda of %s: %w", creator, err)
	}
	return agenda(s.Workdays(days), meetings), nil
}

// ParticipantAgenda lists the meetings user is invited to on each upcoming workday.
func (s *ScheduleService) ParticipantAgenda(ctx context.Context, user string, days int) ([]models.DayAgenda, error) {
	meetings, err := s.store.MeetingsByParticipant(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("err building agenda of %s: %w", user, err)
	}
	return agenda(s.Workdays(days), meetings), nil
}

// Calendar lists everyone's meetings on each upcoming workday, grouped by creator.
func (s *ScheduleService) Calendar(ctx context.Context, days int) ([]models.DayCalendar, error) {
	meetings, err := s.store.AllMeetings(ctx)
	if err != nil {
		return nil, fmt.Errorf("err building calendar: %w", err)
	}
	result := make([]models.DayCalendar, 0, days)
	for _, day := range agenda(s.Workdays(days), meetings) {
		entry := models.DayCalendar{Day: day.Day, Groups: make([]models.CreatorGroup, 0)}
		index := make(map[string]int)
		for _, m := range day.Meetings {
			i, ok := index[m.Creator]
			if !ok {
				i = len(entry.Groups)
				index[m.Creator] = i
				entry.Groups = append(entry.Groups, models.CreatorGroup{Creator: m.Creator})
			}
			entry.Groups[i].Meetings = append(entry.Groups[i].Meetings, m)
		}
		result = append(result, entry)
	}
	return result, nil
}

func agenda(days []timeutil.Workday, meetings []models.Meeting) []models.DayAgenda {
	byDate := make(map[timeutil.Date][]models.Meeting, len(days))
	for _, m := range meetings {
		byDate[m.Date] = append(byDate[m.Date], m)
	}
	result := make([]models.DayAgenda, 0, len(days))
	for _, d := range days {
		result = append(result, models.DayAgenda{Day: d, Meetings: byDate[d.Date]})
	}
	return result
}
