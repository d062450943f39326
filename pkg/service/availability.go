package service

import (
	"context"
	"fmt"

	"github.com/pershin-daniil/MeetBot/pkg/metrics"
	"github.com/pershin-daniil/MeetBot/pkg/timeutil"
)

// IsAvailable reports whether user has no meeting on date overlapping
// [start, start+duration). Only meetings the user participates in count;
// meetings the user created are not checked.
func (s *ScheduleService) IsAvailable(ctx context.Context, user string, date timeutil.Date, start string, durationMinutes int) (bool, error) {
	candidate, err := timeutil.NewInterval(start, durationMinutes)
	if err != nil {
		return false, fmt.Errorf("err checking availability of %s: %w", user, err)
	}
	meetings, err := s.store.MeetingsByParticipant(ctx, user)
	if err != nil {
		return false, fmt.Errorf("err checking availability of %s: %w", user, err)
	}
	for _, m := range meetings {
		if m.Date != date {
			continue
		}
		existing, err := timeutil.NewInterval(m.StartTime, m.DurationMinutes)
		if err != nil {
			return false, fmt.Errorf("err reading meeting %d: %w", m.ID, err)
		}
		if candidate.Overlaps(existing) {
			metrics.AvailabilityConflicts.Inc()
			s.log.Debugf("%s is busy on %s: meeting %d %s-%s", user, date.Label(), m.ID, m.StartTime, m.EndTime())
			return false, nil
		}
	}
	return true, nil
}

// BusyParticipants returns, in input order, the participants that already
// have a conflicting meeting.
func (s *ScheduleService) BusyParticipants(ctx context.Context, date timeutil.Date, start string, durationMinutes int, participants []string) ([]string, error) {
	busy := make([]string, 0)
	for _, p := range participants {
		ok, err := s.IsAvailable(ctx, p, date, start, durationMinutes)
		if err != nil {
			return nil, err
		}
		if !ok {
			busy = append(busy, p)
		}
	}
	return busy, nil
}
