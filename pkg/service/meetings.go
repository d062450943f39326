package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pershin-daniil/MeetBot/pkg/metrics"
	"github.com/pershin-daniil/MeetBot/pkg/models"
	"github.com/pershin-daniil/MeetBot/pkg/timeutil"
)

// Create stores a meeting and one unread notification per participant.
// Participants are not checked for availability here: callers check each one
// while the meeting is being assembled, so two concurrent requests may still
// book the same slot.
func (s *ScheduleService) Create(ctx context.Context, creator string, date timeutil.Date, start string, durationMinutes int, participants []string) (int, error) {
	if !s.roles.IsCreator(creator) {
		return 0, fmt.Errorf("err creating meeting: %s may not schedule meetings: %w", creator, models.ErrForbidden)
	}
	if err := validateMeeting(date, start, durationMinutes, participants); err != nil {
		return 0, fmt.Errorf("err creating meeting: %w", err)
	}
	start, err := timeutil.Canonical(start)
	if err != nil {
		return 0, fmt.Errorf("err creating meeting: %w", err)
	}
	meeting := models.Meeting{
		Creator:         creator,
		Date:            date,
		StartTime:       start,
		DurationMinutes: durationMinutes,
		Participants:    append([]string{}, participants...),
	}
	id, err := s.store.InsertMeeting(ctx, meeting)
	if err != nil {
		return 0, fmt.Errorf("err creating meeting: %w", err)
	}
	meeting.ID = id
	metrics.MeetingsCreated.Inc()
	s.log.Infof("meeting %d created by %s on %s %s-%s with %d participants",
		id, creator, date.Label(), start, meeting.EndTime(), len(participants))
	s.notifyCreated(ctx, meeting)
	return id, nil
}

func validateMeeting(date timeutil.Date, start string, durationMinutes int, participants []string) error {
	if date.IsZero() {
		return fmt.Errorf("%w: date is required", models.ErrInvalidMeeting)
	}
	if _, err := timeutil.NewInterval(start, durationMinutes); err != nil {
		if errors.Is(err, timeutil.ErrMalformedTime) {
			return err
		}
		return fmt.Errorf("%w: %v", models.ErrInvalidMeeting, err)
	}
	for _, p := range participants {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: empty participant name", models.ErrInvalidMeeting)
		}
	}
	return nil
}

func (s *ScheduleService) Meeting(ctx context.Context, id int) (models.Meeting, error) {
	meeting, err := s.store.MeetingByID(ctx, id)
	if err != nil {
		return models.Meeting{}, fmt.Errorf("err getting meeting (id %d): %w", id, err)
	}
	return meeting, nil
}

// Delete removes a meeting on behalf of its creator.
func (s *ScheduleService) Delete(ctx context.Context, user string, id int) error {
	meeting, err := s.store.MeetingByID(ctx, id)
	if err != nil {
		return fmt.Errorf("err deleting meeting (id %d): %w", id, err)
	}
	if meeting.Creator != user {
		return fmt.Errorf("err deleting meeting (id %d): %s is not its creator: %w", id, user, models.ErrForbidden)
	}
	if err = s.store.DeleteMeeting(ctx, id); err != nil {
		return fmt.Errorf("err deleting meeting (id %d): %w", id, err)
	}
	metrics.MeetingsDeleted.WithLabelValues("creator").Inc()
	s.log.Infof("meeting %d deleted by %s", id, user)
	s.notifyDeleted(ctx, meeting)
	return nil
}

func (s *ScheduleService) meetingsOf(ctx context.Context, creator string) ([]models.Meeting, error) {
	if creator == "" {
		return s.store.AllMeetings(ctx)
	}
	return s.store.MeetingsByCreator(ctx, creator)
}

// PastMeetings lists meetings dated before today, oldest first. An empty
// creator selects everyone's meetings.
func (s *ScheduleService) PastMeetings(ctx context.Context, creator string) ([]models.Meeting, error) {
	meetings, err := s.meetingsOf(ctx, creator)
	if err != nil {
		return nil, fmt.Errorf("err getting past meetings: %w", err)
	}
	today := timeutil.DateOf(s.now())
	past := make([]models.Meeting, 0, len(meetings))
	for _, m := range meetings {
		if IsPast(m.Date, today) {
			past = append(past, m)
		}
	}
	return past, nil
}

// FutureMeetings lists the creator's meetings dated today or later, latest first.
func (s *ScheduleService) FutureMeetings(ctx context.Context, creator string) ([]models.Meeting, error) {
	meetings, err := s.meetingsOf(ctx, creator)
	if err != nil {
		return nil, fmt.Errorf("err getting future meetings: %w", err)
	}
	today := timeutil.DateOf(s.now())
	future := make([]models.Meeting, 0, len(meetings))
	for i := len(meetings) - 1; i >= 0; i-- {
		if !IsPast(meetings[i].Date, today) {
			future = append(future, meetings[i])
		}
	}
	return future, nil
}

// IsPast is the single place that decides whether a meeting date has elapsed.
// Dates carry their year, so a meeting in early January is not mistaken for
// a past one in December.
func IsPast(date, today timeutil.Date) bool {
	return date.Before(today)
}
