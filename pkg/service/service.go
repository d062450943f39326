package service

import (
	"context"
	"time"

	"github.com/pershin-daniil/MeetBot/pkg/models"
	"github.com/sirupsen/logrus"
)

type Store interface {
	InsertMeeting(ctx context.Context, meeting models.Meeting) (int, error)
	AllMeetings(ctx context.Context) ([]models.Meeting, error)
	MeetingsByCreator(ctx context.Context, creator string) ([]models.Meeting, error)
	MeetingsByParticipant(ctx context.Context, user string) ([]models.Meeting, error)
	MeetingByID(ctx context.Context, id int) (models.Meeting, error)
	DeleteMeeting(ctx context.Context, id int) error
	UnreadNotifications(ctx context.Context, participant string) ([]models.Notification, error)
	NotificationByID(ctx context.Context, id int) (models.Notification, error)
	MarkNotificationRead(ctx context.Context, id int) error
	Stats(ctx context.Context) (models.Stats, error)
}

type Roles interface {
	IsCreator(name string) bool
}

// Observer is told about meetings after they are stored or removed. Its
// errors are logged and never undo the change.
type Observer interface {
	MeetingCreated(ctx context.Context, meeting models.Meeting) error
	MeetingDeleted(ctx context.Context, meeting models.Meeting) error
}

type ScheduleService struct {
	log       *logrus.Entry
	store     Store
	roles     Roles
	observers []Observer
	now       func() time.Time
}

func NewScheduleService(log *logrus.Logger, store Store, roles Roles, observers ...Observer) *ScheduleService {
	s := ScheduleService{
		log:       log.WithField("component", "service"),
		store:     store,
		roles:     roles,
		observers: observers,
		now:       time.Now,
	}
	return &s
}

// WithClock replaces the source of "today".
func (s *ScheduleService) WithClock(now func() time.Time) *ScheduleService {
	s.now = now
	return s
}

func (s *ScheduleService) Stats(ctx context.Context) (models.Stats, error) {
	return s.store.Stats(ctx)
}

func (s *ScheduleService) notifyCreated(ctx context.Context, meeting models.Meeting) {
	for _, o := range s.observers {
		if err := o.MeetingCreated(ctx, meeting); err != nil {
			s.log.Warnf("err reporting created meeting %d: %v", meeting.ID, err)
		}
	}
}

func (s *ScheduleService) notifyDeleted(ctx context.Context, meeting models.Meeting) {
	for _, o := range s.observers {
		if err := o.MeetingDeleted(ctx, meeting); err != nil {
			s.log.Warnf("err reporting deleted meeting %d: %v", meeting.ID, err)
		}
	}
}
