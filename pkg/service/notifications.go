package service

import (
	"context"
	"fmt"

	"github.com/pershin-daniil/MeetBot/pkg/models"
)

func (s *ScheduleService) Notifications(ctx context.Context, user string) ([]models.Notification, error) {
	notifications, err := s.store.UnreadNotifications(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("err getting notifications: %w", err)
	}
	return notifications, nil
}

// MarkNotificationRead acknowledges one of user's own notifications.
func (s *ScheduleService) MarkNotificationRead(ctx context.Context, user string, id int) error {
	n, err := s.store.NotificationByID(ctx, id)
	if err != nil {
		return fmt.Errorf("err reading notification (id %d): %w", id, err)
	}
	if n.Participant != user {
		return fmt.Errorf("err reading notification (id %d): %w", id, models.ErrForbidden)
	}
	return s.store.MarkNotificationRead(ctx, id)
}
