package store

import (
	"context"
	"fmt"

	"github.com/pershin-daniil/MeetBot/pkg/models"
)

const notificationColumns = `id, meeting_id, participant, is_read`

func (s *Store) UnreadNotifications(ctx context.Context, participant string) ([]models.Notification, error) {
	var notifications []models.Notification
	query := s.db.Rebind(`SELECT ` + notificationColumns + ` FROM notifications
WHERE participant = ? AND is_read = ?
ORDER BY id DESC`)
	err := s.retry(ctx, "UnreadNotifications", func() error {
		notifications = notifications[:0]
		return s.db.SelectContext(ctx, &notifications, query, participant, false)
	})
	if err != nil {
		return nil, fmt.Errorf("err getting notifications of %s: %w", participant, err)
	}
	return notifications, nil
}

// PendingNotifications returns unread notifications of everyone with ids above
// afterID, oldest first.
func (s *Store) PendingNotifications(ctx context.Context, afterID, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	query := s.db.Rebind(`SELECT ` + notificationColumns + ` FROM notifications
WHERE is_read = ? AND id > ?
ORDER BY id
LIMIT ?`)
	err := s.retry(ctx, "PendingNotifications", func() error {
		notifications = notifications[:0]
		return s.db.SelectContext(ctx, &notifications, query, false, afterID, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("err getting pending notifications: %w", err)
	}
	return notifications, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id int) error {
	query := s.db.Rebind(`UPDATE notifications SET is_read = ? WHERE id = ?`)
	err := s.retry(ctx, "MarkNotificationRead", func() error {
		res, err := s.db.ExecContext(ctx, query, true, id)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return models.ErrNotificationNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("err marking notification %d read: %w", id, err)
	}
	return nil
}

func (s *Store) NotificationByID(ctx context.Context, id int) (models.Notification, error) {
	var notification models.Notification
	query := s.db.Rebind(`SELECT ` + notificationColumns + ` FROM notifications WHERE id = ?`)
	err := s.retry(ctx, "NotificationByID", func() error {
		var found []models.Notification
		if err := s.db.SelectContext(ctx, &found, query, id); err != nil {
			return err
		}
		if len(found) == 0 {
			return models.ErrNotificationNotFound
		}
		notification = found[0]
		return nil
	})
	if err != nil {
		return models.Notification{}, fmt.Errorf("err getting notification %d: %w", id, err)
	}
	return notification, nil
}
