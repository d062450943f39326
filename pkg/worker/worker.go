package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pershin-daniil/MeetBot/pkg/metrics"
	"github.com/pershin-daniil/MeetBot/pkg/models"
	"github.com/pershin-daniil/MeetBot/pkg/timeutil"
	"github.com/sirupsen/logrus"
)

const batchSize = 50

// ErrRecipientOffline is returned by a Notifier that has no way to reach the
// user right now. The notification stays unread and is retried later.
var ErrRecipientOffline = errors.New("recipient is offline")

type Store interface {
	PendingNotifications(ctx context.Context, afterID, limit int) ([]models.Notification, error)
	MeetingByID(ctx context.Context, id int) (models.Meeting, error)
	MarkNotificationRead(ctx context.Context, id int) error
}

type Notifier interface {
	Notify(ctx context.Context, username, message string) error
}

// Worker delivers unread meeting invitations to participants.
type Worker struct {
	log      *logrus.Entry
	store    Store
	notifier Notifier
}

func New(log *logrus.Logger, store Store, notifier Notifier) *Worker {
	return &Worker{
		log:      log.WithField("component", "worker"),
		store:    store,
		notifier: notifier,
	}
}

// Run delivers pending notifications every interval until ctx is done.
func (w *Worker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := w.DeliverPending(ctx); err != nil {
			w.log.Warnf("err delivering notifications: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// DeliverPending walks every unread notification in id order, sends it and
// marks the delivered ones as read. Notifications of offline users are
// skipped without holding back the ones behind them.
func (w *Worker) DeliverPending(ctx context.Context) (int, error) {
	delivered, cursor := 0, 0
	for {
		pending, err := w.store.PendingNotifications(ctx, cursor, batchSize)
		if err != nil {
			return delivered, fmt.Errorf("worker send notification failed: %w", err)
		}
		for _, n := range pending {
			cursor = n.ID
			ok, err := w.deliver(ctx, n)
			if err != nil {
				return delivered, fmt.Errorf("worker send notification failed: %w", err)
			}
			if ok {
				delivered++
			}
		}
		if len(pending) < batchSize || ctx.Err() != nil {
			return delivered, nil
		}
	}
}

func (w *Worker) deliver(ctx context.Context, n models.Notification) (bool, error) {
	meeting, err := w.store.MeetingByID(ctx, n.MeetingID)
	if err != nil {
		if errors.Is(err, models.ErrMeetingNotFound) {
			return false, nil
		}
		return false, err
	}
	if err = w.notifier.Notify(ctx, n.Participant, InvitationText(meeting)); err != nil {
		if errors.Is(err, ErrRecipientOffline) {
			metrics.NotificationsDelivered.WithLabelValues("offline").Inc()
			return false, nil
		}
		metrics.NotificationsDelivered.WithLabelValues("failed").Inc()
		w.log.Warnf("err notifying %s about meeting %d: %v", n.Participant, meeting.ID, err)
		return false, nil
	}
	if err = w.store.MarkNotificationRead(ctx, n.ID); err != nil && !errors.Is(err, models.ErrNotificationNotFound) {
		return false, err
	}
	metrics.NotificationsDelivered.WithLabelValues("sent").Inc()
	return true, nil
}

func InvitationText(m models.Meeting) string {
	return fmt.Sprintf("You are invited to a meeting on %s at %s-%s (%s), organised by %s",
		m.Date.Label(), m.StartTime, m.EndTime(), timeutil.FormatDuration(m.DurationMinutes), m.Creator)
}
