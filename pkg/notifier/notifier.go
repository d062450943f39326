package notifier

import (
	"context"

	"github.com/sirupsen/logrus"
)

// DummyNotifier only logs invitations. It is used when no chat transport is
// configured.
type DummyNotifier struct {
	log *logrus.Entry
}

func New(log *logrus.Logger) *DummyNotifier {
	return &DummyNotifier{
		log: log.WithField("component", "notifier"),
	}
}

func (n *DummyNotifier) Notify(_ context.Context, username, message string) error {
	n.log.Infof("notifying user %s: %s", username, message)
	return nil
}
