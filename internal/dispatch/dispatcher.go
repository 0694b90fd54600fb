// Package dispatch hands structured notifications to delivery. A dispatched
// notification is persisted first and then published for delivery workers.
package dispatch

import (
	"context"
	"fmt"

	"anti-ghosting/internal/clock"
	"anti-ghosting/internal/domain/notification"
	"anti-ghosting/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, req notification.Request) (notification.Notification, error)
}

type Publisher interface {
	Publish(ctx context.Context, n notification.Notification) error
}

type Service struct {
	repo      repository.NotificationRepository
	publisher Publisher
	clock     clock.Clock
	logger    logrus.FieldLogger
}

// NewService builds a dispatcher. A nil publisher stores notifications
// without handing them off, leaving them unsent.
func NewService(repo repository.NotificationRepository, publisher Publisher, clk clock.Clock, logger logrus.FieldLogger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{repo: repo, publisher: publisher, clock: clock.OrSystem(clk), logger: logger}
}

func (s *Service) Dispatch(ctx context.Context, req notification.Request) (notification.Notification, error) {
	if s == nil || s.repo == nil {
		return notification.Notification{}, fmt.Errorf("dispatch: nil repository")
	}

	n := notification.FromRequest(uuid.New(), req, s.clock.Now())
	if err := s.repo.Create(ctx, n); err != nil {
		return notification.Notification{}, fmt.Errorf("persist notification: %w", err)
	}

	log := s.logger.WithFields(logrus.Fields{
		"component":       "dispatcher",
		"notification_id": n.ID,
		"application_id":  n.ApplicationID,
		"type":            n.Type,
	})

	if s.publisher == nil {
		log.Debug("notification stored")
		return n, nil
	}

	if err := s.publisher.Publish(ctx, n); err != nil {
		log.WithField("status", "error").WithError(err).Warn("notification publish failed")
		return n, err
	}

	sentAt := s.clock.Now()
	if err := s.repo.MarkSent(ctx, n.ID, sentAt); err != nil {
		return n, fmt.Errorf("mark notification sent: %w", err)
	}
	n.Sent = true
	n.SentAt = &sentAt

	log.Debug("notification dispatched")
	return n, nil
}

var _ Dispatcher = (*Service)(nil)
