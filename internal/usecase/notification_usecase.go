package usecase

import (
	"context"

	"anti-ghosting/internal/clock"
	"anti-ghosting/internal/domain/notification"
	"anti-ghosting/internal/repository"

	"github.com/google/uuid"
)

type NotificationUsecase interface {
	ListForRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, limit int) ([]notification.Notification, error)
	MarkRead(ctx context.Context, notificationID, recipientID uuid.UUID) (notification.Notification, error)
}

type Notification struct {
	repo  repository.NotificationRepository
	clock clock.Clock
}

func NewNotificationUsecase(repo repository.NotificationRepository, clk clock.Clock) *Notification {
	return &Notification{repo: repo, clock: clock.OrSystem(clk)}
}

func (u *Notification) ListForRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, limit int) ([]notification.Notification, error) {
	if recipientID == uuid.Nil || limit < 0 {
		return nil, ErrInvalidInput
	}
	return u.repo.ListByRecipient(ctx, recipientID, unreadOnly, limit)
}

func (u *Notification) MarkRead(ctx context.Context, notificationID, recipientID uuid.UUID) (notification.Notification, error) {
	if notificationID == uuid.Nil || recipientID == uuid.Nil {
		return notification.Notification{}, ErrInvalidInput
	}
	return u.repo.MarkRead(ctx, notificationID, recipientID, u.clock.Now())
}

var _ NotificationUsecase = (*Notification)(nil)
