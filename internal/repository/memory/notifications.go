package memory

import (
	"context"
	"sort"
	"time"

	"anti-ghosting/internal/domain/notification"
	"anti-ghosting/internal/repository"

	"github.com/google/uuid"
)

type Notifications struct {
	s *Store
}

var _ repository.NotificationRepository = (*Notifications)(nil)

func (r *Notifications) Create(_ context.Context, n notification.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.notifications = append(r.s.notifications, n)
	return nil
}

func (r *Notifications) MarkSent(_ context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.notifications {
		if r.s.notifications[i].ID == id {
			r.s.notifications[i].Sent = true
			r.s.notifications[i].SentAt = &at
			return nil
		}
	}
	return notification.ErrNotFound
}

func (r *Notifications) MarkRead(_ context.Context, id, recipientID uuid.UUID, at time.Time) (notification.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.notifications {
		n := &r.s.notifications[i]
		if n.ID != id || n.RecipientID != recipientID {
			continue
		}
		if n.ReadAt == nil {
			n.ReadAt = &at
		}
		return *n, nil
	}
	return notification.Notification{}, notification.ErrNotFound
}

func (r *Notifications) ListByRecipient(_ context.Context, recipientID uuid.UUID, unreadOnly bool, limit int) ([]notification.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]notification.Notification, 0)
	for _, n := range r.s.notifications {
		if n.RecipientID != recipientID || (unreadOnly && n.ReadAt != nil) {
			continue
		}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Notifications) ListByApplication(_ context.Context, applicationID uuid.UUID) ([]notification.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]notification.Notification, 0)
	for _, n := range r.s.notifications {
		if n.ApplicationID == applicationID {
			out = append(out, n)
		}
	}
	return out, nil
}
