package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"anti-ghosting/internal/clock"
	"anti-ghosting/internal/domain/notification"
	"anti-ghosting/internal/logger"
	"anti-ghosting/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	got []notification.Notification
	err error
}

func (p *fakePublisher) Publish(_ context.Context, n notification.Notification) error {
	if p.err != nil {
		return p.err
	}
	p.got = append(p.got, n)
	return nil
}

func request() notification.Request {
	return notification.Request{
		ApplicationID:  uuid.New(),
		RecipientID:    uuid.New(),
		Type:           notification.TypeStatusUpdate,
		Title:          "Application reviewed",
		Message:        "Your application was reviewed.",
		ActionRequired: false,
	}
}

func TestDispatch_PersistsAndPublishes(t *testing.T) {
	store := memory.NewStore()
	pub := &fakePublisher{}
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := NewService(store.Notifications(), pub, clock.NewFake(now), logger.Discard())

	req := request()
	n, err := svc.Dispatch(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, req.RecipientID, n.RecipientID)
	assert.True(t, n.Sent)
	require.Len(t, pub.got, 1)
	assert.Equal(t, n.ID, pub.got[0].ID)

	stored := store.NotificationsFor(req.ApplicationID)
	require.Len(t, stored, 1)
	assert.True(t, stored[0].Sent)
	assert.Equal(t, now, stored[0].CreatedAt)
}

func TestDispatch_NoPublisherLeavesUnsent(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store.Notifications(), nil, nil, logger.Discard())

	req := request()
	n, err := svc.Dispatch(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, n.Sent)
	assert.Len(t, store.NotificationsFor(req.ApplicationID), 1)
}

func TestDispatch_PublishFailureIsReturned(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store.Notifications(), &fakePublisher{err: errors.New("broker down")}, nil, logger.Discard())

	req := request()
	_, err := svc.Dispatch(context.Background(), req)
	require.Error(t, err)

	stored := store.NotificationsFor(req.ApplicationID)
	require.Len(t, stored, 1)
	assert.False(t, stored[0].Sent)
}
