package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"anti-ghosting/internal/config"
	"anti-ghosting/internal/domain/notification"
	"anti-ghosting/internal/logger"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestNewKafkaPublisher_NoBrokers(t *testing.T) {
	assert.Nil(t, NewKafkaPublisher(config.KafkaConfig{NotificationTopic: "t"}, nil))
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := newKafkaPublisher(w, "notification.enqueued", logger.Discard())

	n := notification.Notification{
		ID:             uuid.New(),
		ApplicationID:  uuid.New(),
		RecipientID:    uuid.New(),
		Type:           notification.TypeOverdue,
		Title:          "Application expired",
		ActionRequired: true,
		CreatedAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, p.Publish(context.Background(), n))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "notification.enqueued", msg.Topic)
	assert.Equal(t, n.RecipientID.String(), string(msg.Key))

	var ev NotificationEvent
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	assert.Equal(t, n.ID.String(), ev.NotificationID)
	assert.Equal(t, "OVERDUE", ev.Type)
	assert.True(t, ev.ActionRequired)
}

func TestKafkaPublisher_PublishError(t *testing.T) {
	p := newKafkaPublisher(&recordingWriter{err: errors.New("broker down")}, "t", logger.Discard())
	err := p.Publish(context.Background(), notification.Notification{ID: uuid.New()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}
