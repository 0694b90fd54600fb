package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"anti-ghosting/internal/config"
	"anti-ghosting/internal/domain/notification"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// NotificationEvent is the message body delivery workers consume.
type NotificationEvent struct {
	NotificationID string    `json:"notification_id"`
	ApplicationID  string    `json:"application_id"`
	RecipientID    string    `json:"recipient_id"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	ActionRequired bool      `json:"action_required"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewNotificationEvent(n notification.Notification) NotificationEvent {
	return NotificationEvent{
		NotificationID: n.ID.String(),
		ApplicationID:  n.ApplicationID.String(),
		RecipientID:    n.RecipientID.String(),
		Type:           string(n.Type),
		Title:          n.Title,
		Message:        n.Message,
		ActionRequired: n.ActionRequired,
		CreatedAt:      n.CreatedAt,
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes enqueued notifications to one topic, keyed by
// recipient so a recipient's messages stay ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger logrus.FieldLogger
}

// NewKafkaPublisher returns nil when no brokers are configured.
func NewKafkaPublisher(cfg config.KafkaConfig, logger logrus.FieldLogger) *KafkaPublisher {
	if len(cfg.Brokers) == 0 {
		return nil
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            attempts,
		WriteBackoffMin:        100 * time.Millisecond,
		WriteBackoffMax:        time.Second,
	}
	if logger != nil {
		logger.WithFields(logrus.Fields{"brokers": cfg.Brokers, "topic": cfg.NotificationTopic}).Info("kafka publisher ready")
	}
	return newKafkaPublisher(w, cfg.NotificationTopic, logger)
}

func newKafkaPublisher(w messageWriter, topic string, logger logrus.FieldLogger) *KafkaPublisher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &KafkaPublisher{writer: w, topic: topic, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, n notification.Notification) error {
	data, err := json.Marshal(NewNotificationEvent(n))
	if err != nil {
		return fmt.Errorf("marshal notification event: %w", err)
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(n.RecipientID.String()),
		Value: data,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithFields(logrus.Fields{
			"component":       "kafka",
			"topic":           p.topic,
			"notification_id": n.ID,
			"status":          "error",
		}).WithError(err).Error("publish notification")
		return fmt.Errorf("publish notification: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"component":       "kafka",
		"topic":           p.topic,
		"notification_id": n.ID,
	}).Debug("notification published")
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
