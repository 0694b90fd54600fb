package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("APP_NAME", "anti-ghosting")
	t.Setenv("APP_ENV", "test")
	t.Setenv("HTTP_PORT", "8080")
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("APP_NAME", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("HTTP_PORT", "")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, errMissingRequiredEnv)
	assert.Contains(t, err.Error(), "HTTP_PORT")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultSLA(), cfg.SLA)
	assert.Equal(t, 72, cfg.SLA.InitialResponseDeadlineHours)
	assert.Equal(t, 48, cfg.SLA.InterviewResponseDeadlineHours)
	assert.Equal(t, 120, cfg.SLA.FinalDecisionDeadlineHours)
	assert.Equal(t, 24, cfg.SLA.WarningBeforeDeadlineHours)
	assert.Equal(t, 5*time.Minute, cfg.Worker.SweepInterval)
	assert.Equal(t, "notification.enqueued", cfg.Kafka.NotificationTopic)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, 10*time.Second, cfg.TextGen.Timeout)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SLA_INITIAL_RESPONSE_HOURS", "96")
	t.Setenv("SLA_WARNING_BEFORE_DEADLINE_HOURS", "12")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("WORKER_SWEEP_INTERVAL", "2m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 96, cfg.SLA.InitialResponseDeadlineHours)
	assert.Equal(t, 12, cfg.SLA.WarningBeforeDeadlineHours)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 2*time.Minute, cfg.Worker.SweepInterval)
}

func TestLoad_InvalidNumber(t *testing.T) {
	setRequired(t)
	t.Setenv("SLA_FINAL_DECISION_HOURS", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SLA_FINAL_DECISION_HOURS")
}
