package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	TextGen  TextGenConfig
	SLA      SLAConfig
	Worker   WorkerConfig
}

type AppConfig struct {
	AppName     string
	Environment string
	HTTPPort    string
	LogLevel    string
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout        time.Duration
	PoolMaxConns          int32
	PoolMinConns          int32
	PoolMaxConnLifetime   time.Duration
	PoolMaxConnIdleTime   time.Duration
	PoolHealthCheckPeriod time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// KafkaConfig with no brokers disables notification publishing.
type KafkaConfig struct {
	Brokers           []string
	NotificationTopic string
	MaxAttempts       int
}

// TextGenConfig with an empty BaseURL leaves the suggestion generator on its
// static fallbacks.
type TextGenConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// SLAConfig holds the response windows, in hours, that companies must meet.
type SLAConfig struct {
	InitialResponseDeadlineHours   int
	InterviewResponseDeadlineHours int
	FinalDecisionDeadlineHours     int
	WarningBeforeDeadlineHours     int
	FeedbackDelayHours             int
}

type WorkerConfig struct {
	SweepInterval    time.Duration
	SweepBatchSize   int
	SweepConcurrency int
	JobPollInterval  time.Duration
	JobBatchSize     int
	JobWorkers       int
	JobMaxAttempts   int
}

var errMissingRequiredEnv = errors.New("missing required environment variables")

// DefaultSLA returns the response windows used when nothing is overridden.
func DefaultSLA() SLAConfig {
	return SLAConfig{
		InitialResponseDeadlineHours:   72,
		InterviewResponseDeadlineHours: 48,
		FinalDecisionDeadlineHours:     120,
		WarningBeforeDeadlineHours:     24,
		FeedbackDelayHours:             24,
	}
}

func DefaultWorker() WorkerConfig {
	return WorkerConfig{
		SweepInterval:    5 * time.Minute,
		SweepBatchSize:   500,
		SweepConcurrency: 4,
		JobPollInterval:  30 * time.Second,
		JobBatchSize:     50,
		JobWorkers:       4,
		JobMaxAttempts:   5,
	}
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{}

	var missing []string
	var invalid []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key string) string {
		return strings.TrimSpace(os.Getenv(key))
	}
	optInt := func(key string, def int) int {
		raw := opt(key)
		if raw == "" {
			return def
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			invalid = append(invalid, key)
			return def
		}
		return v
	}
	optDuration := func(key string, def time.Duration) time.Duration {
		raw := opt(key)
		if raw == "" {
			return def
		}
		v, err := time.ParseDuration(raw)
		if err != nil || v < 0 {
			invalid = append(invalid, key)
			return def
		}
		return v
	}

	cfg.App = AppConfig{
		AppName:     req("APP_NAME"),
		Environment: req("APP_ENV"),
		HTTPPort:    req("HTTP_PORT"),
		LogLevel:    opt("LOG_LEVEL"),
	}

	cfg.Database = DatabaseConfig{
		DBHost:     opt("DB_HOST"),
		DBPort:     opt("DB_PORT"),
		DBName:     opt("DB_NAME"),
		DBUser:     opt("DB_USER"),
		DBPassword: opt("DB_PASSWORD"),
		DBSSLMode:  opt("DB_SSL_MODE"),

		ConnectTimeout:        optDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
		PoolMaxConns:          int32(optInt("DB_POOL_MAX_CONNS", 0)),
		PoolMinConns:          int32(optInt("DB_POOL_MIN_CONNS", 0)),
		PoolMaxConnLifetime:   optDuration("DB_POOL_MAX_CONN_LIFETIME", 0),
		PoolMaxConnIdleTime:   optDuration("DB_POOL_MAX_CONN_IDLE_TIME", 0),
		PoolHealthCheckPeriod: optDuration("DB_POOL_HEALTH_CHECK_PERIOD", 0),
	}

	redisHost := opt("REDIS_HOST")
	if redisHost == "" {
		redisHost = "localhost"
	}
	redisPort := opt("REDIS_PORT")
	if redisPort == "" {
		redisPort = "6379"
	}
	cfg.Redis = RedisConfig{
		Addr:     redisHost + ":" + redisPort,
		Password: opt("REDIS_PASSWORD"),
		DB:       optInt("REDIS_DB", 0),
		TTL:      time.Duration(optInt("REDIS_TTL", 600)) * time.Second,
	}

	cfg.Kafka = KafkaConfig{
		Brokers:           splitList(opt("KAFKA_BROKERS")),
		NotificationTopic: opt("KAFKA_NOTIFICATION_TOPIC"),
		MaxAttempts:       optInt("KAFKA_MAX_ATTEMPTS", 3),
	}
	if cfg.Kafka.NotificationTopic == "" {
		cfg.Kafka.NotificationTopic = "notification.enqueued"
	}

	cfg.TextGen = TextGenConfig{
		BaseURL: opt("TEXTGEN_BASE_URL"),
		APIKey:  opt("TEXTGEN_API_KEY"),
		Model:   opt("TEXTGEN_MODEL"),
		Timeout: optDuration("TEXTGEN_TIMEOUT", 10*time.Second),
	}

	sla := DefaultSLA()
	cfg.SLA = SLAConfig{
		InitialResponseDeadlineHours:   optInt("SLA_INITIAL_RESPONSE_HOURS", sla.InitialResponseDeadlineHours),
		InterviewResponseDeadlineHours: optInt("SLA_INTERVIEW_RESPONSE_HOURS", sla.InterviewResponseDeadlineHours),
		FinalDecisionDeadlineHours:     optInt("SLA_FINAL_DECISION_HOURS", sla.FinalDecisionDeadlineHours),
		WarningBeforeDeadlineHours:     optInt("SLA_WARNING_BEFORE_DEADLINE_HOURS", sla.WarningBeforeDeadlineHours),
		FeedbackDelayHours:             optInt("SLA_FEEDBACK_DELAY_HOURS", sla.FeedbackDelayHours),
	}

	w := DefaultWorker()
	cfg.Worker = WorkerConfig{
		SweepInterval:    optDuration("WORKER_SWEEP_INTERVAL", w.SweepInterval),
		SweepBatchSize:   optInt("WORKER_SWEEP_BATCH_SIZE", w.SweepBatchSize),
		SweepConcurrency: optInt("WORKER_SWEEP_CONCURRENCY", w.SweepConcurrency),
		JobPollInterval:  optDuration("WORKER_JOB_POLL_INTERVAL", w.JobPollInterval),
		JobBatchSize:     optInt("WORKER_JOB_BATCH_SIZE", w.JobBatchSize),
		JobWorkers:       optInt("WORKER_JOB_WORKERS", w.JobWorkers),
		JobMaxAttempts:   optInt("WORKER_JOB_MAX_ATTEMPTS", w.JobMaxAttempts),
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
