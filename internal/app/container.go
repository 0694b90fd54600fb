package app

import (
	"context"
	"errors"
	"time"

	"anti-ghosting/internal/config"
	"anti-ghosting/internal/database"
	"anti-ghosting/internal/database/migration"
	dbpostgres "anti-ghosting/internal/database/postgres"
	"anti-ghosting/internal/dispatch"
	"anti-ghosting/internal/infrastructure/cache"
	"anti-ghosting/internal/infrastructure/messaging"
	"anti-ghosting/internal/infrastructure/persistence/postgres"
	"anti-ghosting/internal/infrastructure/textgen"
	"anti-ghosting/internal/repository"

	"github.com/sirupsen/logrus"
)

// Container owns the process-wide connections and the services built on
// them.
type Container struct {
	Config   config.Config
	Logger   logrus.FieldLogger
	DB       database.DB
	Cache    *cache.Redis
	Kafka    *messaging.KafkaPublisher
	Users    *postgres.UserRepository
	Services *Services
}

type ContainerOptions struct {
	// Migrate applies pending migrations before any repository is built.
	Migrate bool
}

func NewContainer(ctx context.Context, cfg config.Config, logger logrus.FieldLogger, opts ContainerOptions) (*Container, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(connCtx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	c := &Container{Config: cfg, Logger: logger, DB: db}

	if opts.Migrate {
		migCtx, migCancel := context.WithTimeout(ctx, 2*time.Minute)
		defer migCancel()
		r := migration.Runner{Logger: logger}
		if err := r.Run(migCtx, db.SQLDB()); err != nil {
			_ = c.Close()
			return nil, err
		}
	}

	users, err := postgres.NewUserRepository(ctx, db)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Users = users

	c.Cache = cache.NewRedis(cfg.Redis, logger)
	c.Kafka = messaging.NewKafkaPublisher(cfg.Kafka, logger)

	ad := Adapters{
		Cache:  c.Cache,
		Locker: c.Cache,
		Text:   textgen.NewClient(cfg.TextGen, logger),
	}
	if c.Kafka != nil {
		ad.Publisher = dispatch.Publisher(c.Kafka)
	}

	c.Services = NewServices(cfg, Repositories{
		Applications:  repository.NewPostgresApplicationRepository(db),
		Jobs:          repository.NewPostgresJobRepository(db),
		Users:         users,
		Notifications: repository.NewPostgresNotificationRepository(db),
		Reputation:    repository.NewPostgresReputationRepository(db),
		Scheduled:     repository.NewPostgresScheduledJobRepository(db),
	}, ad, nil, logger)

	return c, nil
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Kafka != nil {
		errs = append(errs, c.Kafka.Close())
	}
	if c.Cache != nil {
		errs = append(errs, c.Cache.Close())
	}
	if c.Users != nil {
		errs = append(errs, c.Users.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
