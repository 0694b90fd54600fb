package main

import (
	"context"
	"time"

	"anti-ghosting/internal/config"
	"anti-ghosting/internal/database/migration"
	dbpostgres "anti-ghosting/internal/database/postgres"
	"anti-ghosting/internal/database/seeder"
	"anti-ghosting/internal/logger"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}
	log := logger.New(cfg.App.LogLevel).WithField("process", "seed")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect database")
	}
	defer func() {
		_ = db.Close()
	}()

	if err := (migration.Runner{Logger: log}).Run(ctx, db.SQLDB()); err != nil {
		log.WithError(err).Fatal("migration failed")
	}
	if err := (seeder.Runner{Seeders: seeder.Defaults(), Logger: log}).Run(ctx, db); err != nil {
		log.WithError(err).Fatal("seed failed")
	}
	log.Info("seed finished")
}
