package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"anti-ghosting/internal/app"
	"anti-ghosting/internal/config"
	"anti-ghosting/internal/logger"

	"github.com/sirupsen/logrus"
)

func main() {
	once := flag.Bool("once", false, "run a single sweep and job poll, then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}
	log := logger.New(cfg.App.LogLevel).WithFields(logrus.Fields{"app": cfg.App.AppName, "process": "worker"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := app.NewContainer(ctx, cfg, log, app.ContainerOptions{Migrate: true})
	if err != nil {
		log.WithError(err).Fatal("failed to init container")
	}
	defer func() {
		if err := c.Close(); err != nil {
			log.WithError(err).Warn("cleanup error")
		}
	}()

	w := app.NewWorker(c.Services, cfg.Worker.SweepInterval, log)

	if *once {
		res, ok := w.SweepOnce(ctx)
		stats, err := c.Services.Runner.RunOnce(ctx)
		if err != nil {
			log.WithError(err).Error("job poll failed")
		}
		log.WithFields(logrus.Fields{
			"swept":        ok,
			"expired":      res.Expired,
			"failed":       res.Failed,
			"jobs_claimed": stats.Claimed,
			"jobs_done":    stats.Done,
		}).Info("single run finished")
		return
	}

	if err := w.Run(ctx); err != nil {
		log.WithError(err).Error("worker stopped with error")
		return
	}
	log.Info("worker stopped")
}
