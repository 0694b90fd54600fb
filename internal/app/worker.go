package app

import (
	"context"
	"errors"
	"time"

	"anti-ghosting/internal/usecase/sweeper"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Worker runs the periodic overdue sweep next to the delayed-job runner.
type Worker struct {
	services *Services
	interval time.Duration
	logger   logrus.FieldLogger
}

func NewWorker(svcs *Services, interval time.Duration, logger logrus.FieldLogger) *Worker {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Worker{services: svcs, interval: interval, logger: logger.WithField("component", "worker")}
}

// Run blocks until ctx is cancelled. A sweep already in progress finishes
// before Run returns.
func (w *Worker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.sweepLoop(ctx)
	})
	g.Go(func() error {
		return w.services.Runner.Run(ctx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *Worker) sweepLoop(ctx context.Context) error {
	w.logger.WithField("interval", w.interval).Info("sweep loop started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.SweepOnce(ctx)

		select {
		case <-ctx.Done():
			w.logger.Info("sweep loop stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// SweepOnce runs one locked sweep and logs its outcome.
func (w *Worker) SweepOnce(ctx context.Context) (sweeper.Result, bool) {
	res, err := w.services.Sweeper.RunExclusive(ctx, w.services.Locker, w.interval)
	switch {
	case errors.Is(err, sweeper.ErrSweepInProgress):
		w.logger.WithField("step", "sweep").Debug("skipped, another process holds the lock")
		return sweeper.Result{}, false
	case err != nil:
		w.logger.WithFields(logrus.Fields{"step": "sweep", "status": "error"}).WithError(err).Error("sweep failed")
		return sweeper.Result{}, false
	}
	return res, true
}
