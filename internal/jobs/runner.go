// Package jobs runs durable delayed jobs once they fall due.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"anti-ghosting/internal/clock"
	"anti-ghosting/internal/domain/schedule"
	"anti-ghosting/internal/repository"

	"github.com/sirupsen/logrus"
)

type Handler func(ctx context.Context, job schedule.Job) error

var ErrNoHandler = errors.New("no handler registered for job kind")

type Options struct {
	PollInterval time.Duration
	BatchSize    int
	Workers      int
	MaxAttempts  int
	// Lease is how long a claimed job may stay running before another
	// runner may claim it again.
	Lease time.Duration
	// BaseBackoff doubles with every failed attempt, capped at MaxBackoff.
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = 30 * time.Second
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 50
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.Lease <= 0 {
		o.Lease = 10 * time.Minute
	}
	if o.BaseBackoff <= 0 {
		o.BaseBackoff = time.Minute
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = time.Hour
	}
	return o
}

type Stats struct {
	Claimed  int
	Done     int
	Retried  int
	Failed   int
	Finished time.Time
}

type Runner struct {
	repo     repository.ScheduledJobRepository
	clock    clock.Clock
	logger   logrus.FieldLogger
	opts     Options
	mu       sync.RWMutex
	handlers map[schedule.Kind]Handler
}

func NewRunner(repo repository.ScheduledJobRepository, clk clock.Clock, logger logrus.FieldLogger, opts Options) *Runner {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Runner{
		repo:     repo,
		clock:    clock.OrSystem(clk),
		logger:   logger.WithField("component", "jobs"),
		opts:     opts.withDefaults(),
		handlers: make(map[schedule.Kind]Handler),
	}
}

func (r *Runner) Register(kind schedule.Kind, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = h
}

func (r *Runner) handler(kind schedule.Kind) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[kind]
	return h, ok
}

// Run polls for due jobs until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.opts.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			r.logger.WithField("status", "error").WithError(err).Error("job poll failed")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce claims one batch of due jobs and runs them. Jobs already claimed
// are finished even if ctx is cancelled meanwhile.
func (r *Runner) RunOnce(ctx context.Context) (Stats, error) {
	claimed, err := r.repo.ClaimDue(ctx, r.clock.Now(), r.opts.BatchSize, r.opts.Lease)
	if err != nil {
		return Stats{}, fmt.Errorf("claim due jobs: %w", err)
	}
	stats := Stats{Claimed: len(claimed)}
	if len(claimed) == 0 {
		stats.Finished = r.clock.Now()
		return stats, nil
	}

	runCtx := context.WithoutCancel(ctx)
	var mu sync.Mutex

	pool := NewWorkerPool(r.opts.Workers, len(claimed))
	results := pool.Run(runCtx)
	for _, job := range claimed {
		pool.Submit(func(ctx context.Context) error {
			outcome := r.execute(ctx, job)
			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case outcomeDone:
				stats.Done++
			case outcomeRetry:
				stats.Retried++
			default:
				stats.Failed++
			}
			return nil
		})
	}
	pool.Close()
	for range results {
	}

	stats.Finished = r.clock.Now()
	r.logger.WithFields(logrus.Fields{
		"claimed": stats.Claimed,
		"done":    stats.Done,
		"retried": stats.Retried,
		"failed":  stats.Failed,
	}).Info("job batch finished")
	return stats, nil
}

type outcome int

const (
	outcomeDone outcome = iota
	outcomeRetry
	outcomeFailed
)

func (r *Runner) execute(ctx context.Context, job schedule.Job) outcome {
	log := r.logger.WithFields(logrus.Fields{
		"job_id":         job.ID,
		"kind":           job.Kind,
		"application_id": job.ApplicationID,
		"attempt":        job.Attempts,
	})

	h, ok := r.handler(job.Kind)
	var err error
	if !ok {
		err = fmt.Errorf("%w: %s", ErrNoHandler, job.Kind)
	} else {
		err = safeCall(ctx, h, job)
	}

	now := r.clock.Now()
	if err == nil {
		if merr := r.repo.MarkDone(ctx, job.ID, now); merr != nil {
			log.WithError(merr).Error("mark job done failed")
		}
		return outcomeDone
	}

	var retryAt *time.Time
	if ok && job.Attempts < r.opts.MaxAttempts {
		at := now.Add(r.backoff(job.Attempts))
		retryAt = &at
	}
	if merr := r.repo.MarkFailed(ctx, job.ID, err.Error(), retryAt, now); merr != nil {
		log.WithError(merr).Error("mark job failed failed")
	}

	if retryAt != nil {
		log.WithField("retry_at", *retryAt).WithError(err).Warn("job failed, will retry")
		return outcomeRetry
	}
	log.WithField("status", "error").WithError(err).Error("job failed permanently")
	return outcomeFailed
}

func (r *Runner) backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := r.opts.BaseBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= r.opts.MaxBackoff {
			return r.opts.MaxBackoff
		}
	}
	return d
}

func safeCall(ctx context.Context, h Handler, job schedule.Job) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job handler panic: %v", p)
		}
	}()
	return h(ctx, job)
}
