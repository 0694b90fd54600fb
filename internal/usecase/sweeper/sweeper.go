// Package sweeper expires applications whose company let the response
// deadline pass.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"anti-ghosting/internal/clock"
	"anti-ghosting/internal/dispatch"
	"anti-ghosting/internal/domain/application"
	"anti-ghosting/internal/domain/notification"
	"anti-ghosting/internal/domain/reputation"
	"anti-ghosting/internal/domain/schedule"
	"anti-ghosting/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type ReputationUpdater interface {
	UpdateCompanyReputationScore(ctx context.Context, companyID uuid.UUID) (reputation.Score, error)
}

type Options struct {
	BatchSize   int
	Concurrency int
}

// Result counts what one sweep did. Skipped applications were expired by
// someone else between the scan and the update.
type Result struct {
	Scanned int `json:"scanned"`
	Expired int `json:"expired"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type Sweeper struct {
	apps       repository.ApplicationRepository
	jobs       repository.ScheduledJobRepository
	reputation ReputationUpdater
	dispatcher dispatch.Dispatcher
	clock      clock.Clock
	logger     logrus.FieldLogger
	opts       Options
}

func New(
	apps repository.ApplicationRepository,
	jobs repository.ScheduledJobRepository,
	rep ReputationUpdater,
	dispatcher dispatch.Dispatcher,
	clk clock.Clock,
	logger logrus.FieldLogger,
	opts Options,
) *Sweeper {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Sweeper{
		apps:       apps,
		jobs:       jobs,
		reputation: rep,
		dispatcher: dispatcher,
		clock:      clock.OrSystem(clk),
		logger:     logger.WithField("component", "sweeper"),
		opts:       opts,
	}
}

// ProcessOverdueApplications expires every application overdue at the start
// of the sweep, one page of BatchSize at a time. The sweep runs to completion
// even if ctx is cancelled; a failure on one application does not stop the
// others, and an application is attempted at most once per sweep.
func (s *Sweeper) ProcessOverdueApplications(ctx context.Context) (Result, error) {
	ctx = context.WithoutCancel(ctx)
	started := s.clock.Now()

	var (
		res   Result
		seen  = make(map[uuid.UUID]struct{})
		pages int
	)
	for {
		page, err := s.apps.ListOverdue(ctx, started, s.opts.BatchSize)
		if err != nil {
			return res, fmt.Errorf("list overdue applications: %w", err)
		}

		fresh := make([]application.Application, 0, len(page))
		for _, app := range page {
			if _, ok := seen[app.ID]; ok {
				continue
			}
			seen[app.ID] = struct{}{}
			fresh = append(fresh, app)
		}
		if len(fresh) == 0 {
			break
		}

		pages++
		s.processPage(ctx, fresh, &res)
		if len(page) < s.opts.BatchSize {
			break
		}
	}

	s.logger.WithFields(logrus.Fields{
		"step":     "sweep",
		"pages":    pages,
		"scanned":  res.Scanned,
		"expired":  res.Expired,
		"skipped":  res.Skipped,
		"failed":   res.Failed,
		"duration": s.clock.Now().Sub(started),
	}).Info("overdue sweep finished")
	return res, nil
}

func (s *Sweeper) processPage(ctx context.Context, apps []application.Application, res *Result) {
	var mu sync.Mutex
	res.Scanned += len(apps)

	g := new(errgroup.Group)
	g.SetLimit(s.opts.Concurrency)
	for _, app := range apps {
		g.Go(func() error {
			expired, err := s.process(ctx, app)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				res.Failed++
			case expired:
				res.Expired++
			default:
				res.Skipped++
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Sweeper) process(ctx context.Context, app application.Application) (bool, error) {
	log := s.logger.WithFields(logrus.Fields{"application_id": app.ID, "company_id": app.CompanyID})

	expired, err := s.AutoRejectApplication(ctx, app)
	if err != nil {
		log.WithFields(logrus.Fields{"step": "auto_reject", "status": "error"}).WithError(err).Error("auto reject failed")
		if !expired {
			return false, err
		}
	}
	if !expired {
		return false, nil
	}

	if _, rerr := s.reputation.UpdateCompanyReputationScore(ctx, app.CompanyID); rerr != nil {
		log.WithFields(logrus.Fields{"step": "reputation", "status": "error"}).WithError(rerr).Error("reputation update failed")
		err = errors.Join(err, rerr)
	}
	return true, err
}

// AutoRejectApplication moves an overdue application to EXPIRED and tells
// both sides. It reports false, without notifying anyone, when the
// application was already expired or no longer qualifies. A notification
// error is returned with true since the expiry itself is committed.
func (s *Sweeper) AutoRejectApplication(ctx context.Context, app application.Application) (bool, error) {
	now := s.clock.Now()
	note := "Automatically expired: the company did not respond before the deadline"
	if app.ResponseDeadline != nil {
		note += " of " + app.ResponseDeadline.UTC().Format(time.RFC3339)
	}

	expired, err := s.apps.Expire(ctx, app.ID, now, note)
	if err != nil {
		return false, fmt.Errorf("expire application: %w", err)
	}
	if !expired {
		return false, nil
	}

	var errs []error
	if err := s.jobs.Cancel(ctx, schedule.DedupeKey(schedule.KindDeadlineWarning, app.ID), now); err != nil {
		errs = append(errs, fmt.Errorf("cancel warning: %w", err))
	}

	_, err = s.dispatcher.Dispatch(ctx, notification.Request{
		ApplicationID:  app.ID,
		RecipientID:    app.CandidateID,
		Type:           notification.TypeStatusUpdate,
		Title:          "Application expired",
		Message:        "The company did not respond in time, so your application was closed automatically. This has been recorded against the company's responsiveness score.",
		ActionRequired: false,
	})
	if err != nil {
		errs = append(errs, fmt.Errorf("notify candidate: %w", err))
	}

	_, err = s.dispatcher.Dispatch(ctx, notification.Request{
		ApplicationID:  app.ID,
		RecipientID:    app.CompanyOwnerID,
		Type:           notification.TypeOverdue,
		Title:          "Application expired without a response",
		Message:        "An application passed its response deadline and was closed automatically. Respond to open applications before their deadlines to protect your reputation score.",
		ActionRequired: true,
	})
	if err != nil {
		errs = append(errs, fmt.Errorf("notify company: %w", err))
	}

	return true, errors.Join(errs...)
}
