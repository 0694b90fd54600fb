// Package feedback asks candidates how a finished application went and folds
// their rating into the company's satisfaction score.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
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
)

var (
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	ErrNotFinished   = errors.New("application has no final outcome yet")
)

const maxCommentLength = 2000

// FeedbackRecorder persists a rating together with its effect on the
// company's satisfaction.
type FeedbackRecorder interface {
	RecordFeedback(ctx context.Context, companyID uuid.UUID, fb application.Feedback) (reputation.Score, error)
}

type Requester struct {
	apps       repository.ApplicationRepository
	jobs       repository.ScheduledJobRepository
	dispatcher dispatch.Dispatcher
	recorder   FeedbackRecorder
	delay      time.Duration
	clock      clock.Clock
	logger     logrus.FieldLogger
}

func NewRequester(
	apps repository.ApplicationRepository,
	jobs repository.ScheduledJobRepository,
	dispatcher dispatch.Dispatcher,
	recorder FeedbackRecorder,
	delayHours int,
	clk clock.Clock,
	logger logrus.FieldLogger,
) *Requester {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if delayHours <= 0 {
		delayHours = 24
	}
	return &Requester{
		apps:       apps,
		jobs:       jobs,
		dispatcher: dispatcher,
		recorder:   recorder,
		delay:      time.Duration(delayHours) * time.Hour,
		clock:      clock.OrSystem(clk),
		logger:     logger.WithField("component", "feedback"),
	}
}

// ScheduleFeedbackRequest queues the request to fire after the configured
// delay. It survives restarts because the job is persisted.
func (r *Requester) ScheduleFeedbackRequest(ctx context.Context, applicationID uuid.UUID) (time.Time, error) {
	due := r.clock.Now().Add(r.delay)
	err := r.jobs.Schedule(ctx, schedule.Job{
		Kind:          schedule.KindFeedbackRequest,
		ApplicationID: applicationID,
		DedupeKey:     schedule.DedupeKey(schedule.KindFeedbackRequest, applicationID),
		DueAt:         due,
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("schedule feedback request: %w", err)
	}
	return due, nil
}

// RequestCandidateFeedback asks the candidate for feedback. It reports false
// when feedback was already given or the outcome is not ACCEPTED/REJECTED.
func (r *Requester) RequestCandidateFeedback(ctx context.Context, applicationID uuid.UUID) (bool, error) {
	app, err := r.apps.GetByID(ctx, applicationID)
	if err != nil {
		return false, err
	}

	log := r.logger.WithFields(logrus.Fields{"step": "request", "application_id": app.ID, "status": app.Status})
	if app.FeedbackGiven {
		log.Debug("feedback already given, request skipped")
		return false, nil
	}
	if !app.Status.FeedbackEligible() {
		log.Debug("outcome not eligible, request skipped")
		return false, nil
	}

	_, err = r.dispatcher.Dispatch(ctx, notification.Request{
		ApplicationID:  app.ID,
		RecipientID:    app.CandidateID,
		Type:           notification.TypeFeedbackRequest,
		Title:          "How was your hiring experience?",
		Message:        "Your application has a final decision. Rate the company's communication from 1 to 5 to help other candidates.",
		ActionRequired: false,
	})
	if err != nil {
		return false, fmt.Errorf("send feedback request: %w", err)
	}
	return true, nil
}

func (r *Requester) HandleJob(ctx context.Context, job schedule.Job) error {
	_, err := r.RequestCandidateFeedback(ctx, job.ApplicationID)
	return err
}

// RecordFeedback stores the candidate's rating once and folds it into the
// company's satisfaction. Both happen together or not at all.
func (r *Requester) RecordFeedback(ctx context.Context, applicationID uuid.UUID, rating int, comment string) (application.Feedback, error) {
	if rating < 1 || rating > 5 {
		return application.Feedback{}, ErrInvalidRating
	}
	comment = strings.TrimSpace(comment)
	if runes := []rune(comment); len(runes) > maxCommentLength {
		comment = string(runes[:maxCommentLength])
	}

	app, err := r.apps.GetByID(ctx, applicationID)
	if err != nil {
		return application.Feedback{}, err
	}
	if app.FeedbackGiven {
		return application.Feedback{}, application.ErrFeedbackAlreadyGiven
	}
	if !app.Status.Terminal() {
		return application.Feedback{}, ErrNotFinished
	}

	fb := application.Feedback{
		ID:            uuid.New(),
		ApplicationID: app.ID,
		Rating:        rating,
		Comment:       comment,
		CreatedAt:     r.clock.Now(),
	}
	if _, err := r.recorder.RecordFeedback(ctx, app.CompanyID, fb); err != nil {
		return application.Feedback{}, err
	}

	if err := r.jobs.Cancel(ctx, schedule.DedupeKey(schedule.KindFeedbackRequest, app.ID), r.clock.Now()); err != nil {
		r.logger.WithFields(logrus.Fields{"step": "record", "application_id": app.ID}).WithError(err).Warn("cancel pending request failed")
	}

	r.logger.WithFields(logrus.Fields{"step": "record", "application_id": app.ID, "company_id": app.CompanyID, "rating": rating}).Info("feedback recorded")
	return fb, nil
}
