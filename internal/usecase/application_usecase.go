package usecase

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
	"anti-ghosting/internal/domain/user"
	"anti-ghosting/internal/repository"
	"anti-ghosting/internal/usecase/feedback"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ApplyInput struct {
	JobID       uuid.UUID
	CandidateID uuid.UUID
}

type UpdateStatusInput struct {
	Status application.Status
	Notes  string
}

type FeedbackInput struct {
	Rating  int
	Comment string
}

type ApplicationUsecase interface {
	Apply(ctx context.Context, in ApplyInput) (application.Application, error)
	Get(ctx context.Context, id uuid.UUID) (application.Application, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, in UpdateStatusInput) (application.Application, error)
	SubmitFeedback(ctx context.Context, id uuid.UUID, in FeedbackInput) (application.Feedback, error)
	Timeline(ctx context.Context, id uuid.UUID) ([]application.TimelineEntry, error)
}

type DeadlineManager interface {
	SetInitialDeadline(ctx context.Context, applicationID uuid.UUID) (time.Time, error)
	UpdateDeadline(ctx context.Context, applicationID uuid.UUID, newStatus application.Status, notes *string) (time.Time, bool, error)
}

type ReputationUpdater interface {
	UpdateCompanyReputationScore(ctx context.Context, companyID uuid.UUID) (reputation.Score, error)
}

type FeedbackService interface {
	ScheduleFeedbackRequest(ctx context.Context, applicationID uuid.UUID) (time.Time, error)
	RecordFeedback(ctx context.Context, applicationID uuid.UUID, rating int, comment string) (application.Feedback, error)
}

type Application struct {
	apps       repository.ApplicationRepository
	jobs       repository.JobRepository
	users      user.Repository
	scheduled  repository.ScheduledJobRepository
	deadlines  DeadlineManager
	reputation ReputationUpdater
	feedback   FeedbackService
	dispatcher dispatch.Dispatcher
	clock      clock.Clock
	logger     logrus.FieldLogger
}

type ApplicationDeps struct {
	Applications repository.ApplicationRepository
	Jobs         repository.JobRepository
	Users        user.Repository
	Scheduled    repository.ScheduledJobRepository
	Deadlines    DeadlineManager
	Reputation   ReputationUpdater
	Feedback     FeedbackService
	Dispatcher   dispatch.Dispatcher
	Clock        clock.Clock
	Logger       logrus.FieldLogger
}

func NewApplicationUsecase(d ApplicationDeps) *Application {
	logger := d.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Application{
		apps:       d.Applications,
		jobs:       d.Jobs,
		users:      d.Users,
		scheduled:  d.Scheduled,
		deadlines:  d.Deadlines,
		reputation: d.Reputation,
		feedback:   d.Feedback,
		dispatcher: d.Dispatcher,
		clock:      clock.OrSystem(d.Clock),
		logger:     logger.WithField("component", "application"),
	}
}

func (u *Application) Apply(ctx context.Context, in ApplyInput) (application.Application, error) {
	if in.JobID == uuid.Nil || in.CandidateID == uuid.Nil {
		return application.Application{}, ErrInvalidInput
	}

	j, err := u.jobs.GetByID(ctx, in.JobID)
	if err != nil {
		return application.Application{}, err
	}
	if u.users != nil {
		if _, err := u.users.GetByID(ctx, in.CandidateID); err != nil {
			return application.Application{}, err
		}
	}

	app, err := u.apps.Create(ctx, application.Application{
		JobID:       j.ID,
		CandidateID: in.CandidateID,
		Status:      application.StatusPending,
		AppliedAt:   u.clock.Now(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return application.Application{}, ErrDuplicateApplication
		}
		return application.Application{}, err
	}

	if _, err := u.deadlines.SetInitialDeadline(ctx, app.ID); err != nil {
		return application.Application{}, fmt.Errorf("set initial deadline: %w", err)
	}
	if _, err := u.reputation.UpdateCompanyReputationScore(ctx, j.CompanyID); err != nil {
		return application.Application{}, fmt.Errorf("update reputation: %w", err)
	}

	u.logger.WithFields(logrus.Fields{
		"step":           "apply",
		"application_id": app.ID,
		"job_id":         j.ID,
		"company_id":     j.CompanyID,
	}).Info("application created")
	return u.apps.GetByID(ctx, app.ID)
}

func (u *Application) Get(ctx context.Context, id uuid.UUID) (application.Application, error) {
	return u.apps.GetByID(ctx, id)
}

// UpdateStatus applies a company decision. The write is guarded on the
// status that was read, so a concurrent change or expiry yields
// application.ErrStatusConflict instead of a lost update. Once the status is
// committed every follow-up step runs, and their failures are joined.
func (u *Application) UpdateStatus(ctx context.Context, id uuid.UUID, in UpdateStatusInput) (application.Application, error) {
	if !in.Status.Valid() {
		return application.Application{}, ErrInvalidInput
	}

	app, err := u.apps.GetByID(ctx, id)
	if err != nil {
		return application.Application{}, err
	}
	if !application.CanTransition(app.Status, in.Status) {
		return application.Application{}, fmt.Errorf("%w: %s to %s", application.ErrInvalidTransition, app.Status, in.Status)
	}

	now := u.clock.Now()
	if err := u.apps.UpdateStatus(ctx, id, app.Status, in.Status, now); err != nil {
		return application.Application{}, err
	}

	var notes *string
	if n := strings.TrimSpace(in.Notes); n != "" {
		notes = &n
	}

	_, moved, err := u.deadlines.UpdateDeadline(ctx, id, in.Status, notes)
	if err != nil {
		return application.Application{}, err
	}
	if !moved {
		err := u.apps.AppendTimeline(ctx, application.TimelineEntry{
			ApplicationID: id,
			Status:        in.Status,
			ChangedAt:     now,
			Automated:     false,
			Notes:         notes,
		})
		if err != nil {
			return application.Application{}, fmt.Errorf("append timeline: %w", err)
		}
	}

	log := u.logger.WithFields(logrus.Fields{
		"step":           "status",
		"application_id": id,
		"from":           app.Status,
		"to":             in.Status,
	})

	var errs []error
	if !in.Status.AwaitingCompany() {
		if err := u.scheduled.Cancel(ctx, schedule.DedupeKey(schedule.KindDeadlineWarning, id), now); err != nil {
			errs = append(errs, fmt.Errorf("cancel warning: %w", err))
		}
	}
	if _, err := u.reputation.UpdateCompanyReputationScore(ctx, app.CompanyID); err != nil {
		errs = append(errs, fmt.Errorf("update reputation: %w", err))
	}
	if in.Status.FeedbackEligible() {
		if _, err := u.feedback.ScheduleFeedbackRequest(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}

	_, err = u.dispatcher.Dispatch(ctx, notification.Request{
		ApplicationID:  id,
		RecipientID:    app.CandidateID,
		Type:           notification.TypeStatusUpdate,
		Title:          "Application " + statusTitle(in.Status),
		Message:        statusMessage(in.Status),
		ActionRequired: in.Status == application.StatusOffered,
	})
	if err != nil {
		errs = append(errs, fmt.Errorf("notify candidate: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		log.WithField("status", "error").WithError(err).Error("status changed, follow-up failed")
		return application.Application{}, err
	}

	log.Info("application status changed")
	return u.apps.GetByID(ctx, id)
}

func (u *Application) SubmitFeedback(ctx context.Context, id uuid.UUID, in FeedbackInput) (application.Feedback, error) {
	fb, err := u.feedback.RecordFeedback(ctx, id, in.Rating, in.Comment)
	if err != nil {
		if errors.Is(err, feedback.ErrInvalidRating) || errors.Is(err, feedback.ErrNotFinished) {
			return application.Feedback{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return application.Feedback{}, err
	}
	return fb, nil
}

func (u *Application) Timeline(ctx context.Context, id uuid.UUID) ([]application.TimelineEntry, error) {
	if _, err := u.apps.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return u.apps.ListTimeline(ctx, id)
}

func statusTitle(s application.Status) string {
	switch s {
	case application.StatusReviewed:
		return "reviewed"
	case application.StatusInterviewed:
		return "moved to interview"
	case application.StatusOffered:
		return "offer received"
	case application.StatusAccepted:
		return "offer accepted"
	case application.StatusRejected:
		return "not selected"
	default:
		return "updated"
	}
}

func statusMessage(s application.Status) string {
	switch s {
	case application.StatusReviewed:
		return "The company has reviewed your application and will get back to you soon."
	case application.StatusInterviewed:
		return "Your application has moved to the interview stage."
	case application.StatusOffered:
		return "The company has made you an offer. Please respond to it."
	case application.StatusAccepted:
		return "Your acceptance of the offer has been recorded. Congratulations!"
	case application.StatusRejected:
		return "The company has decided not to move forward with your application."
	default:
		return "Your application status changed to " + string(s) + "."
	}
}

var _ ApplicationUsecase = (*Application)(nil)
