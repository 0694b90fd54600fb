package app

import (
	"anti-ghosting/internal/clock"
	"anti-ghosting/internal/config"
	"anti-ghosting/internal/dispatch"
	"anti-ghosting/internal/domain/schedule"
	"anti-ghosting/internal/domain/user"
	"anti-ghosting/internal/infrastructure/textgen"
	"anti-ghosting/internal/jobs"
	"anti-ghosting/internal/repository"
	"anti-ghosting/internal/usecase"
	"anti-ghosting/internal/usecase/deadline"
	"anti-ghosting/internal/usecase/feedback"
	reputationuc "anti-ghosting/internal/usecase/reputation"
	"anti-ghosting/internal/usecase/suggestion"
	"anti-ghosting/internal/usecase/sweeper"

	"github.com/sirupsen/logrus"
)

type Repositories struct {
	Applications  repository.ApplicationRepository
	Jobs          repository.JobRepository
	Users         user.Repository
	Notifications repository.NotificationRepository
	Reputation    repository.ReputationRepository
	Scheduled     repository.ScheduledJobRepository
}

// Adapters are the optional outbound integrations. Any of them may be nil.
type Adapters struct {
	Cache     reputationuc.Cache
	Locker    sweeper.Locker
	Publisher dispatch.Publisher
	Text      textgen.Generator
}

type Services struct {
	Dispatcher    *dispatch.Service
	Deadlines     *deadline.Manager
	Reputation    *reputationuc.Scorer
	Feedback      *feedback.Requester
	Sweeper       *sweeper.Sweeper
	Suggestions   *suggestion.Generator
	Applications  *usecase.Application
	Notifications *usecase.Notification
	Runner        *jobs.Runner
	Locker        sweeper.Locker
	Clock         clock.Clock
}

// NewServices wires the usecases over the given repositories and registers
// the delayed-job handlers on the runner.
func NewServices(cfg config.Config, repos Repositories, ad Adapters, clk clock.Clock, logger logrus.FieldLogger) *Services {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	clk = clock.OrSystem(clk)

	dispatcher := dispatch.NewService(repos.Notifications, ad.Publisher, clk, logger)
	scorer := reputationuc.NewScorer(repos.Reputation, ad.Cache, cfg.Redis.TTL, clk, logger)
	deadlines := deadline.NewManager(repos.Applications, repos.Scheduled, dispatcher, cfg.SLA, clk, logger)
	requester := feedback.NewRequester(repos.Applications, repos.Scheduled, dispatcher, scorer, cfg.SLA.FeedbackDelayHours, clk, logger)

	sw := sweeper.New(repos.Applications, repos.Scheduled, scorer, dispatcher, clk, logger, sweeper.Options{
		BatchSize:   cfg.Worker.SweepBatchSize,
		Concurrency: cfg.Worker.SweepConcurrency,
	})

	apps := usecase.NewApplicationUsecase(usecase.ApplicationDeps{
		Applications: repos.Applications,
		Jobs:         repos.Jobs,
		Users:        repos.Users,
		Scheduled:    repos.Scheduled,
		Deadlines:    deadlines,
		Reputation:   scorer,
		Feedback:     requester,
		Dispatcher:   dispatcher,
		Clock:        clk,
		Logger:       logger,
	})

	runner := jobs.NewRunner(repos.Scheduled, clk, logger, jobs.Options{
		PollInterval: cfg.Worker.JobPollInterval,
		BatchSize:    cfg.Worker.JobBatchSize,
		Workers:      cfg.Worker.JobWorkers,
		MaxAttempts:  cfg.Worker.JobMaxAttempts,
	})
	runner.Register(schedule.KindDeadlineWarning, deadlines.HandleWarningJob)
	runner.Register(schedule.KindFeedbackRequest, requester.HandleJob)

	return &Services{
		Dispatcher:    dispatcher,
		Deadlines:     deadlines,
		Reputation:    scorer,
		Feedback:      requester,
		Sweeper:       sw,
		Suggestions:   suggestion.NewGenerator(repos.Applications, ad.Text, cfg.TextGen.Timeout, logger),
		Applications:  apps,
		Notifications: usecase.NewNotificationUsecase(repos.Notifications, clk),
		Runner:        runner,
		Locker:        ad.Locker,
		Clock:         clk,
	}
}
