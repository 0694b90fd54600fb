// Package deadline attaches response deadlines to applications and warns the
// company ahead of each one.
package deadline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"anti-ghosting/internal/clock"
	"anti-ghosting/internal/config"
	"anti-ghosting/internal/dispatch"
	"anti-ghosting/internal/domain/application"
	"anti-ghosting/internal/domain/notification"
	"anti-ghosting/internal/domain/schedule"
	"anti-ghosting/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Manager struct {
	apps       repository.ApplicationRepository
	jobs       repository.ScheduledJobRepository
	dispatcher dispatch.Dispatcher
	sla        config.SLAConfig
	clock      clock.Clock
	logger     logrus.FieldLogger
}

func NewManager(
	apps repository.ApplicationRepository,
	jobs repository.ScheduledJobRepository,
	dispatcher dispatch.Dispatcher,
	sla config.SLAConfig,
	clk clock.Clock,
	logger logrus.FieldLogger,
) *Manager {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Manager{
		apps:       apps,
		jobs:       jobs,
		dispatcher: dispatcher,
		sla:        sla,
		clock:      clock.OrSystem(clk),
		logger:     logger.WithField("component", "deadline"),
	}
}

// SetInitialDeadline starts the first response window of a new application.
func (m *Manager) SetInitialDeadline(ctx context.Context, applicationID uuid.UUID) (time.Time, error) {
	app, err := m.apps.GetByID(ctx, applicationID)
	if err != nil {
		return time.Time{}, err
	}

	deadline := m.clock.Now().Add(time.Duration(m.sla.InitialResponseDeadlineHours) * time.Hour)
	if err := m.apps.SetResponseDeadline(ctx, applicationID, app.Status, deadline); err != nil {
		return time.Time{}, fmt.Errorf("set initial deadline: %w", err)
	}

	if _, err := m.ScheduleWarningNotification(ctx, applicationID, deadline); err != nil {
		return deadline, err
	}

	m.logger.WithFields(logrus.Fields{
		"step":           "initial",
		"application_id": applicationID,
		"deadline":       deadline,
	}).Debug("deadline set")
	return deadline, nil
}

// UpdateDeadline restarts the response window for a status the company just
// moved to. It does not change the status itself, and fails with
// application.ErrStatusConflict when the application has since left
// newStatus (for example, expired by a sweep). Statuses without a window
// leave the deadline alone and report false.
func (m *Manager) UpdateDeadline(ctx context.Context, applicationID uuid.UUID, newStatus application.Status, notes *string) (time.Time, bool, error) {
	budget, ok := application.DeadlineBudget(newStatus, m.sla)
	if !ok {
		return time.Time{}, false, nil
	}
	if _, err := m.apps.GetByID(ctx, applicationID); err != nil {
		return time.Time{}, false, err
	}

	now := m.clock.Now()
	deadline := now.Add(budget)
	if err := m.apps.SetResponseDeadline(ctx, applicationID, newStatus, deadline); err != nil {
		return time.Time{}, false, fmt.Errorf("update deadline: %w", err)
	}

	err := m.apps.AppendTimeline(ctx, application.TimelineEntry{
		ApplicationID: applicationID,
		Status:        newStatus,
		ChangedAt:     now,
		Automated:     false,
		Notes:         notes,
	})
	if err != nil {
		return deadline, true, fmt.Errorf("append timeline: %w", err)
	}

	if _, err := m.ScheduleWarningNotification(ctx, applicationID, deadline); err != nil {
		return deadline, true, err
	}

	m.logger.WithFields(logrus.Fields{
		"step":           "update",
		"application_id": applicationID,
		"status":         newStatus,
		"deadline":       deadline,
	}).Debug("deadline moved")
	return deadline, true, nil
}

// ScheduleWarningNotification queues a single warning for the company ahead
// of deadline and replaces any earlier one. When the warning time has
// already passed nothing is queued and any earlier warning is dropped.
func (m *Manager) ScheduleWarningNotification(ctx context.Context, applicationID uuid.UUID, deadline time.Time) (bool, error) {
	now := m.clock.Now()
	key := schedule.DedupeKey(schedule.KindDeadlineWarning, applicationID)
	warnAt := deadline.Add(-time.Duration(m.sla.WarningBeforeDeadlineHours) * time.Hour)

	if !warnAt.After(now) {
		if err := m.jobs.Cancel(ctx, key, now); err != nil {
			return false, fmt.Errorf("cancel warning: %w", err)
		}
		m.logger.WithFields(logrus.Fields{
			"step":           "warning",
			"application_id": applicationID,
			"warn_at":        warnAt,
		}).Debug("warning time already passed, skipped")
		return false, nil
	}

	payload, err := json.Marshal(schedule.WarningPayload{Deadline: deadline})
	if err != nil {
		return false, err
	}
	err = m.jobs.Schedule(ctx, schedule.Job{
		Kind:          schedule.KindDeadlineWarning,
		ApplicationID: applicationID,
		DedupeKey:     key,
		Payload:       payload,
		DueAt:         warnAt,
	})
	if err != nil {
		return false, fmt.Errorf("schedule warning: %w", err)
	}
	return true, nil
}

// HandleWarningJob fires a queued warning. Warnings for applications that no
// longer wait on the company, or whose deadline has moved, are dropped.
func (m *Manager) HandleWarningJob(ctx context.Context, job schedule.Job) error {
	var payload schedule.WarningPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode warning payload: %w", err)
	}

	app, err := m.apps.GetByID(ctx, job.ApplicationID)
	if err != nil {
		return err
	}

	log := m.logger.WithFields(logrus.Fields{"step": "warning", "application_id": app.ID})
	if app.AutoRejectedAt != nil || !app.Status.AwaitingCompany() || app.ResponseDeadline == nil {
		log.Debug("application no longer awaits the company, warning dropped")
		return nil
	}
	if !sameInstant(*app.ResponseDeadline, payload.Deadline) {
		log.Debug("deadline moved, warning dropped")
		return nil
	}

	remaining := app.ResponseDeadline.Sub(m.clock.Now()).Round(time.Hour)
	_, err = m.dispatcher.Dispatch(ctx, notification.Request{
		ApplicationID:  app.ID,
		RecipientID:    app.CompanyOwnerID,
		Type:           notification.TypeDeadlineWarning,
		Title:          "Response deadline approaching",
		Message:        fmt.Sprintf("An application in status %s needs a response within %s (by %s).", app.Status, remaining, app.ResponseDeadline.Format(time.RFC1123)),
		ActionRequired: true,
	})
	return err
}

// sameInstant compares at the microsecond precision Postgres keeps.
func sameInstant(a, b time.Time) bool {
	return a.Truncate(time.Microsecond).Equal(b.Truncate(time.Microsecond))
}
