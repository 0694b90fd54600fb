package memory

import (
	"context"
	"sort"
	"time"

	"anti-ghosting/internal/domain/schedule"
	"anti-ghosting/internal/repository"

	"github.com/google/uuid"
)

type Schedule struct {
	s *Store
}

var _ repository.ScheduledJobRepository = (*Schedule)(nil)

func (r *Schedule) Schedule(_ context.Context, job schedule.Job) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, sj := range r.s.scheduled {
		if sj.job.DedupeKey == job.DedupeKey && sj.job.Status == schedule.StatusPending {
			sj.job.Payload = job.Payload
			sj.job.DueAt = job.DueAt
			sj.job.Attempts = 0
			sj.job.LastError = nil
			return nil
		}
	}
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	job.Status = schedule.StatusPending
	r.s.scheduled = append(r.s.scheduled, &scheduledJob{job: job})
	return nil
}

func (r *Schedule) Cancel(_ context.Context, dedupeKey string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sj := range r.s.scheduled {
		if sj.job.DedupeKey == dedupeKey && sj.job.Status == schedule.StatusPending {
			sj.job.Status = schedule.StatusCancelled
			sj.updatedAt = at
		}
	}
	return nil
}

func (r *Schedule) ClaimDue(_ context.Context, now time.Time, limit int, lease time.Duration) ([]schedule.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	if lease <= 0 {
		lease = 10 * time.Minute
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	due := make([]*scheduledJob, 0)
	for _, sj := range r.s.scheduled {
		pendingDue := sj.job.Status == schedule.StatusPending && !sj.job.DueAt.After(now)
		leaseLost := sj.job.Status == schedule.StatusRunning && sj.updatedAt.Before(now.Add(-lease))
		if pendingDue || leaseLost {
			due = append(due, sj)
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].job.DueAt.Before(due[j].job.DueAt) })
	if len(due) > limit {
		due = due[:limit]
	}

	out := make([]schedule.Job, 0, len(due))
	for _, sj := range due {
		sj.job.Status = schedule.StatusRunning
		sj.job.Attempts++
		sj.updatedAt = now
		out = append(out, sj.job)
	}
	return out, nil
}

func (r *Schedule) MarkDone(_ context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sj := range r.s.scheduled {
		if sj.job.ID == id {
			sj.job.Status = schedule.StatusDone
			sj.job.LastError = nil
			sj.updatedAt = at
		}
	}
	return nil
}

func (r *Schedule) MarkFailed(_ context.Context, id uuid.UUID, reason string, retryAt *time.Time, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sj := range r.s.scheduled {
		if sj.job.ID != id {
			continue
		}
		msg := reason
		sj.job.LastError = &msg
		sj.updatedAt = at
		if retryAt != nil {
			sj.job.Status = schedule.StatusPending
			sj.job.DueAt = *retryAt
		} else {
			sj.job.Status = schedule.StatusFailed
		}
	}
	return nil
}
