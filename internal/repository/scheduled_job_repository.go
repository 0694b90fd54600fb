package repository

import (
	"context"
	"time"

	"anti-ghosting/internal/database"
	"anti-ghosting/internal/domain/schedule"

	"github.com/google/uuid"
)

type ScheduledJobRepository interface {
	// Schedule inserts the job, or moves the pending job with the same dedupe
	// key to the new due time and payload.
	Schedule(ctx context.Context, job schedule.Job) error
	// Cancel drops the pending job with the given dedupe key, if any.
	Cancel(ctx context.Context, dedupeKey string, at time.Time) error
	// ClaimDue marks up to limit due jobs as running and returns them. Running
	// jobs untouched for longer than lease are claimed again.
	ClaimDue(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]schedule.Job, error)
	MarkDone(ctx context.Context, id uuid.UUID, at time.Time) error
	// MarkFailed puts the job back to pending at retryAt, or fails it for good
	// when retryAt is nil.
	MarkFailed(ctx context.Context, id uuid.UUID, reason string, retryAt *time.Time, at time.Time) error
}

type PostgresScheduledJobRepository struct {
	db database.DB
}

func NewPostgresScheduledJobRepository(db database.DB) *PostgresScheduledJobRepository {
	return &PostgresScheduledJobRepository{db: db}
}

func (r *PostgresScheduledJobRepository) Schedule(ctx context.Context, job schedule.Job) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	payload := []byte(job.Payload)
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO scheduled_jobs (id, kind, application_id, dedupe_key, payload, due_at, status)
		 VALUES ($1, $2, $3, $4, $5, $6, 'pending')
		 ON CONFLICT (dedupe_key) WHERE status = 'pending' DO UPDATE SET
			payload = EXCLUDED.payload,
			due_at = EXCLUDED.due_at,
			attempts = 0,
			last_error = NULL,
			updated_at = now()`,
		job.ID, string(job.Kind), job.ApplicationID, job.DedupeKey, payload, job.DueAt,
	)
	return err
}

func (r *PostgresScheduledJobRepository) Cancel(ctx context.Context, dedupeKey string, at time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE scheduled_jobs SET status = 'cancelled', updated_at = $2 WHERE dedupe_key = $1 AND status = 'pending'`,
		dedupeKey, at,
	)
	return err
}

func (r *PostgresScheduledJobRepository) ClaimDue(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]schedule.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	if lease <= 0 {
		lease = 10 * time.Minute
	}

	rows, err := r.db.Query(ctx,
		`UPDATE scheduled_jobs
		 SET status = 'running', attempts = attempts + 1, updated_at = $1
		 WHERE id IN (
			SELECT id FROM scheduled_jobs
			WHERE (status = 'pending' AND due_at <= $1)
			   OR (status = 'running' AND updated_at < $3)
			ORDER BY due_at
			FOR UPDATE SKIP LOCKED
			LIMIT $2
		 )
		 RETURNING id, kind, application_id, dedupe_key, payload, due_at, status, attempts, last_error`,
		now, limit, now.Add(-lease),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]schedule.Job, 0)
	for rows.Next() {
		var j schedule.Job
		var kind, status string
		var payload []byte
		if err := rows.Scan(&j.ID, &kind, &j.ApplicationID, &j.DedupeKey, &payload, &j.DueAt, &status, &j.Attempts, &j.LastError); err != nil {
			return nil, err
		}
		j.Kind = schedule.Kind(kind)
		j.Status = schedule.Status(status)
		j.Payload = payload
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresScheduledJobRepository) MarkDone(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE scheduled_jobs SET status = 'done', last_error = NULL, updated_at = $2 WHERE id = $1`, id, at)
	return err
}

func (r *PostgresScheduledJobRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string, retryAt *time.Time, at time.Time) error {
	if retryAt != nil {
		_, err := r.db.Exec(ctx,
			`UPDATE scheduled_jobs SET status = 'pending', due_at = $3, last_error = $2, updated_at = $4 WHERE id = $1`,
			id, reason, *retryAt, at,
		)
		return err
	}
	_, err := r.db.Exec(ctx,
		`UPDATE scheduled_jobs SET status = 'failed', last_error = $2, updated_at = $3 WHERE id = $1`,
		id, reason, at,
	)
	return err
}
