package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anti-ghosting/internal/database"
	"anti-ghosting/internal/database/postgres"
	"anti-ghosting/internal/domain/application"

	"github.com/google/uuid"
)

var ErrDuplicate = errors.New("duplicate record")

type ApplicationRepository interface {
	// Create inserts a PENDING application and its first timeline entry.
	Create(ctx context.Context, app application.Application) (application.Application, error)
	GetByID(ctx context.Context, id uuid.UUID) (application.Application, error)
	// SetResponseDeadline attaches a deadline to the application while it is
	// still in status and not auto-rejected. Otherwise it fails with
	// application.ErrStatusConflict.
	SetResponseDeadline(ctx context.Context, id uuid.UUID, status application.Status, deadline time.Time) error
	// UpdateStatus moves the application from `from` to `to`. It fails with
	// application.ErrStatusConflict when the stored status is no longer `from`.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to application.Status, at time.Time) error
	// AppendTimeline records entry only while the application is still in
	// entry.Status and not auto-rejected, so nothing lands after EXPIRED.
	AppendTimeline(ctx context.Context, entry application.TimelineEntry) error
	ListTimeline(ctx context.Context, id uuid.UUID) ([]application.TimelineEntry, error)
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]application.Application, error)
	// Expire auto-rejects the application and records an automated timeline
	// entry. It reports false when the application no longer qualifies.
	Expire(ctx context.Context, id uuid.UUID, at time.Time, note string) (bool, error)
	GetSuggestionContext(ctx context.Context, id uuid.UUID) (application.SuggestionContext, error)
}

type PostgresApplicationRepository struct {
	db database.DB
}

func NewPostgresApplicationRepository(db database.DB) *PostgresApplicationRepository {
	return &PostgresApplicationRepository{db: db}
}

const applicationColumns = `a.id, a.job_id, a.candidate_id, j.company_id, c.owner_id, a.status,
		a.applied_at, a.response_deadline, a.last_status_update, a.auto_rejected_at, a.feedback_given`

const applicationFrom = `FROM applications a
		JOIN jobs j ON j.id = a.job_id
		JOIN companies c ON c.id = j.company_id`

var awaitingCompanyStatuses = []string{
	string(application.StatusPending),
	string(application.StatusReviewed),
	string(application.StatusInterviewed),
}

func (r *PostgresApplicationRepository) Create(ctx context.Context, app application.Application) (application.Application, error) {
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	if app.Status == "" {
		app.Status = application.StatusPending
	}

	err := database.WithTx(ctx, r.db, func(tx database.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO applications (id, job_id, candidate_id, status, applied_at, response_deadline, feedback_given)
			 VALUES ($1, $2, $3, $4, $5, $6, false)`,
			app.ID, app.JobID, app.CandidateID, string(app.Status), app.AppliedAt, app.ResponseDeadline,
		)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO application_timeline (application_id, status, changed_at, automated) VALUES ($1, $2, $3, false)`,
			app.ID, string(app.Status), app.AppliedAt,
		)
		return err
	})
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return application.Application{}, fmt.Errorf("create application: %w", ErrDuplicate)
		}
		return application.Application{}, fmt.Errorf("create application: %w", err)
	}

	return r.GetByID(ctx, app.ID)
}

func (r *PostgresApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (application.Application, error) {
	row := r.db.QueryRow(ctx, `SELECT `+applicationColumns+` `+applicationFrom+` WHERE a.id = $1`, id)
	app, err := scanApplication(row)
	if err != nil {
		if postgres.IsNoRows(err) {
			return application.Application{}, application.ErrNotFound
		}
		return application.Application{}, err
	}
	return app, nil
}

func (r *PostgresApplicationRepository) SetResponseDeadline(ctx context.Context, id uuid.UUID, status application.Status, deadline time.Time) error {
	n, err := r.db.Exec(ctx,
		`UPDATE applications
		 SET response_deadline = $3
		 WHERE id = $1 AND status = $2 AND auto_rejected_at IS NULL`,
		id, string(status), deadline,
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return conflictOrMissing(ctx, r.db, id)
	}
	return nil
}

func (r *PostgresApplicationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to application.Status, at time.Time) error {
	n, err := r.db.Exec(ctx,
		`UPDATE applications
		 SET status = $3, last_status_update = $4
		 WHERE id = $1 AND status = $2 AND auto_rejected_at IS NULL`,
		id, string(from), string(to), at,
	)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return conflictOrMissing(ctx, r.db, id)
}

func conflictOrMissing(ctx context.Context, q database.Querier, id uuid.UUID) error {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM applications WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return application.ErrNotFound
	}
	return application.ErrStatusConflict
}

func (r *PostgresApplicationRepository) AppendTimeline(ctx context.Context, entry application.TimelineEntry) error {
	return database.WithTx(ctx, r.db, func(tx database.Tx) error {
		var (
			status     string
			rejectedAt *time.Time
		)
		err := tx.QueryRow(ctx,
			`SELECT status, auto_rejected_at FROM applications WHERE id = $1 FOR UPDATE`,
			entry.ApplicationID,
		).Scan(&status, &rejectedAt)
		if err != nil {
			if postgres.IsNoRows(err) {
				return application.ErrNotFound
			}
			return err
		}
		if rejectedAt != nil || application.Status(status) != entry.Status {
			return application.ErrStatusConflict
		}
		return appendTimeline(ctx, tx, entry)
	})
}

func appendTimeline(ctx context.Context, q database.Querier, entry application.TimelineEntry) error {
	_, err := q.Exec(ctx,
		`INSERT INTO application_timeline (application_id, status, changed_at, automated, notes) VALUES ($1, $2, $3, $4, $5)`,
		entry.ApplicationID, string(entry.Status), entry.ChangedAt, entry.Automated, entry.Notes,
	)
	return err
}

func (r *PostgresApplicationRepository) ListTimeline(ctx context.Context, id uuid.UUID) ([]application.TimelineEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, application_id, status, changed_at, automated, notes
		 FROM application_timeline
		 WHERE application_id = $1
		 ORDER BY changed_at ASC, id ASC`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]application.TimelineEntry, 0)
	for rows.Next() {
		var e application.TimelineEntry
		var status string
		if err := rows.Scan(&e.ID, &e.ApplicationID, &status, &e.ChangedAt, &e.Automated, &e.Notes); err != nil {
			return nil, err
		}
		e.Status = application.Status(status)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresApplicationRepository) ListOverdue(ctx context.Context, now time.Time, limit int) ([]application.Application, error) {
	if limit <= 0 {
		limit = 500
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+applicationColumns+` `+applicationFrom+`
		 WHERE a.response_deadline < $1
		   AND a.status = ANY($2)
		   AND a.auto_rejected_at IS NULL
		 ORDER BY a.response_deadline ASC
		 LIMIT $3`,
		now, awaitingCompanyStatuses, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]application.Application, 0)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresApplicationRepository) Expire(ctx context.Context, id uuid.UUID, at time.Time, note string) (bool, error) {
	expired := false
	err := database.WithTx(ctx, r.db, func(tx database.Tx) error {
		n, err := tx.Exec(ctx,
			`UPDATE applications
			 SET status = $2, auto_rejected_at = $3, last_status_update = $3
			 WHERE id = $1
			   AND auto_rejected_at IS NULL
			   AND status = ANY($4)
			   AND response_deadline < $3`,
			id, string(application.StatusExpired), at, awaitingCompanyStatuses,
		)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		expired = true
		return appendTimeline(ctx, tx, application.TimelineEntry{
			ApplicationID: id,
			Status:        application.StatusExpired,
			ChangedAt:     at,
			Automated:     true,
			Notes:         &note,
		})
	})
	if err != nil {
		return false, err
	}
	return expired, nil
}

func (r *PostgresApplicationRepository) GetSuggestionContext(ctx context.Context, id uuid.UUID) (application.SuggestionContext, error) {
	out := application.SuggestionContext{ApplicationID: id}
	row := r.db.QueryRow(ctx,
		`SELECT j.title, u.name, c.name
		 FROM applications a
		 JOIN jobs j ON j.id = a.job_id
		 JOIN companies c ON c.id = j.company_id
		 JOIN users u ON u.id = a.candidate_id
		 WHERE a.id = $1`,
		id,
	)
	if err := row.Scan(&out.JobTitle, &out.CandidateName, &out.CompanyName); err != nil {
		if postgres.IsNoRows(err) {
			return application.SuggestionContext{}, application.ErrNotFound
		}
		return application.SuggestionContext{}, err
	}
	return out, nil
}

func scanApplication(row database.Row) (application.Application, error) {
	var a application.Application
	var status string
	err := row.Scan(
		&a.ID, &a.JobID, &a.CandidateID, &a.CompanyID, &a.CompanyOwnerID, &status,
		&a.AppliedAt, &a.ResponseDeadline, &a.LastStatusUpdate, &a.AutoRejectedAt, &a.FeedbackGiven,
	)
	if err != nil {
		return application.Application{}, err
	}
	a.Status = application.Status(status)
	return a, nil
}
