package repository

import (
	"context"

	"anti-ghosting/internal/database"
	"anti-ghosting/internal/database/postgres"
	"anti-ghosting/internal/domain/application"
	"anti-ghosting/internal/domain/reputation"

	"github.com/google/uuid"
)

type ReputationRepository interface {
	CompanyExists(ctx context.Context, companyID uuid.UUID) (bool, error)
	// ListOutcomes returns every application for jobs owned by the company.
	ListOutcomes(ctx context.Context, companyID uuid.UUID) ([]application.Outcome, error)
	// Upsert overwrites every computed field and keeps candidate_satisfaction,
	// which starts at zero on insert.
	Upsert(ctx context.Context, s reputation.Score) (reputation.Score, error)
	Get(ctx context.Context, companyID uuid.UUID) (reputation.Score, bool, error)
	// SaveFeedback stores fb, marks its application as rated and applies fold
	// to the stored satisfaction, all in one transaction under the snapshot's
	// row lock. found is false, and nothing is written, when the company has
	// no snapshot yet.
	SaveFeedback(ctx context.Context, companyID uuid.UUID, fb application.Feedback, fold func(current float64) float64) (score reputation.Score, found bool, err error)
}

type PostgresReputationRepository struct {
	db database.DB
}

func NewPostgresReputationRepository(db database.DB) *PostgresReputationRepository {
	return &PostgresReputationRepository{db: db}
}

const reputationColumns = `company_id, response_time_score, ghosting_rate, total_applications, responded_applications,
		average_response_time, candidate_satisfaction, last_updated`

func (r *PostgresReputationRepository) CompanyExists(ctx context.Context, companyID uuid.UUID) (bool, error) {
	var exists bool
	row := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM companies WHERE id = $1)`, companyID)
	if err := row.Scan(&exists); err != nil {
		if postgres.IsNoRows(err) {
			return false, nil
		}
		return false, err
	}
	return exists, nil
}

func (r *PostgresReputationRepository) ListOutcomes(ctx context.Context, companyID uuid.UUID) ([]application.Outcome, error) {
	rows, err := r.db.Query(ctx,
		`SELECT a.status, a.applied_at, a.last_status_update
		 FROM applications a
		 JOIN jobs j ON j.id = a.job_id
		 WHERE j.company_id = $1`,
		companyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]application.Outcome, 0)
	for rows.Next() {
		var o application.Outcome
		var status string
		if err := rows.Scan(&status, &o.AppliedAt, &o.LastStatusUpdate); err != nil {
			return nil, err
		}
		o.Status = application.Status(status)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresReputationRepository) Upsert(ctx context.Context, s reputation.Score) (reputation.Score, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO company_reputation_scores (`+reputationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, 0, $7)
		 ON CONFLICT (company_id) DO UPDATE SET
			response_time_score = EXCLUDED.response_time_score,
			ghosting_rate = EXCLUDED.ghosting_rate,
			total_applications = EXCLUDED.total_applications,
			responded_applications = EXCLUDED.responded_applications,
			average_response_time = EXCLUDED.average_response_time,
			last_updated = EXCLUDED.last_updated
		 RETURNING `+reputationColumns,
		s.CompanyID, s.ResponseTimeScore, s.GhostingRate, s.TotalApplications, s.RespondedApplications,
		s.AverageResponseTime, s.LastUpdated,
	)
	return scanScore(row)
}

func (r *PostgresReputationRepository) Get(ctx context.Context, companyID uuid.UUID) (reputation.Score, bool, error) {
	row := r.db.QueryRow(ctx, `SELECT `+reputationColumns+` FROM company_reputation_scores WHERE company_id = $1`, companyID)
	s, err := scanScore(row)
	if err != nil {
		if postgres.IsNoRows(err) {
			return reputation.Score{}, false, nil
		}
		return reputation.Score{}, false, err
	}
	return s, true, nil
}

func (r *PostgresReputationRepository) SaveFeedback(ctx context.Context, companyID uuid.UUID, fb application.Feedback, fold func(current float64) float64) (reputation.Score, bool, error) {
	if fb.ID == uuid.Nil {
		fb.ID = uuid.New()
	}

	var (
		out   reputation.Score
		found bool
	)
	err := database.WithTx(ctx, r.db, func(tx database.Tx) error {
		var current float64
		err := tx.QueryRow(ctx,
			`SELECT candidate_satisfaction FROM company_reputation_scores WHERE company_id = $1 FOR UPDATE`,
			companyID,
		).Scan(&current)
		if err != nil {
			if postgres.IsNoRows(err) {
				return nil
			}
			return err
		}
		found = true

		n, err := tx.Exec(ctx,
			`UPDATE applications SET feedback_given = true WHERE id = $1 AND feedback_given = false`,
			fb.ApplicationID,
		)
		if err != nil {
			return err
		}
		if n == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM applications WHERE id = $1)`, fb.ApplicationID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return application.ErrNotFound
			}
			return application.ErrFeedbackAlreadyGiven
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO application_feedback (id, application_id, rating, comment, created_at) VALUES ($1, $2, $3, $4, $5)`,
			fb.ID, fb.ApplicationID, fb.Rating, fb.Comment, fb.CreatedAt,
		)
		if err != nil {
			return err
		}

		row := tx.QueryRow(ctx,
			`UPDATE company_reputation_scores
			 SET candidate_satisfaction = $2, last_updated = $3
			 WHERE company_id = $1
			 RETURNING `+reputationColumns,
			companyID, fold(current), fb.CreatedAt,
		)
		out, err = scanScore(row)
		return err
	})
	if err != nil {
		return reputation.Score{}, false, err
	}
	return out, found, nil
}

func scanScore(row database.Row) (reputation.Score, error) {
	var s reputation.Score
	err := row.Scan(
		&s.CompanyID, &s.ResponseTimeScore, &s.GhostingRate, &s.TotalApplications, &s.RespondedApplications,
		&s.AverageResponseTime, &s.CandidateSatisfaction, &s.LastUpdated,
	)
	if err != nil {
		return reputation.Score{}, err
	}
	return s, nil
}
