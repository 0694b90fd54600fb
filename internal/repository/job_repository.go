package repository

import (
	"context"

	"anti-ghosting/internal/database"
	"anti-ghosting/internal/database/postgres"
	"anti-ghosting/internal/domain/job"

	"github.com/google/uuid"
)

type JobRepository interface {
	ExistsByID(ctx context.Context, jobID uuid.UUID) (bool, error)
	GetByID(ctx context.Context, jobID uuid.UUID) (job.Job, error)
	GetCompany(ctx context.Context, companyID uuid.UUID) (job.Company, error)
}

type PostgresJobRepository struct {
	db database.DB
}

func NewPostgresJobRepository(db database.DB) *PostgresJobRepository {
	return &PostgresJobRepository{db: db}
}

func (r *PostgresJobRepository) ExistsByID(ctx context.Context, jobID uuid.UUID) (bool, error) {
	var exists bool
	row := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM jobs WHERE id = $1)`, jobID)
	if err := row.Scan(&exists); err != nil {
		if postgres.IsNoRows(err) {
			return false, nil
		}
		return false, err
	}
	return exists, nil
}

func (r *PostgresJobRepository) GetByID(ctx context.Context, jobID uuid.UUID) (job.Job, error) {
	var j job.Job
	row := r.db.QueryRow(ctx, `SELECT id, company_id, title, created_at FROM jobs WHERE id = $1`, jobID)
	if err := row.Scan(&j.ID, &j.CompanyID, &j.Title, &j.CreatedAt); err != nil {
		if postgres.IsNoRows(err) {
			return job.Job{}, job.ErrNotFound
		}
		return job.Job{}, err
	}
	return j, nil
}

func (r *PostgresJobRepository) GetCompany(ctx context.Context, companyID uuid.UUID) (job.Company, error) {
	var c job.Company
	row := r.db.QueryRow(ctx, `SELECT id, name, owner_id, created_at FROM companies WHERE id = $1`, companyID)
	if err := row.Scan(&c.ID, &c.Name, &c.OwnerID, &c.CreatedAt); err != nil {
		if postgres.IsNoRows(err) {
			return job.Company{}, job.ErrCompanyNotFound
		}
		return job.Company{}, err
	}
	return c, nil
}
