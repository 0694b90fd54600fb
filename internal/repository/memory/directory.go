package memory

import (
	"context"

	"anti-ghosting/internal/domain/job"
	"anti-ghosting/internal/domain/user"
	"anti-ghosting/internal/repository"

	"github.com/google/uuid"
)

type Jobs struct {
	s *Store
}

var _ repository.JobRepository = (*Jobs)(nil)

func (r *Jobs) ExistsByID(_ context.Context, jobID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.jobs[jobID]
	return ok, nil
}

func (r *Jobs) GetByID(_ context.Context, jobID uuid.UUID) (job.Job, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	j, ok := r.s.jobs[jobID]
	if !ok {
		return job.Job{}, job.ErrNotFound
	}
	return j, nil
}

func (r *Jobs) GetCompany(_ context.Context, companyID uuid.UUID) (job.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.companies[companyID]
	if !ok {
		return job.Company{}, job.ErrCompanyNotFound
	}
	return c, nil
}

type Users struct {
	s *Store
}

var _ user.Repository = (*Users)(nil)

func (r *Users) GetByID(_ context.Context, id uuid.UUID) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}
