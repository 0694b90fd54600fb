package memory

import (
	"time"

	"anti-ghosting/internal/domain/application"
	"anti-ghosting/internal/domain/job"
	"anti-ghosting/internal/domain/user"

	"github.com/google/uuid"
)

// Posting is a company with one open job.
type Posting struct {
	Owner   user.User
	Company job.Company
	Job     job.Job
}

func (s *Store) SeedPosting(companyName, title string) Posting {
	owner := s.AddUser(user.User{Name: companyName + " Recruiting", Email: uuid.NewString() + "@company.test"})
	company := s.AddCompany(job.Company{Name: companyName, OwnerID: owner.ID})
	j := s.AddJob(job.Job{CompanyID: company.ID, Title: title})
	return Posting{Owner: owner, Company: company, Job: j}
}

// SeedApplication stores a PENDING application from a new candidate. The
// deadline is left unset.
func (s *Store) SeedApplication(p Posting, candidateName string, appliedAt time.Time) (user.User, application.Application) {
	candidate := s.AddUser(user.User{Name: candidateName, Email: uuid.NewString() + "@candidate.test"})
	app := s.PutApplication(application.Application{
		JobID:       p.Job.ID,
		CandidateID: candidate.ID,
		Status:      application.StatusPending,
		AppliedAt:   appliedAt,
	})
	return candidate, app
}
