// Package memory keeps every repository in process memory. Tests use it in
// place of Postgres; it follows the same guards as the SQL repositories.
package memory

import (
	"sort"
	"sync"
	"time"

	"anti-ghosting/internal/domain/application"
	"anti-ghosting/internal/domain/job"
	"anti-ghosting/internal/domain/notification"
	"anti-ghosting/internal/domain/reputation"
	"anti-ghosting/internal/domain/schedule"
	"anti-ghosting/internal/domain/user"

	"github.com/google/uuid"
)

type scheduledJob struct {
	job       schedule.Job
	updatedAt time.Time
}

type Store struct {
	mu sync.Mutex

	users         map[uuid.UUID]user.User
	companies     map[uuid.UUID]job.Company
	jobs          map[uuid.UUID]job.Job
	applications  map[uuid.UUID]application.Application
	timeline      map[uuid.UUID][]application.TimelineEntry
	feedback      map[uuid.UUID]application.Feedback
	notifications []notification.Notification
	scores        map[uuid.UUID]reputation.Score
	scheduled     []*scheduledJob

	timelineSeq int64
}

func NewStore() *Store {
	return &Store{
		users:        make(map[uuid.UUID]user.User),
		companies:    make(map[uuid.UUID]job.Company),
		jobs:         make(map[uuid.UUID]job.Job),
		applications: make(map[uuid.UUID]application.Application),
		timeline:     make(map[uuid.UUID][]application.TimelineEntry),
		feedback:     make(map[uuid.UUID]application.Feedback),
		scores:       make(map[uuid.UUID]reputation.Score),
	}
}

func (s *Store) AddUser(u user.User) user.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	s.users[u.ID] = u
	return u
}

func (s *Store) AddCompany(c job.Company) job.Company {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s.companies[c.ID] = c
	return c
}

func (s *Store) AddJob(j job.Job) job.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	s.jobs[j.ID] = j
	return j
}

// PutApplication stores app as-is, bypassing Create, so tests can seed any
// state.
func (s *Store) PutApplication(app application.Application) application.Application {
	s.mu.Lock()
	defer s.mu.Unlock()
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	app = s.resolveCompany(app)
	s.applications[app.ID] = app
	return app
}

// Application returns the stored application with its company fields
// resolved.
func (s *Store) Application(id uuid.UUID) (application.Application, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.applications[id]
	if !ok {
		return application.Application{}, false
	}
	return s.resolveCompany(app), true
}

func (s *Store) NotificationsFor(applicationID uuid.UUID) []notification.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]notification.Notification, 0)
	for _, n := range s.notifications {
		if n.ApplicationID == applicationID {
			out = append(out, n)
		}
	}
	return out
}

func (s *Store) Score(companyID uuid.UUID) (reputation.Score, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.scores[companyID]
	return sc, ok
}

// ScheduledJobs returns a copy of every scheduled job ordered by due time.
func (s *Store) ScheduledJobs() []schedule.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]schedule.Job, 0, len(s.scheduled))
	for _, sj := range s.scheduled {
		out = append(out, sj.job)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueAt.Before(out[j].DueAt) })
	return out
}

func (s *Store) Applications() *Applications   { return &Applications{s: s} }
func (s *Store) Notifications() *Notifications { return &Notifications{s: s} }
func (s *Store) Reputation() *Reputation       { return &Reputation{s: s} }
func (s *Store) Schedule() *Schedule           { return &Schedule{s: s} }
func (s *Store) Jobs() *Jobs                   { return &Jobs{s: s} }
func (s *Store) Users() *Users                 { return &Users{s: s} }

func (s *Store) resolveCompany(app application.Application) application.Application {
	if j, ok := s.jobs[app.JobID]; ok {
		app.CompanyID = j.CompanyID
		if c, ok := s.companies[j.CompanyID]; ok {
			app.CompanyOwnerID = c.OwnerID
		}
	}
	return app
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
