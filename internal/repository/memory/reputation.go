package memory

import (
	"context"

	"anti-ghosting/internal/domain/application"
	"anti-ghosting/internal/domain/reputation"
	"anti-ghosting/internal/repository"

	"github.com/google/uuid"
)

type Reputation struct {
	s *Store
}

var _ repository.ReputationRepository = (*Reputation)(nil)

func (r *Reputation) CompanyExists(_ context.Context, companyID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.companies[companyID]
	return ok, nil
}

func (r *Reputation) ListOutcomes(_ context.Context, companyID uuid.UUID) ([]application.Outcome, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]application.Outcome, 0)
	for _, app := range r.s.applications {
		j, ok := r.s.jobs[app.JobID]
		if !ok || j.CompanyID != companyID {
			continue
		}
		out = append(out, application.Outcome{
			Status:           app.Status,
			AppliedAt:        app.AppliedAt,
			LastStatusUpdate: copyTime(app.LastStatusUpdate),
		})
	}
	return out, nil
}

func (r *Reputation) Upsert(_ context.Context, sc reputation.Score) (reputation.Score, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing, ok := r.s.scores[sc.CompanyID]; ok {
		sc.CandidateSatisfaction = existing.CandidateSatisfaction
	} else {
		sc.CandidateSatisfaction = 0
	}
	r.s.scores[sc.CompanyID] = sc
	return sc, nil
}

func (r *Reputation) Get(_ context.Context, companyID uuid.UUID) (reputation.Score, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sc, ok := r.s.scores[companyID]
	return sc, ok, nil
}

func (r *Reputation) SaveFeedback(_ context.Context, companyID uuid.UUID, fb application.Feedback, fold func(current float64) float64) (reputation.Score, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sc, ok := r.s.scores[companyID]
	if !ok {
		return reputation.Score{}, false, nil
	}
	app, ok := r.s.applications[fb.ApplicationID]
	if !ok {
		return reputation.Score{}, true, application.ErrNotFound
	}
	if app.FeedbackGiven {
		return reputation.Score{}, true, application.ErrFeedbackAlreadyGiven
	}
	if fb.ID == uuid.Nil {
		fb.ID = uuid.New()
	}

	app.FeedbackGiven = true
	r.s.applications[app.ID] = app
	r.s.feedback[app.ID] = fb

	sc.CandidateSatisfaction = fold(sc.CandidateSatisfaction)
	sc.LastUpdated = fb.CreatedAt
	r.s.scores[companyID] = sc
	return sc, true, nil
}
