// Package reputation keeps each company's responsiveness snapshot current and
// serves it with a letter grade.
package reputation

import (
	"context"
	"fmt"
	"time"

	"anti-ghosting/internal/clock"
	"anti-ghosting/internal/domain/application"
	"anti-ghosting/internal/domain/reputation"
	"anti-ghosting/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Cache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Report is the snapshot as shown to users.
type Report struct {
	CompanyID             uuid.UUID        `json:"company_id"`
	ResponseTimeScore     float64          `json:"response_time_score"`
	GhostingRate          float64          `json:"ghosting_rate"`
	TotalApplications     int              `json:"total_applications"`
	RespondedApplications int              `json:"responded_applications"`
	AverageResponseTime   *float64         `json:"average_response_time_hours"`
	CandidateSatisfaction float64          `json:"candidate_satisfaction"`
	OverallScore          float64          `json:"overall_score"`
	OverallGrade          reputation.Grade `json:"overall_grade"`
	LastUpdated           time.Time        `json:"last_updated"`
}

func NewReport(s reputation.Score) Report {
	overall := reputation.Overall(s)
	return Report{
		CompanyID:             s.CompanyID,
		ResponseTimeScore:     s.ResponseTimeScore,
		GhostingRate:          s.GhostingRate,
		TotalApplications:     s.TotalApplications,
		RespondedApplications: s.RespondedApplications,
		AverageResponseTime:   s.AverageResponseTime,
		CandidateSatisfaction: s.CandidateSatisfaction,
		OverallScore:          overall,
		OverallGrade:          reputation.GradeFor(overall),
		LastUpdated:           s.LastUpdated,
	}
}

type Scorer struct {
	repo     repository.ReputationRepository
	cache    Cache
	cacheTTL time.Duration
	clock    clock.Clock
	logger   logrus.FieldLogger
}

func NewScorer(repo repository.ReputationRepository, cache Cache, cacheTTL time.Duration, clk clock.Clock, logger logrus.FieldLogger) *Scorer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &Scorer{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		clock:    clock.OrSystem(clk),
		logger:   logger.WithField("component", "reputation"),
	}
}

func CacheKey(companyID uuid.UUID) string {
	return "reputation:" + companyID.String()
}

// UpdateCompanyReputationScore recomputes the company's snapshot from all of
// its applications and stores it. Concurrent calls each write a complete
// snapshot, so the last writer leaves a correct row.
func (s *Scorer) UpdateCompanyReputationScore(ctx context.Context, companyID uuid.UUID) (reputation.Score, error) {
	exists, err := s.repo.CompanyExists(ctx, companyID)
	if err != nil {
		return reputation.Score{}, fmt.Errorf("check company: %w", err)
	}
	if !exists {
		return reputation.Score{}, reputation.ErrCompanyNotFound
	}

	outcomes, err := s.repo.ListOutcomes(ctx, companyID)
	if err != nil {
		return reputation.Score{}, fmt.Errorf("list outcomes: %w", err)
	}

	snapshot := reputation.Compute(companyID, outcomes, s.clock.Now())
	stored, err := s.repo.Upsert(ctx, snapshot)
	if err != nil {
		return reputation.Score{}, fmt.Errorf("upsert reputation: %w", err)
	}

	s.invalidate(ctx, companyID)

	s.logger.WithFields(logrus.Fields{
		"step":          "recompute",
		"company_id":    companyID,
		"total":         stored.TotalApplications,
		"ghosting_rate": stored.GhostingRate,
		"score":         stored.ResponseTimeScore,
	}).Debug("reputation updated")
	return stored, nil
}

// RecordFeedback stores one feedback rating and folds it into the company's
// satisfaction in a single write, creating the snapshot first when the
// company has none. On failure nothing is stored, so the call can be retried.
func (s *Scorer) RecordFeedback(ctx context.Context, companyID uuid.UUID, fb application.Feedback) (reputation.Score, error) {
	fold := func(current float64) float64 {
		return reputation.FoldSatisfaction(current, fb.Rating)
	}

	out, found, err := s.repo.SaveFeedback(ctx, companyID, fb, fold)
	if err != nil {
		return reputation.Score{}, fmt.Errorf("save feedback: %w", err)
	}
	if !found {
		if _, err := s.UpdateCompanyReputationScore(ctx, companyID); err != nil {
			return reputation.Score{}, err
		}
		out, found, err = s.repo.SaveFeedback(ctx, companyID, fb, fold)
		if err != nil {
			return reputation.Score{}, fmt.Errorf("save feedback: %w", err)
		}
		if !found {
			return reputation.Score{}, reputation.ErrCompanyNotFound
		}
	}

	s.invalidate(ctx, companyID)
	return out, nil
}

// GetReputation returns the cached report, the stored snapshot, or a freshly
// computed one for a company that has none yet.
func (s *Scorer) GetReputation(ctx context.Context, companyID uuid.UUID) (Report, error) {
	key := CacheKey(companyID)
	if s.cache != nil {
		var cached Report
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err == nil && hit {
			return cached, nil
		}
	}

	score, found, err := s.repo.Get(ctx, companyID)
	if err != nil {
		return Report{}, fmt.Errorf("get reputation: %w", err)
	}
	if !found {
		score, err = s.UpdateCompanyReputationScore(ctx, companyID)
		if err != nil {
			return Report{}, err
		}
	}

	report := NewReport(score)
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, report, s.cacheTTL); err != nil {
			s.logger.WithFields(logrus.Fields{"step": "cache_set", "company_id": companyID}).WithError(err).Warn("cache write failed")
		}
	}
	return report, nil
}

func (s *Scorer) invalidate(ctx context.Context, companyID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, CacheKey(companyID)); err != nil {
		s.logger.WithFields(logrus.Fields{"step": "cache_delete", "company_id": companyID}).WithError(err).Warn("cache invalidation failed")
	}
}
