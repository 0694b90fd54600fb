package reputation

import (
	"time"

	"anti-ghosting/internal/domain/application"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// NeutralResponseTimeScore is used until a company has answered anything.
	NeutralResponseTimeScore = 50.0

	penaltyPerDay = 20.0
	maxScore      = 100.0
)

// Compute derives a company's snapshot from its full current application
// set. CandidateSatisfaction is not touched; it belongs to the feedback path.
func Compute(companyID uuid.UUID, outcomes []application.Outcome, now time.Time) Score {
	s := Score{CompanyID: companyID, LastUpdated: now}

	var (
		expired    int
		answered   int
		totalHours float64
	)
	for _, o := range outcomes {
		s.TotalApplications++
		if o.Status.Responded() {
			s.RespondedApplications++
		}
		if o.Status == application.StatusExpired {
			expired++
		}
		if o.Status != application.StatusPending && o.LastStatusUpdate != nil {
			answered++
			totalHours += o.LastStatusUpdate.Sub(o.AppliedAt).Hours()
		}
	}

	if s.TotalApplications > 0 {
		s.GhostingRate = round2(float64(expired) / float64(s.TotalApplications) * 100)
	}

	s.ResponseTimeScore = NeutralResponseTimeScore
	if answered > 0 {
		mean := totalHours / float64(answered)
		avg := round2(mean)
		s.AverageResponseTime = &avg
		s.ResponseTimeScore = ResponseTimeScore(mean)
	}
	return s
}

// ResponseTimeScore costs 20 points per 24 hours of average delay, floored at
// zero and capped at 100.
func ResponseTimeScore(averageHours float64) float64 {
	v := maxScore - (averageHours/24)*penaltyPerDay
	if v < 0 {
		v = 0
	}
	if v > maxScore {
		v = maxScore
	}
	return round2(v)
}

// FoldSatisfaction weighs the newest rating equally against the prior
// aggregate.
func FoldSatisfaction(current float64, rating int) float64 {
	return round2((current + float64(rating)) / 2)
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
