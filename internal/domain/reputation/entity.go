package reputation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrCompanyNotFound = errors.New("company not found")

// Score is the persisted responsiveness snapshot of one company.
type Score struct {
	CompanyID             uuid.UUID
	ResponseTimeScore     float64
	GhostingRate          float64
	TotalApplications     int
	RespondedApplications int
	AverageResponseTime   *float64
	CandidateSatisfaction float64
	LastUpdated           time.Time
}
