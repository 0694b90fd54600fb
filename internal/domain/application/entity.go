package application

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound             = errors.New("application not found")
	ErrStatusConflict       = errors.New("application status changed concurrently")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrFeedbackAlreadyGiven = errors.New("feedback already given")
)

type Application struct {
	ID          uuid.UUID
	JobID       uuid.UUID
	CandidateID uuid.UUID

	// CompanyID and CompanyOwnerID are resolved through the job.
	CompanyID      uuid.UUID
	CompanyOwnerID uuid.UUID

	Status           Status
	AppliedAt        time.Time
	ResponseDeadline *time.Time
	LastStatusUpdate *time.Time
	AutoRejectedAt   *time.Time
	FeedbackGiven    bool
}

// Overdue reports whether the sweeper should expire the application at now.
func (a Application) Overdue(now time.Time) bool {
	if a.AutoRejectedAt != nil || !a.Status.AwaitingCompany() || a.ResponseDeadline == nil {
		return false
	}
	return a.ResponseDeadline.Before(now)
}

type TimelineEntry struct {
	ID            int64
	ApplicationID uuid.UUID
	Status        Status
	ChangedAt     time.Time
	Automated     bool
	Notes         *string
}

// Outcome is the slice of an application the reputation scorer reads.
type Outcome struct {
	Status           Status
	AppliedAt        time.Time
	LastStatusUpdate *time.Time
}

type Feedback struct {
	ID            uuid.UUID
	ApplicationID uuid.UUID
	Rating        int
	Comment       string
	CreatedAt     time.Time
}

// SuggestionContext carries what a message generator needs to address the
// candidate.
type SuggestionContext struct {
	ApplicationID uuid.UUID
	JobTitle      string
	CandidateName string
	CompanyName   string
}
