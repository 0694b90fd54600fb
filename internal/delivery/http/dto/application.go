package dto

import (
	"time"

	"anti-ghosting/internal/domain/application"

	"github.com/google/uuid"
)

type ApplyRequest struct {
	JobID       uuid.UUID `json:"job_id"`
	CandidateID uuid.UUID `json:"candidate_id"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

type FeedbackRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type ApplicationResponse struct {
	ID               uuid.UUID  `json:"id"`
	JobID            uuid.UUID  `json:"job_id"`
	CandidateID      uuid.UUID  `json:"candidate_id"`
	CompanyID        uuid.UUID  `json:"company_id"`
	Status           string     `json:"status"`
	AppliedAt        time.Time  `json:"applied_at"`
	ResponseDeadline *time.Time `json:"response_deadline"`
	LastStatusUpdate *time.Time `json:"last_status_update"`
	AutoRejectedAt   *time.Time `json:"auto_rejected_at"`
	FeedbackGiven    bool       `json:"feedback_given"`
	Overdue          bool       `json:"overdue"`
}

func NewApplicationResponse(a application.Application, now time.Time) ApplicationResponse {
	return ApplicationResponse{
		ID:               a.ID,
		JobID:            a.JobID,
		CandidateID:      a.CandidateID,
		CompanyID:        a.CompanyID,
		Status:           a.Status.String(),
		AppliedAt:        a.AppliedAt,
		ResponseDeadline: a.ResponseDeadline,
		LastStatusUpdate: a.LastStatusUpdate,
		AutoRejectedAt:   a.AutoRejectedAt,
		FeedbackGiven:    a.FeedbackGiven,
		Overdue:          a.Overdue(now),
	}
}

type TimelineEntryResponse struct {
	Status    string    `json:"status"`
	ChangedAt time.Time `json:"changed_at"`
	Automated bool      `json:"automated"`
	Notes     *string   `json:"notes"`
}

func NewTimelineResponse(entries []application.TimelineEntry) []TimelineEntryResponse {
	out := make([]TimelineEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, TimelineEntryResponse{
			Status:    e.Status.String(),
			ChangedAt: e.ChangedAt,
			Automated: e.Automated,
			Notes:     e.Notes,
		})
	}
	return out
}

type FeedbackResponse struct {
	ID            uuid.UUID `json:"id"`
	ApplicationID uuid.UUID `json:"application_id"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewFeedbackResponse(fb application.Feedback) FeedbackResponse {
	return FeedbackResponse{
		ID:            fb.ID,
		ApplicationID: fb.ApplicationID,
		Rating:        fb.Rating,
		Comment:       fb.Comment,
		CreatedAt:     fb.CreatedAt,
	}
}
