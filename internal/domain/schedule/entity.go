package schedule

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindDeadlineWarning Kind = "deadline_warning"
	KindFeedbackRequest Kind = "feedback_request"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusDone      Status = "done"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Job is a durable delayed action. Scheduling a job whose DedupeKey matches
// a pending one replaces the pending job's due time and payload.
type Job struct {
	ID            uuid.UUID
	Kind          Kind
	ApplicationID uuid.UUID
	DedupeKey     string
	Payload       json.RawMessage
	DueAt         time.Time
	Status        Status
	Attempts      int
	LastError     *string
}

func DedupeKey(kind Kind, applicationID uuid.UUID) string {
	return string(kind) + ":" + applicationID.String()
}

// WarningPayload pins a deadline warning to the deadline it was scheduled
// for, so a warning outlived by a newer deadline can be dropped.
type WarningPayload struct {
	Deadline time.Time `json:"deadline"`
}
