package notification

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("notification not found")

type Type string

const (
	TypeStatusUpdate    Type = "STATUS_UPDATE"
	TypeDeadlineWarning Type = "DEADLINE_WARNING"
	TypeOverdue         Type = "OVERDUE"
	TypeFeedbackRequest Type = "FEEDBACK_REQUEST"
)

// Request is what a component hands to the dispatcher.
type Request struct {
	ApplicationID  uuid.UUID
	RecipientID    uuid.UUID
	Type           Type
	Title          string
	Message        string
	ActionRequired bool
}

type Notification struct {
	ID             uuid.UUID  `json:"id"`
	ApplicationID  uuid.UUID  `json:"application_id"`
	RecipientID    uuid.UUID  `json:"recipient_id"`
	Type           Type       `json:"type"`
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	ActionRequired bool       `json:"action_required"`
	Sent           bool       `json:"sent"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func FromRequest(id uuid.UUID, r Request, createdAt time.Time) Notification {
	return Notification{
		ID:             id,
		ApplicationID:  r.ApplicationID,
		RecipientID:    r.RecipientID,
		Type:           r.Type,
		Title:          r.Title,
		Message:        r.Message,
		ActionRequired: r.ActionRequired,
		CreatedAt:      createdAt,
	}
}
