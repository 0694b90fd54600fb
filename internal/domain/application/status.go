package application

import (
	"strings"
	"time"

	"anti-ghosting/internal/config"
)

type Status string

const (
	StatusPending     Status = "PENDING"
	StatusReviewed    Status = "REVIEWED"
	StatusInterviewed Status = "INTERVIEWED"
	StatusOffered     Status = "OFFERED"
	StatusAccepted    Status = "ACCEPTED"
	StatusRejected    Status = "REJECTED"
	StatusExpired     Status = "EXPIRED"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{
	StatusPending,
	StatusReviewed,
	StatusInterviewed,
	StatusOffered,
	StatusAccepted,
	StatusRejected,
	StatusExpired,
}

// AwaitingCompanyStatuses are the statuses in which the company owes the
// candidate a response and the deadline clock is running.
var AwaitingCompanyStatuses = []Status{StatusPending, StatusReviewed, StatusInterviewed}

func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	return s, s.Valid()
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusReviewed, StatusInterviewed, StatusOffered,
		StatusAccepted, StatusRejected, StatusExpired:
		return true
	default:
		return false
	}
}

func (s Status) Terminal() bool {
	switch s {
	case StatusAccepted, StatusRejected, StatusExpired:
		return true
	default:
		return false
	}
}

func (s Status) AwaitingCompany() bool {
	switch s {
	case StatusPending, StatusReviewed, StatusInterviewed:
		return true
	default:
		return false
	}
}

// Responded reports whether the company has acted on the application.
// Expired applications count as ghosted, not responded.
func (s Status) Responded() bool {
	return s != StatusPending && s != StatusExpired
}

// FeedbackEligible reports whether a candidate is asked for feedback once
// the application lands in s.
func (s Status) FeedbackEligible() bool {
	return s == StatusAccepted || s == StatusRejected
}

func (s Status) String() string {
	return string(s)
}

var transitions = map[Status][]Status{
	StatusPending:     {StatusReviewed, StatusInterviewed, StatusOffered, StatusRejected},
	StatusReviewed:    {StatusInterviewed, StatusOffered, StatusRejected},
	StatusInterviewed: {StatusOffered, StatusRejected},
	StatusOffered:     {StatusAccepted, StatusRejected},
}

// CanTransition reports whether a company action may move an application
// from one status to another. EXPIRED is reserved for the sweeper.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// DeadlineBudget is the status to response-window table. The second return
// value is false for statuses that leave the deadline untouched.
func DeadlineBudget(s Status, sla config.SLAConfig) (time.Duration, bool) {
	switch s {
	case StatusReviewed:
		return hours(sla.InterviewResponseDeadlineHours), true
	case StatusInterviewed:
		return hours(sla.FinalDecisionDeadlineHours), true
	case StatusPending, StatusOffered, StatusAccepted, StatusRejected, StatusExpired:
		return 0, false
	default:
		return 0, false
	}
}

func hours(h int) time.Duration {
	return time.Duration(h) * time.Hour
}
