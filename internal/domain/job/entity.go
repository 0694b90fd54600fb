package job

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("job not found")
	ErrCompanyNotFound = errors.New("company not found")
)

type Company struct {
	ID        uuid.UUID
	Name      string
	OwnerID   uuid.UUID
	CreatedAt time.Time
}

// Job is a posting owned by one company.
type Job struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	Title     string
	CreatedAt time.Time
}
