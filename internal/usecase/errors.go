package usecase

import "errors"

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrDuplicateApplication = errors.New("candidate already applied to this job")
)
