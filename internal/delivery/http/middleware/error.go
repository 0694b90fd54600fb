package middleware

import (
	"errors"
	"fmt"

	"anti-ghosting/internal/domain/application"
	"anti-ghosting/internal/domain/job"
	"anti-ghosting/internal/domain/notification"
	"anti-ghosting/internal/domain/reputation"
	"anti-ghosting/internal/domain/user"
	"anti-ghosting/internal/pkg/response"
	"anti-ghosting/internal/usecase"
	"anti-ghosting/internal/usecase/suggestion"
	"anti-ghosting/internal/usecase/sweeper"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

type AppError struct {
	StatusCode int
	Message    string
	Data       any
	Cause      error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewAppError(statusCode int, message string, data any, cause error) *AppError {
	return &AppError{StatusCode: statusCode, Message: message, Data: data, Cause: cause}
}

// BadRequest reports a malformed path, query or body value.
func BadRequest(field string, cause error) *AppError {
	return NewAppError(fiber.StatusBadRequest, fmt.Sprintf("invalid %s", field), fiber.Map{"field": field}, cause)
}

// domainStatuses maps usecase and domain sentinels to HTTP statuses. The
// first match wins, so wrapped errors keep the status of their sentinel.
var domainStatuses = []struct {
	target error
	status int
}{
	{application.ErrNotFound, fiber.StatusNotFound},
	{job.ErrNotFound, fiber.StatusNotFound},
	{job.ErrCompanyNotFound, fiber.StatusNotFound},
	{reputation.ErrCompanyNotFound, fiber.StatusNotFound},
	{user.ErrNotFound, fiber.StatusNotFound},
	{notification.ErrNotFound, fiber.StatusNotFound},
	{usecase.ErrInvalidInput, fiber.StatusBadRequest},
	{suggestion.ErrUnknownContext, fiber.StatusBadRequest},
	{application.ErrInvalidTransition, fiber.StatusUnprocessableEntity},
	{application.ErrStatusConflict, fiber.StatusConflict},
	{application.ErrFeedbackAlreadyGiven, fiber.StatusConflict},
	{usecase.ErrDuplicateApplication, fiber.StatusConflict},
	{sweeper.ErrSweepInProgress, fiber.StatusConflict},
}

type ErrorMiddleware struct {
	logger logrus.FieldLogger
}

func NewErrorMiddleware(logger logrus.FieldLogger) *ErrorMiddleware {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ErrorMiddleware{logger: logger.WithField("component", "http")}
}

func (m *ErrorMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				m.entry(c).WithField("panic", r).Error("panic recovered")
				err = response.Error(c, fiber.StatusInternalServerError, response.MessageInternalServerError, nil)
			}
		}()

		err = c.Next()
		if err == nil {
			return nil
		}

		status, msg, data := normalizeError(err)
		if status >= fiber.StatusInternalServerError {
			m.entry(c).WithError(err).Error("request failed")
		}
		return response.Error(c, status, msg, data)
	}
}

func (m *ErrorMiddleware) entry(c fiber.Ctx) logrus.FieldLogger {
	rid, _ := c.Locals(response.RequestIDKey).(string)
	return m.logger.WithFields(logrus.Fields{
		"request_id": rid,
		"method":     c.Method(),
		"path":       c.Path(),
	})
}

func normalizeError(err error) (int, string, any) {
	if err == nil {
		return fiber.StatusInternalServerError, response.MessageInternalServerError, nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.StatusCode <= 0 || appErr.StatusCode >= 500 {
			return fiber.StatusInternalServerError, response.MessageInternalServerError, nil
		}
		msg := appErr.Message
		if msg == "" {
			msg = response.DefaultMessage(appErr.StatusCode)
		}
		return appErr.StatusCode, msg, appErr.Data
	}

	for _, d := range domainStatuses {
		if errors.Is(err, d.target) {
			return d.status, err.Error(), nil
		}
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status := fiberErr.Code
		if status <= 0 || status >= 500 {
			return fiber.StatusInternalServerError, response.MessageInternalServerError, nil
		}
		msg := fiberErr.Message
		if msg == "" {
			msg = response.DefaultMessage(status)
		}
		return status, msg, nil
	}

	return fiber.StatusInternalServerError, response.MessageInternalServerError, nil
}
