package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"anti-ghosting/internal/domain/application"
	"anti-ghosting/internal/domain/reputation"
	"anti-ghosting/internal/logger"
	"anti-ghosting/internal/pkg/response"
	"anti-ghosting/internal/usecase"
	"anti-ghosting/internal/usecase/sweeper"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", fmt.Errorf("load: %w", application.ErrNotFound), fiber.StatusNotFound},
		{"company", reputation.ErrCompanyNotFound, fiber.StatusNotFound},
		{"invalid input", fmt.Errorf("%w: %w", usecase.ErrInvalidInput, errors.New("rating")), fiber.StatusBadRequest},
		{"transition", fmt.Errorf("%w: PENDING to ACCEPTED", application.ErrInvalidTransition), fiber.StatusUnprocessableEntity},
		{"stale write", application.ErrStatusConflict, fiber.StatusConflict},
		{"duplicate", usecase.ErrDuplicateApplication, fiber.StatusConflict},
		{"sweep locked", sweeper.ErrSweepInProgress, fiber.StatusConflict},
		{"fiber", fiber.ErrMethodNotAllowed, fiber.StatusMethodNotAllowed},
		{"app error", NewAppError(fiber.StatusBadRequest, "", nil, nil), fiber.StatusBadRequest},
		{"app error 5xx", NewAppError(fiber.StatusBadGateway, "upstream", nil, nil), fiber.StatusInternalServerError},
		{"unknown", errors.New("connection reset"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, msg, _ := normalizeError(tc.err)
			assert.Equal(t, tc.status, status)
			assert.NotEmpty(t, msg)
		})
	}
}

func TestNormalizeError_HidesInternalDetail(t *testing.T) {
	_, msg, data := normalizeError(errors.New("pq: password authentication failed"))
	assert.Equal(t, response.MessageInternalServerError, msg)
	assert.Nil(t, data)
}

func newTestApp(h fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(NewAccessLogMiddleware(logger.Discard()).Middleware())
	app.Use(NewErrorMiddleware(logger.Discard()).Middleware())
	app.Get("/", h)
	return app
}

func decodeEnvelope(t *testing.T, resp *http.Response) response.SemanticResponse {
	t.Helper()
	defer resp.Body.Close()
	var out response.SemanticResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestErrorMiddleware_RecoversPanic(t *testing.T) {
	app := newTestApp(func(fiber.Ctx) error {
		panic("boom")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	body := decodeEnvelope(t, resp)
	assert.Equal(t, response.MessageInternalServerError, body.Message)
}

func TestErrorMiddleware_BadRequestCarriesField(t *testing.T) {
	app := newTestApp(func(fiber.Ctx) error {
		return BadRequest("limit", nil)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body := decodeEnvelope(t, resp)
	assert.Equal(t, "invalid limit", body.Message)
	assert.Equal(t, map[string]any{"field": "limit"}, body.Data)
}

func TestAccessLog_EchoesRequestID(t *testing.T) {
	app := newTestApp(func(c fiber.Ctx) error {
		return response.Success(c, fiber.StatusOK, "", nil)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "req-123", resp.Header.Get("X-Request-ID"))

	body := decodeEnvelope(t, resp)
	assert.Equal(t, "req-123", body.RequestID)
	assert.Equal(t, response.MessageOK, body.Message)
}

func TestAccessLog_GeneratesRequestID(t *testing.T) {
	app := newTestApp(func(c fiber.Ctx) error {
		return response.Success(c, fiber.StatusOK, "", nil)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Len(t, resp.Header.Get("X-Request-ID"), 36)
}
