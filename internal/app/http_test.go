package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anti-ghosting/internal/clock"
	"anti-ghosting/internal/config"
	"anti-ghosting/internal/delivery/http/handler"
	"anti-ghosting/internal/domain/user"
	"anti-ghosting/internal/logger"
	"anti-ghosting/internal/repository/memory"
	"anti-ghosting/internal/usecase/sweeper"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

type listMeta struct {
	Count int `json:"count"`
}

type envelope struct {
	Status    int             `json:"status"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Meta      *listMeta       `json:"meta"`
	RequestID string          `json:"request_id"`
}

type applicationBody struct {
	ID               uuid.UUID  `json:"id"`
	Status           string     `json:"status"`
	ResponseDeadline *time.Time `json:"response_deadline"`
	AutoRejectedAt   *time.Time `json:"auto_rejected_at"`
	Overdue          bool       `json:"overdue"`
}

type testLocker struct {
	held bool
}

func (l *testLocker) SetIfNotExists(context.Context, string, string, time.Duration) (bool, error) {
	if l.held {
		return false, nil
	}
	return true, nil
}

func (l *testLocker) ReleaseIfOwner(context.Context, string, string) error { return nil }

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type apiFixture struct {
	t         *testing.T
	store     *memory.Store
	clock     *clock.Fake
	locker    *testLocker
	svcs      *Services
	app       *fiber.App
	posting   memory.Posting
	candidate user.User
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	store := memory.NewStore()
	clk := clock.NewFake(t0)
	locker := &testLocker{}
	cfg := config.Config{
		App:    config.AppConfig{AppName: "anti-ghosting-test"},
		SLA:    config.DefaultSLA(),
		Worker: config.DefaultWorker(),
	}

	svcs := NewServices(cfg, Repositories{
		Applications:  store.Applications(),
		Jobs:          store.Jobs(),
		Users:         store.Users(),
		Notifications: store.Notifications(),
		Reputation:    store.Reputation(),
		Scheduled:     store.Schedule(),
	}, Adapters{Locker: locker}, clk, logger.Discard())

	posting := store.SeedPosting("Globex", "Site Reliability Engineer")
	candidate := store.AddUser(user.User{Name: "Rin", Email: "rin@candidate.test"})

	return &apiFixture{
		t:         t,
		store:     store,
		clock:     clk,
		locker:    locker,
		svcs:      svcs,
		app:       NewHTTP(cfg, svcs, nil, logger.Discard()),
		posting:   posting,
		candidate: candidate,
	}
}

func (f *apiFixture) do(method, path string, body any) (int, envelope) {
	f.t.Helper()

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(f.t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.app.Test(req)
	require.NoError(f.t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(f.t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(f.t, resp.StatusCode, env.Status)
	assert.NotEmpty(f.t, resp.Header.Get("X-Request-ID"))
	return resp.StatusCode, env
}

func (f *apiFixture) apply() applicationBody {
	f.t.Helper()
	code, env := f.do(http.MethodPost, "/api/v1/applications", map[string]any{
		"job_id":       f.posting.Job.ID,
		"candidate_id": f.candidate.ID,
	})
	require.Equal(f.t, http.StatusCreated, code, env.Message)

	var out applicationBody
	require.NoError(f.t, json.Unmarshal(env.Data, &out))
	return out
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)

	code, env := f.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", env.Message)
}

func TestHealth_FailingCheck(t *testing.T) {
	f := newAPIFixture(t)
	checks := map[string]handler.Pinger{
		"postgres": pingerFunc(func(context.Context) error { return errors.New("down") }),
	}
	f.app = NewHTTP(config.Config{}, f.svcs, checks, logger.Discard())

	code, env := f.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	body := decode[struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}](t, env)
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "down", body.Components["postgres"])
}

func TestApply_SetsInitialDeadline(t *testing.T) {
	f := newAPIFixture(t)

	app := f.apply()
	assert.Equal(t, "PENDING", app.Status)
	require.NotNil(t, app.ResponseDeadline)
	assert.True(t, t0.Add(72*time.Hour).Equal(*app.ResponseDeadline))
	assert.False(t, app.Overdue)

	code, env := f.do(http.MethodGet, "/api/v1/applications/"+app.ID.String(), nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, app.ID, decode[applicationBody](t, env).ID)
}

func TestApply_Errors(t *testing.T) {
	f := newAPIFixture(t)
	f.apply()

	code, _ := f.do(http.MethodPost, "/api/v1/applications", map[string]any{
		"job_id":       f.posting.Job.ID,
		"candidate_id": f.candidate.ID,
	})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = f.do(http.MethodPost, "/api/v1/applications", map[string]any{
		"job_id":       uuid.New(),
		"candidate_id": f.candidate.ID,
	})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = f.do(http.MethodPost, "/api/v1/applications", map[string]any{"job_id": f.posting.Job.ID})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestGetApplication_BadAndUnknownID(t *testing.T) {
	f := newAPIFixture(t)

	code, env := f.do(http.MethodGet, "/api/v1/applications/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid id", env.Message)

	code, _ = f.do(http.MethodGet, "/api/v1/applications/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestUpdateStatus_MovesDeadlineAndNotifies(t *testing.T) {
	f := newAPIFixture(t)
	app := f.apply()
	f.clock.Advance(10 * time.Hour)

	code, env := f.do(http.MethodPatch, "/api/v1/applications/"+app.ID.String()+"/status", map[string]any{
		"status": "reviewed",
		"notes":  "Strong portfolio",
	})
	require.Equal(t, http.StatusOK, code, env.Message)

	got := decode[applicationBody](t, env)
	assert.Equal(t, "REVIEWED", got.Status)
	require.NotNil(t, got.ResponseDeadline)
	assert.True(t, t0.Add(58*time.Hour).Equal(*got.ResponseDeadline))

	code, env = f.do(http.MethodGet, "/api/v1/applications/"+app.ID.String()+"/timeline", nil)
	assert.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 2, env.Meta.Count)

	code, env = f.do(http.MethodGet, "/api/v1/users/"+f.candidate.ID.String()+"/notifications", nil)
	assert.Equal(t, http.StatusOK, code)
	items := decode[[]struct {
		Type string `json:"type"`
	}](t, env)
	require.Len(t, items, 1)
	assert.Equal(t, "STATUS_UPDATE", items[0].Type)
}

func TestUpdateStatus_Errors(t *testing.T) {
	f := newAPIFixture(t)
	app := f.apply()
	path := "/api/v1/applications/" + app.ID.String() + "/status"

	code, _ := f.do(http.MethodPatch, path, map[string]any{"status": "ACCEPTED"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, env := f.do(http.MethodPatch, path, map[string]any{"status": "ghosted"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid status", env.Message)

	code, _ = f.do(http.MethodPatch, path, map[string]any{"status": "EXPIRED"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestFeedback(t *testing.T) {
	f := newAPIFixture(t)
	app := f.apply()
	feedbackPath := "/api/v1/applications/" + app.ID.String() + "/feedback"

	code, _ := f.do(http.MethodPost, feedbackPath, map[string]any{"rating": 4})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = f.do(http.MethodPatch, "/api/v1/applications/"+app.ID.String()+"/status", map[string]any{"status": "REJECTED"})
	require.Equal(t, http.StatusOK, code)

	code, _ = f.do(http.MethodPost, feedbackPath, map[string]any{"rating": 9})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env := f.do(http.MethodPost, feedbackPath, map[string]any{"rating": 4, "comment": "Clear and quick"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	assert.Equal(t, 4, decode[struct {
		Rating int `json:"rating"`
	}](t, env).Rating)

	code, _ = f.do(http.MethodPost, feedbackPath, map[string]any{"rating": 5})
	assert.Equal(t, http.StatusConflict, code)

	code, env = f.do(http.MethodGet, "/api/v1/companies/"+f.posting.Company.ID.String()+"/reputation", nil)
	require.Equal(t, http.StatusOK, code)
	rep := decode[struct {
		CandidateSatisfaction float64 `json:"candidate_satisfaction"`
	}](t, env)
	assert.Greater(t, rep.CandidateSatisfaction, 0.0)
}

func TestSuggestions(t *testing.T) {
	f := newAPIFixture(t)
	app := f.apply()
	path := "/api/v1/applications/" + app.ID.String() + "/suggestions"

	code, env := f.do(http.MethodGet, path+"?context=rejection", nil)
	require.Equal(t, http.StatusOK, code)
	s := decode[struct {
		Context  string `json:"context"`
		Message  string `json:"message"`
		Fallback bool   `json:"fallback"`
	}](t, env)
	assert.Equal(t, "rejection", s.Context)
	assert.True(t, s.Fallback)
	assert.NotEmpty(t, s.Message)

	code, _ = f.do(http.MethodGet, path+"?context=haiku", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = f.do(http.MethodGet, "/api/v1/applications/"+uuid.NewString()+"/suggestions?context=rejection", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestReputation(t *testing.T) {
	f := newAPIFixture(t)
	f.apply()
	companyPath := "/api/v1/companies/" + f.posting.Company.ID.String() + "/reputation"

	code, env := f.do(http.MethodPost, companyPath+"/recompute", nil)
	require.Equal(t, http.StatusOK, code)
	rep := decode[struct {
		TotalApplications int    `json:"total_applications"`
		OverallGrade      string `json:"overall_grade"`
	}](t, env)
	assert.Equal(t, 1, rep.TotalApplications)
	assert.NotEmpty(t, rep.OverallGrade)

	code, _ = f.do(http.MethodGet, companyPath, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = f.do(http.MethodGet, "/api/v1/companies/"+uuid.NewString()+"/reputation", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestNotifications_MarkReadAndFilter(t *testing.T) {
	f := newAPIFixture(t)
	app := f.apply()
	code, _ := f.do(http.MethodPatch, "/api/v1/applications/"+app.ID.String()+"/status", map[string]any{"status": "INTERVIEWED"})
	require.Equal(t, http.StatusOK, code)

	base := "/api/v1/users/" + f.candidate.ID.String() + "/notifications"
	_, env := f.do(http.MethodGet, base+"?unread=true", nil)
	items := decode[[]struct {
		ID uuid.UUID `json:"id"`
	}](t, env)
	require.Len(t, items, 1)

	code, env = f.do(http.MethodPost, base+"/"+items[0].ID.String()+"/read", nil)
	require.Equal(t, http.StatusOK, code)
	read := decode[struct {
		ReadAt *time.Time `json:"read_at"`
	}](t, env)
	assert.NotNil(t, read.ReadAt)

	_, env = f.do(http.MethodGet, base+"?unread=true", nil)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 0, env.Meta.Count)

	code, _ = f.do(http.MethodGet, base+"?unread=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = f.do(http.MethodPost, "/api/v1/users/"+uuid.NewString()+"/notifications/"+items[0].ID.String()+"/read", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSweepTrigger(t *testing.T) {
	f := newAPIFixture(t)
	app := f.apply()
	f.clock.Advance(73 * time.Hour)

	f.locker.held = true
	code, _ := f.do(http.MethodPost, "/api/v1/internal/sweeps", nil)
	assert.Equal(t, http.StatusConflict, code)

	f.locker.held = false
	code, env := f.do(http.MethodPost, "/api/v1/internal/sweeps", nil)
	require.Equal(t, http.StatusOK, code)
	res := decode[sweeper.Result](t, env)
	assert.Equal(t, 1, res.Expired)

	_, env = f.do(http.MethodGet, "/api/v1/applications/"+app.ID.String(), nil)
	got := decode[applicationBody](t, env)
	assert.Equal(t, "EXPIRED", got.Status)
	assert.NotNil(t, got.AutoRejectedAt)

	code, _ = f.do(http.MethodPatch, "/api/v1/applications/"+app.ID.String()+"/status", map[string]any{"status": "REVIEWED"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestUnknownRoute(t *testing.T) {
	f := newAPIFixture(t)

	code, _ := f.do(http.MethodGet, "/api/v1/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, code)
}
