package feedback

import (
	"context"
	"errors"
	"testing"
	"time"

	"anti-ghosting/internal/clock"
	"anti-ghosting/internal/dispatch"
	"anti-ghosting/internal/domain/application"
	"anti-ghosting/internal/domain/notification"
	domain "anti-ghosting/internal/domain/reputation"
	"anti-ghosting/internal/domain/schedule"
	"anti-ghosting/internal/logger"
	"anti-ghosting/internal/repository/memory"
	"anti-ghosting/internal/usecase/reputation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 9, 14, 15, 0, 0, 0, time.UTC)

type fixture struct {
	store     *memory.Store
	clock     *clock.Fake
	requester *Requester
	scorer    *reputation.Scorer
	posting   memory.Posting
}

func newFixture() fixture {
	store := memory.NewStore()
	clk := clock.NewFake(t0)
	d := dispatch.NewService(store.Notifications(), nil, clk, logger.Discard())
	scorer := reputation.NewScorer(store.Reputation(), nil, 0, clk, logger.Discard())
	return fixture{
		store:     store,
		clock:     clk,
		requester: NewRequester(store.Applications(), store.Schedule(), d, scorer, 24, clk, logger.Discard()),
		scorer:    scorer,
		posting:   store.SeedPosting("Acme", "Platform Engineer"),
	}
}

func (f fixture) app(status application.Status) application.Application {
	_, app := f.store.SeedApplication(f.posting, "Grace", t0.Add(-48*time.Hour))
	app.Status = status
	return f.store.PutApplication(app)
}

func TestScheduleFeedbackRequest(t *testing.T) {
	f := newFixture()
	app := f.app(application.StatusRejected)
	ctx := context.Background()

	due, err := f.requester.ScheduleFeedbackRequest(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(24*time.Hour), due)

	f.clock.Advance(time.Hour)
	_, err = f.requester.ScheduleFeedbackRequest(ctx, app.ID)
	require.NoError(t, err)

	jobs := f.store.ScheduledJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, schedule.KindFeedbackRequest, jobs[0].Kind)
	assert.Equal(t, t0.Add(25*time.Hour), jobs[0].DueAt)
}

func TestRequestCandidateFeedback(t *testing.T) {
	f := newFixture()
	app := f.app(application.StatusAccepted)

	sent, err := f.requester.RequestCandidateFeedback(context.Background(), app.ID)
	require.NoError(t, err)
	assert.True(t, sent)

	got := f.store.NotificationsFor(app.ID)
	require.Len(t, got, 1)
	assert.Equal(t, notification.TypeFeedbackRequest, got[0].Type)
	assert.Equal(t, app.CandidateID, got[0].RecipientID)
	assert.False(t, got[0].ActionRequired)
}

func TestRequestCandidateFeedback_Guards(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	given := f.app(application.StatusRejected)
	given.FeedbackGiven = true
	f.store.PutApplication(given)

	pending := f.app(application.StatusInterviewed)
	expired := f.app(application.StatusExpired)

	for _, app := range []application.Application{given, pending, expired} {
		sent, err := f.requester.RequestCandidateFeedback(ctx, app.ID)
		require.NoError(t, err)
		assert.False(t, sent)
		assert.Empty(t, f.store.NotificationsFor(app.ID))
	}
}

func TestHandleJob(t *testing.T) {
	f := newFixture()
	app := f.app(application.StatusRejected)
	ctx := context.Background()

	_, err := f.requester.ScheduleFeedbackRequest(ctx, app.ID)
	require.NoError(t, err)
	require.NoError(t, f.requester.HandleJob(ctx, f.store.ScheduledJobs()[0]))
	assert.Len(t, f.store.NotificationsFor(app.ID), 1)
}

func TestRecordFeedback_FoldsSatisfaction(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first := f.app(application.StatusRejected)
	_, err := f.requester.RecordFeedback(ctx, first.ID, 3, "  slow but polite  ")
	require.NoError(t, err)

	score, ok := f.store.Score(f.posting.Company.ID)
	require.True(t, ok)
	assert.Equal(t, 1.5, score.CandidateSatisfaction)

	second := f.app(application.StatusAccepted)
	fb, err := f.requester.RecordFeedback(ctx, second.ID, 5, "")
	require.NoError(t, err)
	assert.Equal(t, 5, fb.Rating)

	score, _ = f.store.Score(f.posting.Company.ID)
	assert.Equal(t, 3.25, score.CandidateSatisfaction)

	stored, _ := f.store.Application(first.ID)
	assert.True(t, stored.FeedbackGiven)
}

func TestRecordFeedback_OnlyOnce(t *testing.T) {
	f := newFixture()
	app := f.app(application.StatusRejected)
	ctx := context.Background()

	_, err := f.requester.RecordFeedback(ctx, app.ID, 4, "")
	require.NoError(t, err)
	_, err = f.requester.RecordFeedback(ctx, app.ID, 1, "")
	assert.ErrorIs(t, err, application.ErrFeedbackAlreadyGiven)

	score, _ := f.store.Score(f.posting.Company.ID)
	assert.Equal(t, 2.0, score.CandidateSatisfaction)
}

func TestRecordFeedback_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	done := f.app(application.StatusRejected)
	_, err := f.requester.RecordFeedback(ctx, done.ID, 0, "")
	assert.ErrorIs(t, err, ErrInvalidRating)
	_, err = f.requester.RecordFeedback(ctx, done.ID, 6, "")
	assert.ErrorIs(t, err, ErrInvalidRating)

	open := f.app(application.StatusReviewed)
	_, err = f.requester.RecordFeedback(ctx, open.ID, 4, "")
	assert.ErrorIs(t, err, ErrNotFinished)
}

func TestRecordFeedback_CancelsPendingRequest(t *testing.T) {
	f := newFixture()
	app := f.app(application.StatusAccepted)
	ctx := context.Background()

	_, err := f.requester.ScheduleFeedbackRequest(ctx, app.ID)
	require.NoError(t, err)
	_, err = f.requester.RecordFeedback(ctx, app.ID, 5, "great")
	require.NoError(t, err)

	jobs := f.store.ScheduledJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, schedule.StatusCancelled, jobs[0].Status)
}

type flakyRecorder struct {
	FeedbackRecorder
	failures int
	calls    int
}

func (r *flakyRecorder) RecordFeedback(ctx context.Context, companyID uuid.UUID, fb application.Feedback) (domain.Score, error) {
	r.calls++
	if r.failures > 0 {
		r.failures--
		return domain.Score{}, errors.New("db blip")
	}
	return r.FeedbackRecorder.RecordFeedback(ctx, companyID, fb)
}

func TestRecordFeedback_RetryAfterFailedWrite(t *testing.T) {
	f := newFixture()
	app := f.app(application.StatusRejected)
	ctx := context.Background()

	rec := &flakyRecorder{FeedbackRecorder: f.scorer, failures: 1}
	f.requester.recorder = rec

	_, err := f.requester.RecordFeedback(ctx, app.ID, 4, "")
	require.Error(t, err)

	stored, _ := f.store.Application(app.ID)
	assert.False(t, stored.FeedbackGiven)

	fb, err := f.requester.RecordFeedback(ctx, app.ID, 4, "")
	require.NoError(t, err)
	assert.Equal(t, 4, fb.Rating)
	assert.Equal(t, 2, rec.calls)

	stored, _ = f.store.Application(app.ID)
	assert.True(t, stored.FeedbackGiven)
	score, ok := f.store.Score(f.posting.Company.ID)
	require.True(t, ok)
	assert.Equal(t, 2.0, score.CandidateSatisfaction)
}
