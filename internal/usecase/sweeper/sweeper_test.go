package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"anti-ghosting/internal/clock"
	"anti-ghosting/internal/config"
	"anti-ghosting/internal/dispatch"
	"anti-ghosting/internal/domain/application"
	"anti-ghosting/internal/domain/notification"
	"anti-ghosting/internal/logger"
	"anti-ghosting/internal/repository"
	"anti-ghosting/internal/repository/memory"
	"anti-ghosting/internal/usecase/deadline"
	"anti-ghosting/internal/usecase/reputation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store   *memory.Store
	clock   *clock.Fake
	posting memory.Posting
	scorer  *reputation.Scorer
}

func newFixture() fixture {
	store := memory.NewStore()
	clk := clock.NewFake(t0)
	return fixture{
		store:   store,
		clock:   clk,
		posting: store.SeedPosting("Acme", "Backend Engineer"),
		scorer:  reputation.NewScorer(store.Reputation(), nil, 0, clk, logger.Discard()),
	}
}

func (f fixture) sweeper(apps repository.ApplicationRepository, d dispatch.Dispatcher) *Sweeper {
	if apps == nil {
		apps = f.store.Applications()
	}
	if d == nil {
		d = dispatch.NewService(f.store.Notifications(), nil, f.clock, logger.Discard())
	}
	return New(apps, f.store.Schedule(), f.scorer, d, f.clock, logger.Discard(), Options{BatchSize: 100, Concurrency: 4})
}

func (f fixture) overdue(name string, deadlineAgo time.Duration) application.Application {
	_, app := f.store.SeedApplication(f.posting, name, t0.Add(-100*time.Hour))
	d := f.clock.Now().Add(-deadlineAgo)
	app.ResponseDeadline = &d
	return f.store.PutApplication(app)
}

type failingDispatcher struct {
	inner     dispatch.Dispatcher
	failFor   uuid.UUID
	failCount int
	mu        sync.Mutex
}

func (d *failingDispatcher) Dispatch(ctx context.Context, req notification.Request) (notification.Notification, error) {
	if req.ApplicationID == d.failFor {
		d.mu.Lock()
		d.failCount++
		d.mu.Unlock()
		return notification.Notification{}, errors.New("smtp down")
	}
	return d.inner.Dispatch(ctx, req)
}

type failingExpire struct {
	repository.ApplicationRepository
	failFor uuid.UUID
}

func (r failingExpire) Expire(ctx context.Context, id uuid.UUID, at time.Time, note string) (bool, error) {
	if id == r.failFor {
		return false, errors.New("connection reset")
	}
	return r.ApplicationRepository.Expire(ctx, id, at, note)
}

func TestProcessOverdue_IdempotentSweep(t *testing.T) {
	f := newFixture()
	app := f.overdue("Ada", time.Hour)
	s := f.sweeper(nil, nil)
	ctx := context.Background()

	first, err := s.ProcessOverdueApplications(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Scanned: 1, Expired: 1}, first)

	second, err := s.ProcessOverdueApplications(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{}, second)

	got, _ := f.store.Application(app.ID)
	assert.Equal(t, application.StatusExpired, got.Status)
	require.NotNil(t, got.AutoRejectedAt)
	assert.Equal(t, t0, *got.AutoRejectedAt)
	assert.Equal(t, t0, *got.LastStatusUpdate)

	sent := f.store.NotificationsFor(app.ID)
	require.Len(t, sent, 2)
	byType := map[notification.Type]notification.Notification{}
	for _, n := range sent {
		byType[n.Type] = n
	}
	assert.Equal(t, app.CandidateID, byType[notification.TypeStatusUpdate].RecipientID)
	assert.False(t, byType[notification.TypeStatusUpdate].ActionRequired)
	assert.Equal(t, f.posting.Owner.ID, byType[notification.TypeOverdue].RecipientID)
	assert.True(t, byType[notification.TypeOverdue].ActionRequired)

	timeline, err := f.store.Applications().ListTimeline(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	assert.True(t, timeline[0].Automated)
	assert.Equal(t, application.StatusExpired, timeline[0].Status)
	require.NotNil(t, timeline[0].Notes)
	assert.Contains(t, *timeline[0].Notes, "did not respond")
}

func TestAutoReject_SecondCallIsNoop(t *testing.T) {
	f := newFixture()
	app := f.overdue("Ada", time.Minute)
	s := f.sweeper(nil, nil)
	ctx := context.Background()

	expired, err := s.AutoRejectApplication(ctx, app)
	require.NoError(t, err)
	assert.True(t, expired)

	expired, err = s.AutoRejectApplication(ctx, app)
	require.NoError(t, err)
	assert.False(t, expired)
	assert.Len(t, f.store.NotificationsFor(app.ID), 2)
}

func TestProcessOverdue_ConcurrentSweepsExpireOnce(t *testing.T) {
	f := newFixture()
	apps := make([]application.Application, 0, 20)
	for i := 0; i < 20; i++ {
		apps = append(apps, f.overdue("candidate", time.Hour))
	}

	var wg sync.WaitGroup
	results := make([]Result, 3)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.sweeper(nil, nil).ProcessOverdueApplications(context.Background())
			assert.NoError(t, err)
			results[i] = res
		}()
	}
	wg.Wait()

	total := 0
	for _, r := range results {
		total += r.Expired
		assert.Zero(t, r.Failed)
	}
	assert.Equal(t, 20, total)
	for _, app := range apps {
		assert.Len(t, f.store.NotificationsFor(app.ID), 2)
	}
}

func TestProcessOverdue_LeavesOthersAlone(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	notDue := f.overdue("future", -time.Hour)

	answered := f.overdue("offered", time.Hour)
	require.NoError(t, f.store.Applications().UpdateStatus(ctx, answered.ID, application.StatusPending, application.StatusOffered, t0))

	_, app := f.store.SeedApplication(f.posting, "no deadline", t0)

	res, err := f.sweeper(nil, nil).ProcessOverdueApplications(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Scanned)

	for _, id := range []uuid.UUID{notDue.ID, answered.ID, app.ID} {
		got, _ := f.store.Application(id)
		assert.NotEqual(t, application.StatusExpired, got.Status)
		assert.Empty(t, f.store.NotificationsFor(id))
	}
}

func TestProcessOverdue_DispatchFailureIsIsolated(t *testing.T) {
	f := newFixture()
	bad := f.overdue("bad", 2*time.Hour)
	good := f.overdue("good", time.Hour)

	d := &failingDispatcher{
		inner:   dispatch.NewService(f.store.Notifications(), nil, f.clock, logger.Discard()),
		failFor: bad.ID,
	}
	res, err := f.sweeper(nil, d).ProcessOverdueApplications(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Scanned: 2, Expired: 1, Failed: 1}, res)

	gotBad, _ := f.store.Application(bad.ID)
	assert.Equal(t, application.StatusExpired, gotBad.Status, "expiry is committed even when notifying fails")
	assert.Equal(t, 2, d.failCount)

	gotGood, _ := f.store.Application(good.ID)
	assert.Equal(t, application.StatusExpired, gotGood.Status)
	assert.Len(t, f.store.NotificationsFor(good.ID), 2)

	score, ok := f.store.Score(f.posting.Company.ID)
	require.True(t, ok)
	assert.Equal(t, 100.0, score.GhostingRate)
}

func TestProcessOverdue_RepositoryFailureIsIsolated(t *testing.T) {
	f := newFixture()
	bad := f.overdue("bad", 2*time.Hour)
	good := f.overdue("good", time.Hour)

	res, err := f.sweeper(failingExpire{ApplicationRepository: f.store.Applications(), failFor: bad.ID}, nil).
		ProcessOverdueApplications(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Scanned: 2, Expired: 1, Failed: 1}, res)

	gotBad, _ := f.store.Application(bad.ID)
	assert.Equal(t, application.StatusPending, gotBad.Status)
	gotGood, _ := f.store.Application(good.ID)
	assert.Equal(t, application.StatusExpired, gotGood.Status)
}

func TestProcessOverdue_DrainsEveryPage(t *testing.T) {
	f := newFixture()
	bad := f.overdue("bad", 10*time.Hour)
	var others []application.Application
	for i, name := range []string{"a", "b", "c", "d"} {
		others = append(others, f.overdue(name, time.Duration(5-i)*time.Hour))
	}

	apps := failingExpire{ApplicationRepository: f.store.Applications(), failFor: bad.ID}
	d := dispatch.NewService(f.store.Notifications(), nil, f.clock, logger.Discard())
	s := New(apps, f.store.Schedule(), f.scorer, d, f.clock, logger.Discard(), Options{BatchSize: 2, Concurrency: 2})

	res, err := s.ProcessOverdueApplications(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Scanned: 5, Expired: 4, Failed: 1}, res)

	for _, app := range others {
		got, _ := f.store.Application(app.ID)
		assert.Equal(t, application.StatusExpired, got.Status, app.ID)
	}
}

func TestProcessOverdue_RunsAfterCancel(t *testing.T) {
	f := newFixture()
	app := f.overdue("Ada", time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := f.sweeper(nil, nil).ProcessOverdueApplications(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Expired)

	got, _ := f.store.Application(app.ID)
	assert.Equal(t, application.StatusExpired, got.Status)
}

func TestScenario_ReviewedThenGhosted(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	d := dispatch.NewService(f.store.Notifications(), nil, f.clock, logger.Discard())
	m := deadline.NewManager(f.store.Applications(), f.store.Schedule(), d, config.DefaultSLA(), f.clock, logger.Discard())

	_, earlier := f.store.SeedApplication(f.posting, "earlier", t0.Add(-200*time.Hour))
	earlier.Status = application.StatusOffered
	answeredAt := t0.Add(-190 * time.Hour)
	earlier.LastStatusUpdate = &answeredAt
	f.store.PutApplication(earlier)

	_, app := f.store.SeedApplication(f.posting, "Ada", t0)
	got, err := m.SetInitialDeadline(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(72*time.Hour), got)

	before, err := f.scorer.UpdateCompanyReputationScore(ctx, f.posting.Company.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, before.GhostingRate)

	f.clock.Set(t0.Add(10 * time.Hour))
	require.NoError(t, f.store.Applications().UpdateStatus(ctx, app.ID, application.StatusPending, application.StatusReviewed, f.clock.Now()))
	got, changed, err := m.UpdateDeadline(ctx, app.ID, application.StatusReviewed, nil)
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, t0.Add(58*time.Hour), got)

	f.clock.Set(t0.Add(60 * time.Hour))
	res, err := f.sweeper(nil, d).ProcessOverdueApplications(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Expired)

	expired, _ := f.store.Application(app.ID)
	assert.Equal(t, application.StatusExpired, expired.Status)

	after, ok := f.store.Score(f.posting.Company.ID)
	require.True(t, ok)
	assert.Equal(t, 50.0, after.GhostingRate)
	assert.Greater(t, after.GhostingRate, before.GhostingRate)

	assert.Len(t, f.store.NotificationsFor(app.ID), 2)
}
