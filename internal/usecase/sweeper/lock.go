package sweeper

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LockKey guards the overdue sweep across server and worker processes.
const LockKey = "sweep:overdue:lock"

var ErrSweepInProgress = errors.New("overdue sweep already running")

type Locker interface {
	SetIfNotExists(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseIfOwner(ctx context.Context, key, value string) error
}

// RunExclusive runs one sweep while holding LockKey. A nil locker, or one
// that cannot be reached, runs the sweep unguarded; Expire stays safe under
// overlap. The lock expires after ttl if the holder dies.
func (s *Sweeper) RunExclusive(ctx context.Context, locker Locker, ttl time.Duration) (Result, error) {
	if locker == nil {
		return s.ProcessOverdueApplications(ctx)
	}

	token := uuid.NewString()
	ok, err := locker.SetIfNotExists(ctx, LockKey, token, ttl)
	if err != nil {
		s.logger.WithFields(logrus.Fields{"step": "lock", "status": "error"}).WithError(err).Warn("sweep lock unavailable, sweeping unlocked")
		return s.ProcessOverdueApplications(ctx)
	}
	if !ok {
		s.logger.WithField("step", "lock").Debug("sweep lock held elsewhere")
		return Result{}, ErrSweepInProgress
	}
	defer func() {
		if err := locker.ReleaseIfOwner(context.WithoutCancel(ctx), LockKey, token); err != nil {
			s.logger.WithFields(logrus.Fields{"step": "unlock", "status": "error"}).WithError(err).Warn("sweep lock release failed")
		}
	}()

	return s.ProcessOverdueApplications(ctx)
}
