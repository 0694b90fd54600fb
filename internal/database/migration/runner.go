package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"anti-ghosting/migrations"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/lock"
	"github.com/sirupsen/logrus"
)

// Runner applies the goose migrations. FS defaults to the embedded set.
type Runner struct {
	FS     fs.FS
	Logger logrus.FieldLogger
}

func (r Runner) Run(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("nil db")
	}

	fsys := r.FS
	if fsys == nil {
		fsys = migrations.FS
	}

	// Server and worker both migrate on start; the advisory lock serializes them.
	locker, err := lock.NewPostgresSessionLocker()
	if err != nil {
		return fmt.Errorf("init migration lock: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys, goose.WithSessionLocker(locker))
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	if r.Logger != nil {
		for _, res := range results {
			if res == nil || res.Source == nil {
				continue
			}
			r.Logger.WithFields(logrus.Fields{
				"version":  res.Source.Version,
				"duration": res.Duration,
			}).Info("migration applied")
		}
		if len(results) == 0 {
			r.Logger.Info("migrations up to date")
		}
	}
	return nil
}
