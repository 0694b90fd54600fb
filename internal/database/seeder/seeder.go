package seeder

import (
	"context"

	"anti-ghosting/internal/database"
)

type Seeder interface {
	Name() string
	Run(ctx context.Context, db database.DB) error
}
