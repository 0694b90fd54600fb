package postgres

import (
	"context"
	"database/sql"
	"errors"

	"anti-ghosting/internal/database"
	"anti-ghosting/internal/domain/user"

	"github.com/google/uuid"
)

// UserRepository reads users through prepared statements on the pool's
// database/sql handle.
type UserRepository struct {
	stmtGetByID *sql.Stmt
}

func NewUserRepository(ctx context.Context, db database.DB) (*UserRepository, error) {
	if db == nil || db.SQLDB() == nil {
		return nil, database.ErrNilDB
	}

	r := &UserRepository{}

	var err error
	r.stmtGetByID, err = db.SQLDB().PrepareContext(ctx,
		`SELECT id, name, email, created_at FROM users WHERE id = $1`,
	)
	if err != nil {
		_ = r.Close()
		return nil, err
	}

	return r, nil
}

func (r *UserRepository) Close() error {
	if r == nil || r.stmtGetByID == nil {
		return nil
	}
	return r.stmtGetByID.Close()
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	var u user.User
	row := r.stmtGetByID.QueryRowContext(ctx, id)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}
