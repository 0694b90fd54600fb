package repository

import (
	"context"
	"time"

	"anti-ghosting/internal/database"
	"anti-ghosting/internal/database/postgres"
	"anti-ghosting/internal/domain/notification"

	"github.com/google/uuid"
)

type NotificationRepository interface {
	Create(ctx context.Context, n notification.Notification) error
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkRead(ctx context.Context, id, recipientID uuid.UUID, at time.Time) (notification.Notification, error)
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, limit int) ([]notification.Notification, error)
	ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]notification.Notification, error)
}

type PostgresNotificationRepository struct {
	db database.DB
}

func NewPostgresNotificationRepository(db database.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

const notificationColumns = `id, application_id, recipient_id, type, title, message, action_required, sent, sent_at, read_at, created_at`

func (r *PostgresNotificationRepository) Create(ctx context.Context, n notification.Notification) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO application_notifications (`+notificationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		n.ID, n.ApplicationID, n.RecipientID, string(n.Type), n.Title, n.Message,
		n.ActionRequired, n.Sent, n.SentAt, n.ReadAt, n.CreatedAt,
	)
	return err
}

func (r *PostgresNotificationRepository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	n, err := r.db.Exec(ctx, `UPDATE application_notifications SET sent = true, sent_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	if n == 0 {
		return notification.ErrNotFound
	}
	return nil
}

func (r *PostgresNotificationRepository) MarkRead(ctx context.Context, id, recipientID uuid.UUID, at time.Time) (notification.Notification, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE application_notifications
		 SET read_at = COALESCE(read_at, $3)
		 WHERE id = $1 AND recipient_id = $2
		 RETURNING `+notificationColumns,
		id, recipientID, at,
	)
	n, err := scanNotification(row)
	if err != nil {
		if postgres.IsNoRows(err) {
			return notification.Notification{}, notification.ErrNotFound
		}
		return notification.Notification{}, err
	}
	return n, nil
}

func (r *PostgresNotificationRepository) ListByRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, limit int) ([]notification.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	return r.list(ctx,
		`SELECT `+notificationColumns+`
		 FROM application_notifications
		 WHERE recipient_id = $1 AND ($2 = false OR read_at IS NULL)
		 ORDER BY created_at DESC
		 LIMIT $3`,
		recipientID, unreadOnly, limit,
	)
}

func (r *PostgresNotificationRepository) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]notification.Notification, error) {
	return r.list(ctx,
		`SELECT `+notificationColumns+`
		 FROM application_notifications
		 WHERE application_id = $1
		 ORDER BY created_at ASC`,
		applicationID,
	)
}

func (r *PostgresNotificationRepository) list(ctx context.Context, query string, args ...any) ([]notification.Notification, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]notification.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanNotification(row database.Row) (notification.Notification, error) {
	var n notification.Notification
	var typ string
	err := row.Scan(
		&n.ID, &n.ApplicationID, &n.RecipientID, &typ, &n.Title, &n.Message,
		&n.ActionRequired, &n.Sent, &n.SentAt, &n.ReadAt, &n.CreatedAt,
	)
	if err != nil {
		return notification.Notification{}, err
	}
	n.Type = notification.Type(typ)
	return n, nil
}
