package postgres

import (
	"context"
	"database/sql"

	"chovha/internal/domain"
	"chovha/internal/repository"
)

// NotificationRepository is a PostgreSQL implementation of repository.NotificationRepository.
type NotificationRepository struct {
	q Querier
}

// NewNotificationRepository creates a new PostgreSQL notification repository.
func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{q: db}
}

// Create persists a notification.
func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, title, message, type, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.ExecContext(ctx, query,
		n.ID,
		n.UserID,
		n.Title,
		n.Message,
		n.Type,
		n.IsRead,
		n.CreatedAt,
	)
	return err
}

// ListByUser returns the user's latest notifications.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Notification, error) {
	query := `
		SELECT id, user_id, title, message, type, is_read, created_at
		FROM notifications WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2
	`

	rows, err := r.q.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]*domain.Notification, 0)
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.Title,
			&n.Message,
			&n.Type,
			&n.IsRead,
			&n.CreatedAt,
		); err != nil {
			return nil, err
		}
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

// MarkRead flags a notification as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`

	result, err := r.q.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}
