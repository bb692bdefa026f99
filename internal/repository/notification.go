package repository

import (
	"context"

	"chovha/internal/domain"
)

// NotificationRepository defines the persistence operations for notifications.
type NotificationRepository interface {
	// Create persists a notification.
	Create(ctx context.Context, n *domain.Notification) error

	// ListByUser returns up to limit notifications for the user, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Notification, error)

	// MarkRead flags a notification owned by userID as read.
	MarkRead(ctx context.Context, id, userID string) error
}
