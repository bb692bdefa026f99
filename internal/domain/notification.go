package domain

import "time"

// NotificationType is the severity shown to the user.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

// Notification is a message persisted for a user's inbox.
type Notification struct {
	ID        string
	UserID    string
	Title     string
	Message   string
	Type      NotificationType
	IsRead    bool
	CreatedAt time.Time
}
