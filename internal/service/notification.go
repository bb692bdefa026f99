package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"chovha/internal/domain"
	"chovha/internal/repository"
	"chovha/internal/socket"
)

const notificationListLimit = 20

// NotificationService persists user notifications and pushes them to the
// user's socket room.
type NotificationService struct {
	repo    repository.NotificationRepository
	users   repository.UserRepository
	emitter socket.Emitter
	log     logrus.FieldLogger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(
	repo repository.NotificationRepository,
	users repository.UserRepository,
	emitter socket.Emitter,
	log logrus.FieldLogger,
) *NotificationService {
	return &NotificationService{
		repo:    repo,
		users:   users,
		emitter: emitter,
		log:     log,
	}
}

// NotificationEvent is the socket payload for a new notification.
type NotificationEvent struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	CreatedAt string `json:"created_at"`
}

// Notify stores a notification for userID and pushes it in real time.
func (s *NotificationService) Notify(ctx context.Context, userID, title, message string, kind domain.NotificationType) (*domain.Notification, error) {
	n := &domain.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      kind,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("store notification: %w", err)
	}

	if s.emitter != nil {
		room := socket.PassengerRoom(userID)
		if s.users != nil {
			if user, err := s.users.GetByID(ctx, userID); err == nil {
				room = socket.UserRoom(user.UserType, userID)
			}
		}
		s.emitter.EmitToRoom(room, socket.EventNotification, NotificationEvent{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Type:      string(n.Type),
			CreatedAt: socket.Timestamp(n.CreatedAt),
		})
	}

	return n, nil
}

// notifyQuietly sends a notification and only logs failures.
func (s *NotificationService) notifyQuietly(ctx context.Context, userID, title, message string, kind domain.NotificationType) {
	if s == nil || userID == "" {
		return
	}
	if _, err := s.Notify(ctx, userID, title, message, kind); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("notification failed")
	}
}

// NotifyDriverAssigned tells the passenger who is coming.
func (s *NotificationService) NotifyDriverAssigned(ctx context.Context, ride *domain.Ride, driver *domain.User) {
	name := "A driver"
	if driver != nil && driver.FullName() != "" {
		name = driver.FullName()
	}
	s.notifyQuietly(ctx, ride.PassengerID, "Driver Assigned",
		fmt.Sprintf("%s has accepted your ride", name), domain.NotificationSuccess)
}

// NotifyStatusChanged tells the other participant about a status change.
func (s *NotificationService) NotifyStatusChanged(ctx context.Context, ride *domain.Ride, changedBy string) {
	recipient := ride.PassengerID
	if changedBy == ride.PassengerID {
		recipient = ride.DriverID
	}

	kind := domain.NotificationInfo
	if ride.Status == domain.RideStatusCancelled {
		kind = domain.NotificationWarning
	}

	s.notifyQuietly(ctx, recipient, "Ride Update",
		fmt.Sprintf("Your ride is now %s", statusLabel(ride.Status)), kind)
}

// List returns the user's latest notifications.
func (s *NotificationService) List(ctx context.Context, userID string) ([]*domain.Notification, error) {
	return s.repo.ListByUser(ctx, userID, notificationListLimit)
}

// MarkRead flags one of the user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}

func statusLabel(status domain.RideStatus) string {
	switch status {
	case domain.RideStatusDriverEnRoute:
		return "driver en route"
	case domain.RideStatusInProgress:
		return "in progress"
	default:
		return string(status)
	}
}
