package tests

import (
	"context"
	"errors"
	"testing"

	"chovha/internal/domain"
	"chovha/internal/service"
	"chovha/internal/socket"
)

// ──────────────────────────────────────────────
// 6. NOTIFICATIONS
// ──────────────────────────────────────────────

func TestNotify_PersistsAndPushesToUserRoom(t *testing.T) {
	t.Parallel()
	repo := NewMockNotificationRepository()
	users := NewMockUserRepository()
	emitter := NewMockEmitter()
	users.AddUser(&domain.User{ID: "driver-1", UserType: domain.UserTypeDriver})
	svc := service.NewNotificationService(repo, users, emitter, testLogger())

	n, err := svc.Notify(context.Background(), "driver-1", "Payout", "You were paid", domain.NotificationSuccess)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if n.ID == "" || n.IsRead {
		t.Errorf("expected a new unread notification, got %+v", n)
	}

	pushed := emitter.Find(socket.EventNotification)
	if len(pushed) != 1 || pushed[0].Room != socket.DriverRoom("driver-1") {
		t.Errorf("expected push to the driver room, got %+v", pushed)
	}
}

func TestNotify_StoreFailure_DoesNotPush(t *testing.T) {
	t.Parallel()
	repo := NewMockNotificationRepository()
	repo.CreateError = errInjected
	emitter := NewMockEmitter()
	svc := service.NewNotificationService(repo, NewMockUserRepository(), emitter, testLogger())

	if _, err := svc.Notify(context.Background(), "user-1", "t", "m", domain.NotificationInfo); !errors.Is(err, errInjected) {
		t.Fatalf("expected store error, got %v", err)
	}
	if len(emitter.Find(socket.EventNotification)) != 0 {
		t.Error("expected nothing pushed for an unsaved notification")
	}
}

func TestMarkRead_OwnNotificationsOnly(t *testing.T) {
	t.Parallel()
	repo := NewMockNotificationRepository()
	svc := service.NewNotificationService(repo, NewMockUserRepository(), nil, testLogger())
	ctx := context.Background()

	n, err := svc.Notify(ctx, "user-1", "t", "m", domain.NotificationInfo)
	if err != nil {
		t.Fatalf("notify: %v", err)
	}

	if err := svc.MarkRead(ctx, n.ID, "user-2"); !errors.Is(err, service.ErrNotificationNotFound) {
		t.Errorf("expected ErrNotificationNotFound for a foreign user, got %v", err)
	}
	if err := svc.MarkRead(ctx, n.ID, "user-1"); err != nil {
		t.Fatalf("expected owner to mark read, got %v", err)
	}

	list, err := svc.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || !list[0].IsRead {
		t.Errorf("expected the notification to be read, got %+v", list)
	}
}
