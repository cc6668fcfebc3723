package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"teamiq/internal/event"
	"teamiq/internal/model"
	"teamiq/internal/repository"
)

type NotificationService struct {
	notifications *repository.NotificationRepository
	bus           event.Bus
}

// NewNotificationService wires the store and, optionally, a bus for live
// delivery. A nil bus means notifications are poll-only.
func NewNotificationService(notifications *repository.NotificationRepository, bus event.Bus) *NotificationService {
	return &NotificationService{notifications: notifications, bus: bus}
}

// Push stores a notification for one user. Other services call this as a
// fire-and-forget side effect, so failures are logged rather than returned.
// The bus publish happens only after the row is persisted; stream listeners
// never see a notification that a subsequent poll would not.
func (s *NotificationService) Push(ctx context.Context, userID string, typ string, title string, body string, relatedID string) {
	n := model.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Body:      body,
		RelatedID: relatedID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		slog.Warn("notification delivery failed", "user_id", userID, "type", typ, "error", err)
		return
	}

	if s.bus != nil {
		s.bus.Publish(event.Event{
			ID:        n.ID,
			Type:      event.ForNotification(typ),
			UserID:    userID,
			Payload:   n,
			Timestamp: n.CreatedAt,
		})
	}
}

func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, page int, limit int) ([]model.Notification, model.Meta, error) {
	page, limit = clampPage(page, limit)

	total, err := s.notifications.CountByUser(ctx, userID, unreadOnly)
	if err != nil {
		return nil, model.Meta{}, err
	}

	items, err := s.notifications.ListByUser(ctx, userID, unreadOnly, limit, (page-1)*limit)
	if err != nil {
		return nil, model.Meta{}, err
	}

	return items, newMeta(page, limit, total), nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.notifications.CountUnread(ctx, userID)
}

// MarkRead only touches notifications owned by the caller; marking an already
// read notification succeeds without changing its read timestamp.
func (s *NotificationService) MarkRead(ctx context.Context, userID string, notificationID string) error {
	return s.notifications.MarkRead(ctx, notificationID, userID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.notifications.MarkAllRead(ctx, userID)
}
