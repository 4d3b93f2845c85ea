package notifications

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/paintdesk-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/paintdesk-backend/pkg/errors"
)

// Service defines notification list/read operations plus recording of drafts
// produced by the request lifecycle.
type Service interface {
	List(ctx context.Context, userID int64) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationID int64) (bool, error)
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	Record(ctx context.Context, notification *models.Notification) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires notifications dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *service) List(ctx context.Context, userID int64) ([]models.Notification, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	return rows, nil
}

// MarkRead flags one notification as read. It reports whether the flag
// changed; marking an already-read notification is not an error.
func (s *service) MarkRead(ctx context.Context, notificationID int64) (bool, error) {
	if notificationID <= 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, notificationID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return false, pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return result.Updated, nil
}

func (s *service) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	count, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

// Record stores a draft as a new unread notification. Every failure carries
// NOTIFICATION_PERSIST_ERROR so callers can tell it apart from their own errors.
func (s *service) Record(ctx context.Context, notification *models.Notification) error {
	if notification == nil {
		return pkgerrors.New(pkgerrors.CodeNotificationPersist, "notification draft required")
	}
	notification.Message = strings.TrimSpace(notification.Message)
	switch {
	case notification.UserID <= 0:
		return pkgerrors.New(pkgerrors.CodeNotificationPersist, "notification recipient required")
	case notification.Message == "":
		return pkgerrors.New(pkgerrors.CodeNotificationPersist, "notification message required")
	case !notification.Type.IsValid():
		return pkgerrors.New(pkgerrors.CodeNotificationPersist, "invalid notification type").
			WithDetails(map[string]any{"type": notification.Type})
	}

	notification.ID = 0
	notification.IsRead = false
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = s.now()
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNotificationPersist, err, "store notification")
	}
	return nil
}
