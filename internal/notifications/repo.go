package notifications

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/paintdesk-backend/internal/repo"
	"github.com/angelmondragon/paintdesk-backend/pkg/db/models"
)

// Repository exposes persistence helpers for notifications.
type Repository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID int64) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationID int64) (MarkResult, error)
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// MarkResult separates "nothing to update" from "no such notification".
type MarkResult struct {
	Updated bool
	Found   bool
}

type repositoryImpl struct {
	repo.Base
}

// NewRepository returns a notifications repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{Base: repo.NewBase(db)}
}

func (r *repositoryImpl) Create(ctx context.Context, notification *models.Notification) error {
	return r.DB(ctx).Create(notification).Error
}

func (r *repositoryImpl) ListByUser(ctx context.Context, userID int64) ([]models.Notification, error) {
	rows := []models.Notification{}
	err := r.DB(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) MarkRead(ctx context.Context, notificationID int64) (MarkResult, error) {
	result := r.DB(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND is_read = ?", notificationID, false).
		UpdateColumn("is_read", true)
	if result.Error != nil {
		return MarkResult{}, result.Error
	}
	if result.RowsAffected > 0 {
		return MarkResult{Updated: true, Found: true}, nil
	}

	var count int64
	if err := r.DB(ctx).
		Model(&models.Notification{}).
		Where("id = ?", notificationID).
		Count(&count).Error; err != nil {
		return MarkResult{}, err
	}
	return MarkResult{Found: count > 0}, nil
}

func (r *repositoryImpl) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	result := r.DB(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		UpdateColumn("is_read", true)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DeleteReadBefore purges read notifications created before cutoff. Unread
// ones are kept regardless of age.
func (r *repositoryImpl) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.DB(ctx).
		Where("is_read = ? AND created_at < ?", true, cutoff).
		Delete(&models.Notification{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
