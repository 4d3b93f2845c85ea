package models

import (
	"time"

	"github.com/angelmondragon/paintdesk-backend/pkg/enums"
)

// Notification stores an in-app event raised by a paint request transition.
type Notification struct {
	ID        int64                  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID    int64                  `gorm:"column:user_id;not null;index" json:"userId"`
	RequestID *int64                 `gorm:"column:request_id" json:"requestId,omitempty"`
	Message   string                 `gorm:"column:message;not null" json:"message"`
	Type      enums.NotificationType `gorm:"column:type;not null;default:'info'" json:"type"`
	IsRead    bool                   `gorm:"column:is_read;not null;default:false" json:"isRead"`
	CreatedAt time.Time              `gorm:"column:created_at;not null;autoCreateTime:false" json:"createdAt"`
}

func (Notification) TableName() string {
	return "notifications"
}
