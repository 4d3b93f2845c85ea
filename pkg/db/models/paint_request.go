package models

import (
	"time"

	"github.com/angelmondragon/paintdesk-backend/pkg/enums"
)

// PaintRequest is a work order submitted by a shop-floor workstation.
type PaintRequest struct {
	ID              int64                 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RequestCode     string                `gorm:"column:request_code;not null;uniqueIndex:ux_paint_requests_request_code" json:"requestCode"`
	UserID          int64                 `gorm:"column:user_id;not null;index" json:"userId"`
	OriginStation   string                `gorm:"column:origin_station;not null" json:"originStation"`
	PartDescription string                `gorm:"column:part_description;not null" json:"partDescription"`
	PartCode        string                `gorm:"column:part_code;not null" json:"partCode"`
	PartColor       *string               `gorm:"column:part_color" json:"partColor,omitempty"`
	Quantity        int                   `gorm:"column:quantity;not null;default:1;check:chk_paint_requests_quantity,quantity >= 1" json:"quantity"`
	Priority        enums.RequestPriority `gorm:"column:priority;not null;default:'normal';check:chk_paint_requests_priority,priority IN ('normal', 'medium', 'high', 'urgent')" json:"priority"`
	Notes           *string               `gorm:"column:notes" json:"notes,omitempty"`
	Status          enums.RequestStatus   `gorm:"column:status;not null;default:'pending';index;check:chk_paint_requests_status,status IN ('pending', 'processing', 'waiting', 'completed', 'rejected')" json:"status"`
	RejectionReason *string               `gorm:"column:rejection_reason" json:"rejectionReason,omitempty"`
	Version         int64                 `gorm:"column:version;not null;default:1" json:"-"`
	CreatedAt       time.Time             `gorm:"column:created_at;not null;autoCreateTime:false" json:"createdAt"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;not null;autoUpdateTime:false" json:"updatedAt"`
	CompletedAt     *time.Time            `gorm:"column:completed_at;check:chk_paint_requests_completed_at,status <> 'completed' OR completed_at IS NOT NULL" json:"completedAt,omitempty"`
}

func (PaintRequest) TableName() string {
	return "paint_requests"
}
