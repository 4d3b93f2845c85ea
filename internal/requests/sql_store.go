package requests

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/paintdesk-backend/internal/repo"
	"github.com/angelmondragon/paintdesk-backend/pkg/db"
	"github.com/angelmondragon/paintdesk-backend/pkg/db/models"
	"github.com/angelmondragon/paintdesk-backend/pkg/enums"
)

const requestCodeConstraint = "request_code"

// SQLStore persists requests through GORM. Uniqueness of request_code is
// enforced by the database; status changes are compare-and-swap updates.
type SQLStore struct {
	repo.Base
	allocator Allocator
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore binds the store to conn. A nil allocator means YearSequence.
func NewSQLStore(conn *gorm.DB, allocator Allocator) *SQLStore {
	if allocator == nil {
		allocator = YearSequence{}
	}
	return &SQLStore{Base: repo.NewBase(conn), allocator: allocator}
}

func (s *SQLStore) Create(ctx context.Context, draft Draft, now time.Time) (*models.PaintRequest, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	var codes []string
	if err := s.DB(ctx).
		Model(&models.PaintRequest{}).
		Where("request_code LIKE ?", CodePrefix(now.Year())+"%").
		Pluck("request_code", &codes).Error; err != nil {
		return nil, err
	}

	code := s.allocator.Allocate(codes, now.Year())
	row := newRow(draft, code, now)
	if err := s.DB(ctx).Create(&row).Error; err != nil {
		if db.IsUniqueViolation(err, requestCodeConstraint) {
			return nil, errDuplicateCode(code, err)
		}
		return nil, err
	}
	return &row, nil
}

func (s *SQLStore) GetByID(ctx context.Context, id int64) (*models.PaintRequest, error) {
	var row models.PaintRequest
	if err := s.DB(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errRequestNotFound()
		}
		return nil, err
	}
	return &row, nil
}

func (s *SQLStore) GetByCode(ctx context.Context, code string) (*models.PaintRequest, error) {
	var row models.PaintRequest
	if err := s.DB(ctx).Where("request_code = ?", code).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errRequestNotFound()
		}
		return nil, err
	}
	return &row, nil
}

func (s *SQLStore) List(ctx context.Context, filter ListFilter) ([]models.PaintRequest, error) {
	query := s.DB(ctx).Model(&models.PaintRequest{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	rows := []models.PaintRequest{}
	if err := query.Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *SQLStore) ApplyStatus(ctx context.Context, id int64, change StatusChange) (*models.PaintRequest, error) {
	var updated models.PaintRequest
	err := s.InTx(ctx, func(ctx context.Context) error {
		tx := s.DB(ctx)
		columns := map[string]any{
			"status":           change.To,
			"updated_at":       change.At,
			"version":          gorm.Expr("version + 1"),
			"rejection_reason": nil,
		}
		if change.To == enums.RequestStatusRejected && change.RejectionReason != nil {
			columns["rejection_reason"] = *change.RejectionReason
		}
		if change.To == enums.RequestStatusCompleted {
			columns["completed_at"] = change.At
		}

		result := tx.Model(&models.PaintRequest{}).
			Where("id = ? AND status = ?", id, change.From).
			UpdateColumns(columns)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.PaintRequest{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return errRequestNotFound()
			}
			return errStatusChanged(id, change.From)
		}
		return tx.Where("id = ?", id).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

type statusCount struct {
	Status enums.RequestStatus
	Total  int64
}

func (s *SQLStore) CountByStatus(ctx context.Context) (map[enums.RequestStatus]int64, error) {
	var rows []statusCount
	if err := s.DB(ctx).
		Model(&models.PaintRequest{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[enums.RequestStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}
