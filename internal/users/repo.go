package users

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/angelmondragon/paintdesk-backend/internal/repo"
	"github.com/angelmondragon/paintdesk-backend/pkg/db"
	"github.com/angelmondragon/paintdesk-backend/pkg/db/models"
)

// ErrUsernameTaken is returned by Create when the username already exists.
var ErrUsernameTaken = errors.New("username already taken")

// ErrNotFound is returned by lookups that match no user.
var ErrNotFound = errors.New("user not found")

// Repository exposes user-related persistence operations.
type Repository interface {
	Create(ctx context.Context, dto CreateUserDTO) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

type gormRepository struct {
	repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(conn *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(conn)}
}

func (r *gormRepository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.DB(ctx).Create(user).Error; err != nil {
		if db.IsUniqueViolation(err, "username") {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return user, nil
}

func (r *gormRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *gormRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
