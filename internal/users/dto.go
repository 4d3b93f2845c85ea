package users

import "github.com/angelmondragon/paintdesk-backend/pkg/db/models"

// UserDTO is the transport shape that omits credentials.
type UserDTO struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Department string `json:"department"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Username     string
	PasswordHash string
	FullName     string
	Email        string
	Department   string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:         u.ID,
		Username:   u.Username,
		FullName:   u.FullName,
		Email:      u.Email,
		Department: u.Department,
	}
}

func (dto CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Username:     dto.Username,
		PasswordHash: dto.PasswordHash,
		FullName:     dto.FullName,
		Email:        dto.Email,
		Department:   dto.Department,
	}
}
