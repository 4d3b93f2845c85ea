package users

import (
	"context"
	"sync"

	"github.com/angelmondragon/paintdesk-backend/pkg/db/models"
)

// MemoryRepository keeps users in process memory.
type MemoryRepository struct {
	mu     sync.Mutex
	byID   map[int64]models.User
	nextID int64
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: map[int64]models.User{}}
}

func (m *MemoryRepository) Create(_ context.Context, dto CreateUserDTO) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.byID {
		if existing.Username == dto.Username {
			return nil, ErrUsernameTaken
		}
	}
	m.nextID++
	user := dto.ToModel()
	user.ID = m.nextID
	m.byID[user.ID] = *user
	return user, nil
}

func (m *MemoryRepository) FindByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.byID {
		if user.Username == username {
			out := user
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) FindByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}
