package notifications

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/angelmondragon/paintdesk-backend/pkg/db/models"
)

// MemoryRepository is the in-process Repository used by the memory backend.
type MemoryRepository struct {
	mu     sync.Mutex
	rows   []models.Notification
	nextID int64
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (m *MemoryRepository) Create(_ context.Context, notification *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	notification.ID = m.nextID
	row := *notification
	if row.RequestID != nil {
		id := *row.RequestID
		row.RequestID = &id
	}
	m.rows = append(m.rows, row)
	return nil
}

func (m *MemoryRepository) ListByUser(_ context.Context, userID int64) ([]models.Notification, error) {
	m.mu.Lock()
	out := []models.Notification{}
	for _, row := range m.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *MemoryRepository) MarkRead(_ context.Context, notificationID int64) (MarkResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.rows {
		if m.rows[i].ID != notificationID {
			continue
		}
		if m.rows[i].IsRead {
			return MarkResult{Found: true}, nil
		}
		m.rows[i].IsRead = true
		return MarkResult{Updated: true, Found: true}, nil
	}
	return MarkResult{}, nil
}

func (m *MemoryRepository) MarkAllRead(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var updated int64
	for i := range m.rows {
		if m.rows[i].UserID == userID && !m.rows[i].IsRead {
			m.rows[i].IsRead = true
			updated++
		}
	}
	return updated, nil
}

func (m *MemoryRepository) DeleteReadBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.rows[:0]
	var deleted int64
	for _, row := range m.rows {
		if row.IsRead && row.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	m.rows = kept
	return deleted, nil
}
