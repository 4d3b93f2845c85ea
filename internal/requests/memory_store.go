package requests

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/angelmondragon/paintdesk-backend/pkg/db/models"
	"github.com/angelmondragon/paintdesk-backend/pkg/enums"
)

// MemoryStore keeps requests in process memory. A single mutex serialises
// every read-modify-write, so code allocation and status CAS are atomic.
type MemoryStore struct {
	mu        sync.Mutex
	rows      map[int64]*models.PaintRequest
	byCode    map[string]int64
	nextID    int64
	allocator Allocator
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore builds an empty store. A nil allocator means YearSequence.
func NewMemoryStore(allocator Allocator) *MemoryStore {
	if allocator == nil {
		allocator = YearSequence{}
	}
	return &MemoryStore{
		rows:      map[int64]*models.PaintRequest{},
		byCode:    map[string]int64{},
		allocator: allocator,
	}
}

func (s *MemoryStore) Create(ctx context.Context, draft Draft, now time.Time) (*models.PaintRequest, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	codes := make([]string, 0, len(s.byCode))
	for code := range s.byCode {
		codes = append(codes, code)
	}
	code := s.allocator.Allocate(codes, now.Year())
	if _, taken := s.byCode[code]; taken {
		return nil, errDuplicateCode(code, nil)
	}

	s.nextID++
	row := newRow(draft, code, now)
	row.ID = s.nextID
	row.PartColor = cloneString(draft.PartColor)
	row.Notes = cloneString(draft.Notes)

	s.rows[row.ID] = &row
	s.byCode[code] = row.ID
	return clonePaintRequest(&row), nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id int64) (*models.PaintRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok {
		return nil, errRequestNotFound()
	}
	return clonePaintRequest(row), nil
}

func (s *MemoryStore) GetByCode(ctx context.Context, code string) (*models.PaintRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byCode[code]
	if !ok {
		return nil, errRequestNotFound()
	}
	return clonePaintRequest(s.rows[id]), nil
}

func (s *MemoryStore) List(ctx context.Context, filter ListFilter) ([]models.PaintRequest, error) {
	s.mu.Lock()
	out := make([]models.PaintRequest, 0, len(s.rows))
	for _, row := range s.rows {
		if filter.UserID != nil && row.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && row.Status != *filter.Status {
			continue
		}
		out = append(out, *clonePaintRequest(row))
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) ApplyStatus(ctx context.Context, id int64, change StatusChange) (*models.PaintRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok {
		return nil, errRequestNotFound()
	}
	if row.Status != change.From {
		return nil, errStatusChanged(id, change.From)
	}

	row.Status = change.To
	row.UpdatedAt = change.At
	row.Version++
	row.RejectionReason = nil
	if change.To == enums.RequestStatusRejected {
		row.RejectionReason = cloneString(change.RejectionReason)
	}
	if change.To == enums.RequestStatusCompleted {
		at := change.At
		row.CompletedAt = &at
	}
	return clonePaintRequest(row), nil
}

func (s *MemoryStore) CountByStatus(ctx context.Context) (map[enums.RequestStatus]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := map[enums.RequestStatus]int64{}
	for _, row := range s.rows {
		counts[row.Status]++
	}
	return counts, nil
}

func clonePaintRequest(row *models.PaintRequest) *models.PaintRequest {
	out := *row
	out.PartColor = cloneString(row.PartColor)
	out.Notes = cloneString(row.Notes)
	out.RejectionReason = cloneString(row.RejectionReason)
	if row.CompletedAt != nil {
		at := *row.CompletedAt
		out.CompletedAt = &at
	}
	return &out
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
