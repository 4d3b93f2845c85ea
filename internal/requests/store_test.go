package requests

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/paintdesk-backend/pkg/db/models"
	"github.com/angelmondragon/paintdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/paintdesk-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:requests_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.PaintRequest{}))
	return conn
}

type storeFactory func(t *testing.T, allocator Allocator) Store

func storeFactories() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T, allocator Allocator) Store {
			return NewMemoryStore(allocator)
		},
		"sql": func(t *testing.T, allocator Allocator) Store {
			return NewSQLStore(newTestDB(t), allocator)
		},
	}
}

func forEachStore(t *testing.T, fn func(t *testing.T, store Store)) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			fn(t, factory(t, nil))
		})
	}
}

func testDraft() Draft {
	color := "RAL 3020"
	return Draft{
		UserID:          1,
		OriginStation:   "Postazione 1",
		PartDescription: "Front bumper",
		PartCode:        "FB-204",
		PartColor:       &color,
		Quantity:        2,
		Priority:        enums.RequestPriorityHigh,
	}
}

var baseTime = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code())
}

func TestStoreCreateAssignsSequentialCodes(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()

		first, err := store.Create(ctx, testDraft(), baseTime)
		require.NoError(t, err)
		assert.Equal(t, "2025-001", first.RequestCode)
		assert.Equal(t, enums.RequestStatusPending, first.Status)
		assert.True(t, first.CreatedAt.Equal(first.UpdatedAt))
		assert.Nil(t, first.CompletedAt)
		assert.Nil(t, first.RejectionReason)
		assert.NotZero(t, first.ID)

		second, err := store.Create(ctx, testDraft(), baseTime.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, "2025-002", second.RequestCode)
		assert.NotEqual(t, first.ID, second.ID)

		nextYear, err := store.Create(ctx, testDraft(), time.Date(2026, time.January, 2, 8, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, "2026-001", nextYear.RequestCode)
	})
}

func TestStoreCreateValidation(t *testing.T) {
	cases := map[string]func(d *Draft){
		"zero quantity":    func(d *Draft) { d.Quantity = 0 },
		"missing part":     func(d *Draft) { d.PartCode = "" },
		"missing station":  func(d *Draft) { d.OriginStation = "" },
		"unknown priority": func(d *Draft) { d.Priority = "asap" },
		"missing user":     func(d *Draft) { d.UserID = 0 },
	}

	forEachStore(t, func(t *testing.T, store Store) {
		for name, mutate := range cases {
			draft := testDraft()
			mutate(&draft)
			_, err := store.Create(context.Background(), draft, baseTime)
			requireCode(t, err, pkgerrors.CodeValidation)
			assert.NotNil(t, pkgerrors.As(err).Details(), name)
		}

		rows, err := store.List(context.Background(), ListFilter{})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestStoreCreateDuplicateCode(t *testing.T) {
	fixed := AllocatorFunc(func([]string, int) string { return "2025-001" })
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store := factory(t, fixed)
			ctx := context.Background()

			_, err := store.Create(ctx, testDraft(), baseTime)
			require.NoError(t, err)

			_, err = store.Create(ctx, testDraft(), baseTime)
			requireCode(t, err, pkgerrors.CodeDuplicateCode)

			rows, err := store.List(ctx, ListFilter{})
			require.NoError(t, err)
			assert.Len(t, rows, 1)
		})
	}
}

func TestStoreLookups(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		created, err := store.Create(ctx, testDraft(), baseTime)
		require.NoError(t, err)

		byID, err := store.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.RequestCode, byID.RequestCode)
		require.NotNil(t, byID.PartColor)
		assert.Equal(t, "RAL 3020", *byID.PartColor)

		byCode, err := store.GetByCode(ctx, created.RequestCode)
		require.NoError(t, err)
		assert.Equal(t, created.ID, byCode.ID)

		_, err = store.GetByID(ctx, created.ID+100)
		requireCode(t, err, pkgerrors.CodeNotFound)

		_, err = store.GetByCode(ctx, "2025-999")
		requireCode(t, err, pkgerrors.CodeNotFound)
	})
}

func TestStoreListOrderingAndFilters(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()

		a, err := store.Create(ctx, testDraft(), baseTime)
		require.NoError(t, err)
		other := testDraft()
		other.UserID = 2
		b, err := store.Create(ctx, other, baseTime.Add(time.Hour))
		require.NoError(t, err)
		c, err := store.Create(ctx, testDraft(), baseTime.Add(time.Hour))
		require.NoError(t, err)

		all, err := store.List(ctx, ListFilter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []int64{c.ID, b.ID, a.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})

		userID := int64(1)
		mine, err := store.List(ctx, ListFilter{UserID: &userID})
		require.NoError(t, err)
		require.Len(t, mine, 2)
		assert.Equal(t, c.ID, mine[0].ID)

		_, err = store.ApplyStatus(ctx, a.ID, StatusChange{
			From: enums.RequestStatusPending,
			To:   enums.RequestStatusProcessing,
			At:   baseTime.Add(2 * time.Hour),
		})
		require.NoError(t, err)

		processing := enums.RequestStatusProcessing
		inFlight, err := store.List(ctx, ListFilter{Status: &processing})
		require.NoError(t, err)
		require.Len(t, inFlight, 1)
		assert.Equal(t, a.ID, inFlight[0].ID)

		none, err := store.List(ctx, ListFilter{UserID: &userID, Status: func() *enums.RequestStatus {
			s := enums.RequestStatusRejected
			return &s
		}()})
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})
}

func TestStoreApplyStatus(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		created, err := store.Create(ctx, testDraft(), baseTime)
		require.NoError(t, err)

		processing, err := store.ApplyStatus(ctx, created.ID, StatusChange{
			From: enums.RequestStatusPending,
			To:   enums.RequestStatusProcessing,
			At:   baseTime.Add(time.Minute),
		})
		require.NoError(t, err)
		assert.Equal(t, enums.RequestStatusProcessing, processing.Status)
		assert.True(t, processing.UpdatedAt.Equal(baseTime.Add(time.Minute)))
		assert.True(t, processing.CreatedAt.Equal(baseTime))
		assert.Nil(t, processing.CompletedAt)
		assert.Equal(t, int64(2), processing.Version)

		_, err = store.ApplyStatus(ctx, created.ID, StatusChange{
			From: enums.RequestStatusPending,
			To:   enums.RequestStatusRejected,
			At:   baseTime.Add(2 * time.Minute),
		})
		requireCode(t, err, pkgerrors.CodeStateConflict)

		done, err := store.ApplyStatus(ctx, created.ID, StatusChange{
			From: enums.RequestStatusProcessing,
			To:   enums.RequestStatusCompleted,
			At:   baseTime.Add(3 * time.Minute),
		})
		require.NoError(t, err)
		require.NotNil(t, done.CompletedAt)
		assert.True(t, done.CompletedAt.Equal(baseTime.Add(3*time.Minute)))
		assert.True(t, done.CompletedAt.Equal(done.UpdatedAt))

		_, err = store.ApplyStatus(ctx, created.ID+42, StatusChange{
			From: enums.RequestStatusPending,
			To:   enums.RequestStatusProcessing,
			At:   baseTime,
		})
		requireCode(t, err, pkgerrors.CodeNotFound)
	})
}

func TestStoreApplyStatusRejectionReason(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		created, err := store.Create(ctx, testDraft(), baseTime)
		require.NoError(t, err)

		reason := "Colore non disponibile"
		rejected, err := store.ApplyStatus(ctx, created.ID, StatusChange{
			From:            enums.RequestStatusPending,
			To:              enums.RequestStatusRejected,
			RejectionReason: &reason,
			At:              baseTime.Add(time.Minute),
		})
		require.NoError(t, err)
		require.NotNil(t, rejected.RejectionReason)
		assert.Equal(t, reason, *rejected.RejectionReason)
		assert.Nil(t, rejected.CompletedAt)

		reloaded, err := store.GetByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, reloaded.RejectionReason)
		assert.Equal(t, reason, *reloaded.RejectionReason)
	})
}

func TestStoreCountByStatus(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		for i := 0; i < 3; i++ {
			_, err := store.Create(ctx, testDraft(), baseTime.Add(time.Duration(i)*time.Minute))
			require.NoError(t, err)
		}
		_, err := store.ApplyStatus(ctx, 1, StatusChange{
			From: enums.RequestStatusPending,
			To:   enums.RequestStatusWaiting,
			At:   baseTime.Add(time.Hour),
		})
		require.NoError(t, err)

		counts, err := store.CountByStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), counts[enums.RequestStatusPending])
		assert.Equal(t, int64(1), counts[enums.RequestStatusWaiting])
		assert.Zero(t, counts[enums.RequestStatusCompleted])
	})
}

func TestSQLSchemaConstrainsEnumsAndCompletion(t *testing.T) {
	conn := newTestDB(t)
	valid := func() models.PaintRequest {
		return models.PaintRequest{
			RequestCode:     "2025-" + uuid.NewString()[:8],
			UserID:          1,
			OriginStation:   "Postazione 1",
			PartDescription: "Front bumper",
			PartCode:        "FB-204",
			Quantity:        1,
			Priority:        enums.RequestPriorityNormal,
			Status:          enums.RequestStatusPending,
			Version:         1,
			CreatedAt:       baseTime,
			UpdatedAt:       baseTime,
		}
	}

	ok := valid()
	require.NoError(t, conn.Create(&ok).Error)

	badStatus := valid()
	badStatus.Status = enums.RequestStatus("bogus")
	assert.ErrorContains(t, conn.Create(&badStatus).Error, "CHECK constraint failed")

	badPriority := valid()
	badPriority.Priority = enums.RequestPriority("asap")
	assert.ErrorContains(t, conn.Create(&badPriority).Error, "CHECK constraint failed")

	completedWithoutStamp := valid()
	completedWithoutStamp.Status = enums.RequestStatusCompleted
	assert.ErrorContains(t, conn.Create(&completedWithoutStamp).Error, "CHECK constraint failed")

	stamped := valid()
	stamped.Status = enums.RequestStatusCompleted
	stamped.CompletedAt = &baseTime
	require.NoError(t, conn.Create(&stamped).Error)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()
	created, err := store.Create(ctx, testDraft(), baseTime)
	require.NoError(t, err)

	*created.PartColor = "mutated"
	created.Status = enums.RequestStatusCompleted

	again, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "RAL 3020", *again.PartColor)
	assert.Equal(t, enums.RequestStatusPending, again.Status)
}
