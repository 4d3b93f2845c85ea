package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type counter struct {
	ID    int64 `gorm:"primaryKey"`
	Value int
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&counter{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func TestBaseDB_BindsContext(t *testing.T) {
	conn := newTestDB(t)
	base := NewBase(conn)

	ctx := context.WithValue(context.Background(), struct{}{}, "value")
	withCtx := base.DB(ctx)
	if withCtx.Statement == nil || withCtx.Statement.Context != ctx {
		t.Fatalf("expected context to flow through")
	}
	if base.DB(nil) != conn {
		t.Fatalf("expected nil context to return raw connection")
	}
}

func TestInTx_RollsBackOnError(t *testing.T) {
	base := NewBase(newTestDB(t))
	boom := errors.New("boom")

	err := base.InTx(context.Background(), func(ctx context.Context) error {
		if err := base.DB(ctx).Create(&counter{Value: 1}).Error; err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	var total int64
	base.DB(context.Background()).Model(&counter{}).Count(&total)
	if total != 0 {
		t.Fatalf("expected rollback, found %d rows", total)
	}
}

func TestInTx_NestedCallsShareTransaction(t *testing.T) {
	base := NewBase(newTestDB(t))

	err := base.InTx(context.Background(), func(outer context.Context) error {
		outerTx := base.DB(outer)
		return base.InTx(outer, func(inner context.Context) error {
			if base.DB(inner) != outerTx {
				t.Fatalf("expected nested call to reuse the outer transaction")
			}
			return base.DB(inner).Create(&counter{Value: 2}).Error
		})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var total int64
	base.DB(context.Background()).Model(&counter{}).Count(&total)
	if total != 1 {
		t.Fatalf("expected committed row, found %d", total)
	}
}
