package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/paintdesk-backend/pkg/db"
)

type txKey struct{}

// Base is embedded by the GORM-backed stores. Calls made with a context
// produced by InTx join that transaction instead of using the pool.
type Base struct {
	conn *gorm.DB
}

func NewBase(conn *gorm.DB) Base {
	return Base{conn: conn}
}

// DB returns the transaction carried by ctx, or the base connection bound to ctx.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.conn
	}
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return b.conn.WithContext(ctx)
}

// InTx runs fn inside a transaction. Nested calls reuse the outer transaction.
func (b Base) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return fn(ctx)
	}
	return db.RunInTx(ctx, b.conn, func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}
