package db

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/paintdesk-backend/pkg/config"
	"github.com/angelmondragon/paintdesk-backend/pkg/logger"
)

type station struct {
	ID   int64 `gorm:"primaryKey"`
	Name string
}

func sqliteConfig() config.DBConfig {
	return config.DBConfig{
		Driver: config.DBDriverSQLite,
		DSN:    "file:db_" + uuid.NewString() + "?mode=memory&cache=shared",
	}
}

func newSQLiteClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(context.Background(), sqliteConfig(), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.DB().AutoMigrate(&station{}))
	return client
}

func TestNewOpensSQLite(t *testing.T) {
	client := newSQLiteClient(t)

	assert.Equal(t, config.DBDriverSQLite, client.Driver())
	require.NoError(t, client.Ping(context.Background()))

	sqlDB, err := client.DB().DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestNewRequiresDSN(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{Driver: config.DBDriverSQLite}, nil)
	assert.Error(t, err)
}

func TestRunInTxCommitsAndRollsBack(t *testing.T) {
	client := newSQLiteClient(t)
	ctx := context.Background()

	require.NoError(t, RunInTx(ctx, client.DB(), func(tx *gorm.DB) error {
		return tx.Create(&station{Name: "Postazione 1"}).Error
	}))

	boom := errors.New("boom")
	err := RunInTx(ctx, client.DB(), func(tx *gorm.DB) error {
		if err := tx.Create(&station{Name: "Postazione 2"}).Error; err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, client.DB().Model(&station{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGormLoggerReportsSlowQueriesAndErrors(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})
	gl := newGormLogger(logg, 10*time.Millisecond)
	query := func() (string, int64) { return "SELECT * FROM paint_requests", 3 }

	gl.Trace(context.Background(), time.Now(), query, nil)
	assert.Empty(t, buf.String())

	gl.Trace(context.Background(), time.Now().Add(-time.Second), query, nil)
	assert.Contains(t, buf.String(), "db.slow_query")
	assert.Contains(t, buf.String(), "SELECT * FROM paint_requests")

	buf.Reset()
	gl.Trace(context.Background(), time.Now(), query, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	gl.Trace(context.Background(), time.Now(), query, errors.New("disk I/O error"))
	assert.Contains(t, buf.String(), "db.query_failed")

	buf.Reset()
	gl.LogMode(0).Trace(context.Background(), time.Now().Add(-time.Second), query, nil)
	gl.LogMode(1).Trace(context.Background(), time.Now().Add(-time.Second), query, errors.New("x"))
	assert.Empty(t, buf.String())
}
