package migrate

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const validBody = "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose StatementEnd\n\n-- +goose Down\nSELECT 1;\n"

func TestEmbeddedMigrationsMatchSourceTree(t *testing.T) {
	require.NoError(t, ValidateFS(Migrations()))
	require.NoError(t, ValidateDir("migrations"))

	embeddedNames, err := fs.Glob(Migrations(), "*.sql")
	require.NoError(t, err)
	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	require.NoError(t, err)
	require.Len(t, embeddedNames, len(onDisk))
	for i, name := range embeddedNames {
		assert.Equal(t, filepath.Base(onDisk[i]), name)
	}
}

func TestValidateFSReportsEveryProblem(t *testing.T) {
	fsys := fstest.MapFS{
		"bad-name.sql":                 {Data: []byte(validBody)},
		"20250101000000_only_up.sql":   {Data: []byte("-- +goose Up\nSELECT 1;\n")},
		"20250101000001_reversed.sql":  {Data: []byte("-- +goose Down\n-- +goose Up\n")},
		"20250101000002_unclosed.sql":  {Data: []byte("-- +goose Up\n-- +goose StatementBegin\n-- +goose Down\n")},
		"20250101000003_ok.sql":        {Data: []byte(validBody)},
		"20250101000003_duplicate.sql": {Data: []byte(validBody)},
		"README.md":                    {Data: []byte("ignored")},
	}

	err := ValidateFS(fsys)
	require.Error(t, err)

	msgs := []string{}
	for _, e := range multierr.Errors(err) {
		msgs = append(msgs, e.Error())
	}
	joined := strings.Join(msgs, "\n")
	assert.Len(t, msgs, 5, joined)
	assert.Contains(t, joined, "bad-name.sql: expected YYYYMMDDHHMMSS_name.sql")
	assert.Contains(t, joined, "only_up.sql: missing")
	assert.Contains(t, joined, "must come before")
	assert.Contains(t, joined, "unterminated")
	assert.Contains(t, joined, "already used by")
}

func TestValidateDirMissing(t *testing.T) {
	assert.Error(t, ValidateDir(filepath.Join(t.TempDir(), "nope")))
	assert.Error(t, ValidateDir(""))
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Station Index!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_station_index.sql"), path)
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "!!!")
	assert.Error(t, err)
}

func TestCreateSQLMigrationBumpsPastLatestVersion(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20300101000000_future.sql"), []byte(validBody), 0o644))

	path, err := createSQLMigrationAt(dir, "next", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "20300101000001_next.sql", filepath.Base(path))

	path, err = createSQLMigrationAt(dir, "later", time.Date(2031, 5, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "20310502030405_later.sql", filepath.Base(path))
}

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("20250301090100")
	require.NoError(t, err)
	assert.Equal(t, int64(20250301090100), v)

	_, err = ParseVersion("2025")
	assert.Error(t, err)
	_, err = ParseVersion("2025030109010x")
	assert.Error(t, err)
}

func TestNewRunnerRequiresDependencies(t *testing.T) {
	_, err := NewRunner(nil, nil, nil)
	assert.Error(t, err)
}

func TestAutoMigrateCreatesTables(t *testing.T) {
	dsn := "file:migrate_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, AutoMigrate(context.Background(), conn))
	for _, table := range []string{"users", "paint_requests", "notifications"} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}
	assert.True(t, conn.Migrator().HasIndex("paint_requests", "ux_paint_requests_request_code"))
}
