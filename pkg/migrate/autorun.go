package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/paintdesk-backend/pkg/config"
	"github.com/angelmondragon/paintdesk-backend/pkg/db"
	"github.com/angelmondragon/paintdesk-backend/pkg/logger"
)

// EnsureSchema prepares the schema at boot. The embedded sqlite engine is
// always auto-migrated; Postgres only runs goose in dev with the feature flag on.
func EnsureSchema(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if client == nil {
		return fmt.Errorf("db client is required")
	}
	ctx = logg.WithField(ctx, "driver", client.Driver())

	if client.Driver() == config.DBDriverSQLite {
		logg.Info(ctx, "auto-migrating sqlite schema")
		return AutoMigrate(ctx, client.DB())
	}

	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	runner, err := NewRunner(sqlDB, nil, logg)
	if err != nil {
		return err
	}

	logg.Info(ctx, "applying embedded migrations (dev auto-run)")
	return runner.Up(ctx)
}
