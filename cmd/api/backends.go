package main

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/angelmondragon/paintdesk-backend/internal/notifications"
	"github.com/angelmondragon/paintdesk-backend/internal/requests"
	"github.com/angelmondragon/paintdesk-backend/internal/users"
	"github.com/angelmondragon/paintdesk-backend/pkg/config"
	"github.com/angelmondragon/paintdesk-backend/pkg/db"
	"github.com/angelmondragon/paintdesk-backend/pkg/logger"
	"github.com/angelmondragon/paintdesk-backend/pkg/migrate"
	"github.com/angelmondragon/paintdesk-backend/pkg/redis"
)

// backends holds the storage chosen at start. db and redis stay nil when the
// deployment does not use them.
type backends struct {
	db    *db.Client
	redis *redis.Client

	requests      requests.Store
	notifications notifications.Repository
	users         users.Repository
}

func openBackends(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*backends, error) {
	res := &backends{}

	if cfg.Storage.UsesSQL() {
		client, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap database: %w", err)
		}
		res.db = client
		if err := migrate.EnsureSchema(ctx, cfg, logg, client); err != nil {
			return nil, multierr.Append(fmt.Errorf("prepare schema: %w", err), res.Close())
		}
		res.requests = requests.NewSQLStore(client.DB(), nil)
		res.notifications = notifications.NewRepository(client.DB())
		res.users = users.NewRepository(client.DB())
	} else {
		logg.Warn(ctx, "using in-memory storage; data is lost on restart")
		res.requests = requests.NewMemoryStore(nil)
		res.notifications = notifications.NewMemoryRepository()
		res.users = users.NewMemoryRepository()
	}

	if cfg.Redis.Enabled() {
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("bootstrap redis: %w", err), res.Close())
		}
		res.redis = client
	} else {
		logg.Info(ctx, "redis not configured; idempotency keys and submission limits are off")
	}

	return res, nil
}

// Close releases every opened connection and reports all failures together.
func (b *backends) Close() error {
	var errs error
	if b.redis != nil {
		errs = multierr.Append(errs, b.redis.Close())
	}
	if b.db != nil {
		errs = multierr.Append(errs, b.db.Close())
	}
	return errs
}
