package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/paintdesk-backend/internal/cron"
	"github.com/angelmondragon/paintdesk-backend/internal/notifications"
	"github.com/angelmondragon/paintdesk-backend/internal/requests"
	"github.com/angelmondragon/paintdesk-backend/pkg/config"
	"github.com/angelmondragon/paintdesk-backend/pkg/db"
	"github.com/angelmondragon/paintdesk-backend/pkg/logger"
	"github.com/angelmondragon/paintdesk-backend/pkg/metrics"
	"github.com/angelmondragon/paintdesk-backend/pkg/migrate"
	"github.com/angelmondragon/paintdesk-backend/pkg/redis"
)

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	if !cfg.Storage.UsesSQL() {
		logg.Error(context.Background(), "cron worker needs shared storage", errors.New("PAINTDESK_STORAGE_BACKEND must be sql"))
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
		Env:         cfg.App.Env,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.EnsureSchema(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to prepare schema", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	var lock cron.Lock
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		lock, err = cron.NewRedisLock(redisClient, redisClient.LockKey("cron"), cfg.Cron.LockTTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create cron lock", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "redis not configured; run a single cron-worker replica")
		lock = cron.NewLocalLock()
	}
	defer func() {
		var errs error
		if redisClient != nil {
			errs = multierr.Append(errs, redisClient.Close())
		}
		errs = multierr.Append(errs, dbClient.Close())
		if errs != nil {
			logg.Error(context.Background(), "error closing resources", errs)
		}
	}()

	registry := prometheus.NewRegistry()
	snapshotJob, err := cron.NewStatusSnapshotJob(cron.StatusSnapshotJobParams{
		Logger:    logg,
		Counter:   requests.NewSQLStore(dbClient.DB(), nil),
		Publisher: metrics.NewStatusGauge(registry),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create status snapshot job", err)
		os.Exit(1)
	}
	cleanupJob, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:     logg,
		Repository: notifications.NewRepository(dbClient.DB()),
		Retention:  cfg.Cron.NotificationRetentionDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notification cleanup job", err)
		os.Exit(1)
	}
	jobs, err := cron.NewRegistry(snapshotJob, cleanupJob)
	if err != nil {
		logg.Error(context.Background(), "failed to register cron jobs", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   jobs,
		Lock:       lock,
		Metrics:    metrics.NewCronJobMetrics(registry),
		Interval:   cfg.Cron.Interval,
		JobTimeout: cfg.Cron.JobTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Cron.Interval.String(),
		"once":     *once,
	})

	if *once {
		err := service.RunOnce(ctx)
		if errors.Is(err, cron.ErrCycleSkipped) {
			logg.Warn(ctx, "cron lock held by another worker; nothing ran")
			return
		}
		if err != nil {
			logg.Error(ctx, "cron cycle failed", err)
			os.Exit(1)
		}
		return
	}

	if cfg.Cron.MetricsAddr != "" {
		metricsServer := &http.Server{
			Addr:              cfg.Cron.MetricsAddr,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logg.Error(ctx, "metrics server stopped", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
