package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/paintdesk-backend/api/routes"
	"github.com/angelmondragon/paintdesk-backend/internal/notifications"
	"github.com/angelmondragon/paintdesk-backend/internal/requests"
	"github.com/angelmondragon/paintdesk-backend/internal/users"
	"github.com/angelmondragon/paintdesk-backend/pkg/config"
	"github.com/angelmondragon/paintdesk-backend/pkg/logger"
	"github.com/angelmondragon/paintdesk-backend/pkg/metrics"
	"github.com/angelmondragon/paintdesk-backend/pkg/security"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
		Env:         cfg.App.Env,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := openBackends(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap storage", err)
		os.Exit(1)
	}
	defer func() {
		if err := res.Close(); err != nil {
			logg.Error(context.Background(), "error closing resources", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	userSvc, err := users.NewService(res.users, security.NewHasher(cfg.Password), cfg.DefaultUser, logg)
	if err != nil {
		logg.Error(ctx, "failed to create users service", err)
		os.Exit(1)
	}
	if _, err := userSvc.EnsureDefault(ctx); err != nil {
		logg.Error(ctx, "failed to seed default user", err)
		os.Exit(1)
	}

	emitter, err := notifications.NewEmitter(cfg.Notifications.Locale)
	if err != nil {
		logg.Error(ctx, "failed to create notification emitter", err)
		os.Exit(1)
	}
	notificationSvc, err := notifications.NewService(res.notifications)
	if err != nil {
		logg.Error(ctx, "failed to create notifications service", err)
		os.Exit(1)
	}

	requestSvc, err := requests.NewService(requests.ServiceParams{
		Store:          res.requests,
		Emitter:        emitter,
		Recorder:       notificationSvc,
		Logger:         logg,
		Metrics:        metrics.NewLifecycleMetrics(registry),
		Policy:         requests.Policy{AllowWaitingReject: cfg.Lifecycle.AllowWaitingReject},
		MaxCASAttempts: cfg.Lifecycle.MaxCASAttempts,
	})
	if err != nil {
		logg.Error(ctx, "failed to create requests service", err)
		os.Exit(1)
	}

	params := routes.Params{
		Config:        cfg,
		Logger:        logg,
		Redis:         res.redis,
		Gatherer:      registry,
		Requests:      requestSvc,
		Notifications: notificationSvc,
		Users:         userSvc,
	}
	if res.db != nil {
		params.DB = res.db
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"storage":  cfg.Storage.Backend,
		"locale":   emitter.Locale(),
		"redis_on": res.redis != nil,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(params),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(logCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(logCtx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(logCtx, "graceful shutdown failed", err)
		}
	}
	logg.Info(logCtx, "api server stopped")
}
