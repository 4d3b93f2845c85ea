package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/paintdesk-backend/api/controllers"
	"github.com/angelmondragon/paintdesk-backend/api/middleware"
	"github.com/angelmondragon/paintdesk-backend/internal/notifications"
	"github.com/angelmondragon/paintdesk-backend/internal/requests"
	"github.com/angelmondragon/paintdesk-backend/internal/users"
	"github.com/angelmondragon/paintdesk-backend/pkg/config"
	"github.com/angelmondragon/paintdesk-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/paintdesk-backend/pkg/redis"
	"github.com/angelmondragon/paintdesk-backend/pkg/settings"
)

// Params carries everything the HTTP surface needs. DB and Redis are nil
// when the matching backend is not configured.
type Params struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            controllers.Pinger
	Redis         *pkgredis.Client
	Gatherer      prometheus.Gatherer
	Requests      requests.Service
	Notifications notifications.Service
	Users         users.Service
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger

	// Keep untyped nils so the middleware can tell "no redis" apart.
	var idempotencyStore middleware.IdempotencyStore
	deps := map[string]controllers.Pinger{"database": p.DB, "redis": nil}
	if p.Redis != nil {
		idempotencyStore = p.Redis
		deps["redis"] = p.Redis
	}

	gatherer := p.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	station := settings.Workstation{Name: cfg.Workstation.DefaultName}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CurrentUser(p.Users, logg))
		r.Use(middleware.Idempotency(idempotencyStore, cfg.RateLimit.IdempotencyTTL, logg))

		r.Get("/user", controllers.CurrentUser(p.Users, logg))

		r.Route("/requests", func(r chi.Router) {
			r.Get("/", controllers.ListRequests(p.Requests, logg))
			r.With(submissionLimit(p.Redis, cfg.RateLimit.SubmissionsPerMinute, logg)).
				Post("/", controllers.CreateRequest(p.Requests, station, logg))
			r.Get("/summary", controllers.RequestSummary(p.Requests, logg))
			r.Get("/code/{requestCode}", controllers.GetRequestByCode(p.Requests, logg))
			r.Get("/{requestId}", controllers.GetRequest(p.Requests, logg))
			r.Patch("/{requestId}/status", controllers.UpdateRequestStatus(p.Requests, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(p.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(p.Notifications, logg))
		})
	})

	return r
}

func submissionLimit(client *pkgredis.Client, perMinute int, logg *logger.Logger) func(http.Handler) http.Handler {
	if client == nil {
		return middleware.SubmissionRateLimit(nil, 0, logg)
	}
	return middleware.SubmissionRateLimit(client, perMinute, logg)
}
