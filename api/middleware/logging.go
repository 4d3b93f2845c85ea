package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/angelmondragon/paintdesk-backend/pkg/logger"
)

// Logging writes one access line per request once the handler returns.
// Health probes are logged at debug so pollers do not flood the output.
func Logging(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logg == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			ctx := logg.WithFields(r.Context(), map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
			})
			r = r.WithContext(ctx)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := map[string]any{
				"status":     status,
				"bytes":      ww.BytesWritten(),
				"elapsed_ms": time.Since(started).Milliseconds(),
			}
			if route := routePattern(r); route != "" {
				fields["route"] = route
			}
			ctx = logg.WithFields(ctx, fields)

			switch {
			case status >= http.StatusInternalServerError:
				logg.Error(ctx, "http.request", fmt.Errorf("responded %d", status))
			case status >= http.StatusBadRequest:
				logg.Warn(ctx, "http.request")
			case strings.HasPrefix(r.URL.Path, "/health"):
				logg.Debug(ctx, "http.request")
			default:
				logg.Info(ctx, "http.request")
			}
		})
	}
}

func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	return rctx.RoutePattern()
}
