package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/angelmondragon/paintdesk-backend/api/responses"
	pkgerrors "github.com/angelmondragon/paintdesk-backend/pkg/errors"
	"github.com/angelmondragon/paintdesk-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/paintdesk-backend/pkg/redis"
)

const submissionWindow = time.Minute

type windowLimiter interface {
	FixedWindow(ctx context.Context, scope string, limit int64, window time.Duration) (pkgredis.Window, error)
}

// SubmissionRateLimit caps how many requests a user may submit per minute.
// A nil limiter or a non-positive limit disables the check.
func SubmissionRateLimit(limiter windowLimiter, perMinute int, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || perMinute <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID, _ := UserIDFromContext(ctx)
			scope := "submit:" + strconv.FormatInt(userID, 10)

			result, err := limiter.FixedWindow(ctx, scope, int64(perMinute), submissionWindow)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !result.Allowed {
				retryAfter := int(math.Ceil(result.RetryAfter.Seconds()))
				if retryAfter <= 0 {
					retryAfter = int(submissionWindow.Seconds())
				}
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"attempts":       result.Count,
						"limit":          perMinute,
						"window_seconds": int(submissionWindow.Seconds()),
					}), "submission.rate_limit.blocked")
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimited, "too many submissions, try again shortly").
					WithDetails(map[string]any{"limit": perMinute, "retryAfterSeconds": retryAfter}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
