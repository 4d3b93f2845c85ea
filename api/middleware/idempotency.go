package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/paintdesk-backend/api/responses"
	pkgerrors "github.com/angelmondragon/paintdesk-backend/pkg/errors"
	"github.com/angelmondragon/paintdesk-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/paintdesk-backend/pkg/redis"
)

const (
	IdempotencyHeader     = "Idempotency-Key"
	ReplayedHeader        = "Idempotent-Replayed"
	defaultIdempotencyTTL = 24 * time.Hour
	maxIdempotencyKeyLen  = 200
)

// IdempotencyStore holds per-key reservations and completed responses.
type IdempotencyStore interface {
	ReserveIdempotency(ctx context.Context, scope, id, requestHash string) (*pkgredis.IdempotencyRecord, bool, error)
	CompleteIdempotency(ctx context.Context, scope, id string, record pkgredis.IdempotencyRecord, ttl time.Duration) error
	ReleaseIdempotency(ctx context.Context, scope, id string) error
}

type idempotentRoute struct {
	method string
	prefix string
	suffix string
}

func (rt idempotentRoute) matches(method, path string) bool {
	if rt.method != method {
		return false
	}
	if rt.suffix == "" {
		return path == rt.prefix
	}
	return len(path) > len(rt.prefix)+len(rt.suffix) &&
		strings.HasPrefix(path, rt.prefix) && strings.HasSuffix(path, rt.suffix)
}

// Mutations whose replay must not create a second request or notification.
var idempotentRoutes = []idempotentRoute{
	{method: http.MethodPost, prefix: "/api/v1/requests"},
	{method: http.MethodPatch, prefix: "/api/v1/requests/", suffix: "/status"},
	{method: http.MethodPost, prefix: "/api/v1/notifications/", suffix: "/read"},
	{method: http.MethodPost, prefix: "/api/v1/notifications/read-all"},
}

// Idempotency makes retried mutations safe. The first request carrying a key
// reserves it; a retry while it runs gets 409, a retry after it succeeded gets
// the stored response. Failed responses release the key. Requests without the
// header, and deployments without a store, pass straight through.
func Idempotency(store IdempotencyStore, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			if key == "" || !isIdempotentRoute(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			if len(key) > maxIdempotencyKeyLen {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key too long").
					WithDetails(map[string]any{"max": maxIdempotencyKeyLen}))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			hash := requestHash(body)
			scope := idempotencyScope(r)
			existing, claimed, err := store.ReserveIdempotency(ctx, scope, key, hash)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key"))
				return
			}
			if !claimed {
				replayOrReject(ctx, logg, w, existing, hash)
				return
			}

			rec := &responseCapture{ResponseWriter: w}
			completed := false
			defer func() {
				if completed {
					return
				}
				// handler failed or panicked; free the key for a retry
				if err := store.ReleaseIdempotency(context.WithoutCancel(ctx), scope, key); err != nil && logg != nil {
					logg.Error(ctx, "release idempotency key", err)
				}
			}()

			next.ServeHTTP(rec, r)

			status := rec.statusOrDefault()
			if status >= http.StatusBadRequest {
				return
			}
			err = store.CompleteIdempotency(context.WithoutCancel(ctx), scope, key, pkgredis.IdempotencyRecord{
				RequestHash: hash,
				Status:      status,
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.body.Bytes(),
			}, ttl)
			if err != nil {
				if logg != nil {
					logg.Error(ctx, "store idempotent response", err)
				}
				return
			}
			completed = true
		})
	}
}

func replayOrReject(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, record *pkgredis.IdempotencyRecord, hash string) {
	switch {
	case record == nil:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "idempotency record missing"))
	case record.RequestHash != hash:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with a different request body"))
	case record.State != pkgredis.IdempotencyCompleted:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "a request with this idempotency key is still in progress").
			WithDetails(map[string]any{"state": string(record.State)}))
	default:
		if record.ContentType != "" {
			w.Header().Set("Content-Type", record.ContentType)
		}
		w.Header().Set(ReplayedHeader, "true")
		w.WriteHeader(record.Status)
		_, _ = w.Write(record.Body)
	}
}

// idempotencyScope ties a key to the caller and the exact mutation target.
func idempotencyScope(r *http.Request) string {
	userID, _ := UserIDFromContext(r.Context())
	return strings.Join([]string{strconv.FormatInt(userID, 10), r.Method, r.URL.Path}, "|")
}

func requestHash(body []byte) string {
	sum := sha256.Sum256(bytes.TrimSpace(body))
	return hex.EncodeToString(sum[:])
}

func isIdempotentRoute(method, path string) bool {
	for _, rt := range idempotentRoutes {
		if rt.matches(method, path) {
			return true
		}
	}
	return false
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseCapture) statusOrDefault() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}
