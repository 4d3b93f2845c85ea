package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/paintdesk-backend/internal/users"
	pkgerrors "github.com/angelmondragon/paintdesk-backend/pkg/errors"
	"github.com/angelmondragon/paintdesk-backend/pkg/logger"
)

type stubResolver struct {
	user *users.UserDTO
	err  error
}

func (s stubResolver) Current(context.Context) (*users.UserDTO, error) {
	return s.user, s.err
}

func TestCurrentUserInjectsID(t *testing.T) {
	var seen int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromContext(r.Context())
	})
	handler := CurrentUser(stubResolver{user: &users.UserDTO{ID: 7, Username: "mario.rossi"}}, logger.Nop())(next)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/user", nil))
	assert.Equal(t, int64(7), seen)
}

func TestCurrentUserPropagatesLookupError(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})
	handler := CurrentUser(stubResolver{err: pkgerrors.New(pkgerrors.CodeNotFound, "current user not provisioned")}, nil)(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/user", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserIDFromContextRejectsMissing(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)
	_, ok = UserIDFromContext(WithUserID(context.Background(), 0))
	assert.False(t, ok)
}

func TestRequestIDEchoesOrMints(t *testing.T) {
	handler := RequestID(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "trace-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "trace-123", rec.Header().Get(requestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, strings.Repeat("x", maxInboundTraceLen+1))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	minted := rec.Header().Get(requestIDHeader)
	require.NotEmpty(t, minted)
	assert.Len(t, minted, 36)
}

func TestRecovererWritesInternalError(t *testing.T) {
	handler := Recoverer(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(errors.New("boom"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), string(pkgerrors.CodeInternal))
}

func TestLoggingRecordsStatusAndRoute(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "api", Level: zerolog.DebugLevel, Output: &buf})

	r := chi.NewRouter()
	r.Use(Logging(logg))
	r.Get("/api/v1/requests/{requestId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing"))
	})
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/requests/7", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "/api/v1/requests/{requestId}", line["route"])
	assert.EqualValues(t, 404, line["status"])
	assert.EqualValues(t, len("missing"), line["bytes"])

	buf.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "debug", line["level"])
	assert.EqualValues(t, 200, line["status"])
}

func TestLoggingWithoutLoggerPassesThrough(t *testing.T) {
	handler := Logging(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
