package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/paintdesk-backend/pkg/db/models"
	"github.com/angelmondragon/paintdesk-backend/pkg/settings"
)

func serveAPI(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, settings.Save(path, settings.Workstation{Name: "Cabina 2", ServerAddress: host, ServerPort: port}))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestSubmitSendsWorkstationAndIdempotencyKey(t *testing.T) {
	var got map[string]any
	var key string
	path := serveAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/requests", r.URL.Path)
		key = r.Header.Get(idempotencyHeader)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":7,"requestCode":"REQ-2026-007","status":"pending"}}`))
	})

	output, err := run(t, "--settings", path, "requests", "submit", "--description", "Bracket", "--code", "BR-1", "--quantity", "3")
	require.NoError(t, err)

	assert.Contains(t, output, "submitted REQ-2026-007 (id 7, pending)")
	assert.NotEmpty(t, key)
	assert.Equal(t, "Cabina 2", got["originStation"])
	assert.Equal(t, float64(3), got["quantity"])
	assert.Equal(t, "normal", got["priority"])
	assert.NotContains(t, got, "partColor")
}

func TestErrorEnvelopeBecomesAPIError(t *testing.T) {
	path := serveAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":{"code":"INVALID_TRANSITION","message":"transition not allowed"}}`))
	})

	_, err := run(t, "--settings", path, "requests", "status", "4", "completed")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "INVALID_TRANSITION", apiErr.Code)
	assert.Equal(t, "INVALID_TRANSITION: transition not allowed", err.Error())
}

func TestGetChoosesCodeOrIDPath(t *testing.T) {
	var paths []string
	path := serveAPI(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = w.Write([]byte(`{"data":{"id":1,"requestCode":"REQ-2026-001","status":"waiting"}}`))
	})

	_, err := run(t, "--settings", path, "requests", "get", "REQ-2026-001")
	require.NoError(t, err)
	output, err := run(t, "--settings", path, "requests", "get", "1")
	require.NoError(t, err)

	assert.Equal(t, []string{"/api/v1/requests/code/REQ-2026-001", "/api/v1/requests/1"}, paths)
	assert.Contains(t, output, "waiting")
}

func TestReadAllPrintsCount(t *testing.T) {
	path := serveAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/notifications/read-all", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":{"updated":true,"count":4}}`))
	})

	output, err := run(t, "--settings", path, "notifications", "read-all")
	require.NoError(t, err)
	assert.Contains(t, output, "marked 4 as read")
}

func TestSettingsSetKeepsUnchangedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")

	_, err := run(t, "--settings", path, "settings", "set", "--workstation", "Cabina 9")
	require.NoError(t, err)

	saved, err := settings.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Cabina 9", saved.Name)
	assert.Equal(t, settings.DefaultServerAddress, saved.ServerAddress)
	assert.Equal(t, settings.DefaultServerPort, saved.ServerPort)

	_, err = run(t, "--settings", path, "settings", "set", "--port", "0")
	require.Error(t, err)
}

type brokenPipe struct{}

func (brokenPipe) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestPrintersReportWriteFailures(t *testing.T) {
	row := models.PaintRequest{ID: 1, RequestCode: "2025-001", Status: "pending", Priority: "normal", Quantity: 1}
	assert.EqualError(t, printRequests(brokenPipe{}, []models.PaintRequest{row}), "broken pipe")
	assert.EqualError(t, printRequest(brokenPipe{}, row), "broken pipe")
}
