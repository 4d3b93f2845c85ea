package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/paintdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/paintdesk-backend/pkg/errors"
)

// ParseQueryID reads an optional positive identifier from the query string.
// Absent or blank values yield nil.
func ParseQueryID(r *http.Request, key string) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a positive integer").WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}

// ParseQueryStatus reads an optional request status filter.
func ParseQueryStatus(r *http.Request, key string) (*enums.RequestStatus, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	status, err := enums.ParseRequestStatus(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter").WithDetails(map[string]any{
			"field":   key,
			"allowed": enums.RequestStatuses(),
		})
	}
	return &status, nil
}

// ParsePathID reads a positive identifier from a chi URL parameter.
func ParsePathID(r *http.Request, param string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, param))
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "path parameter must be a positive integer").WithDetails(map[string]any{"field": param})
	}
	return value, nil
}
