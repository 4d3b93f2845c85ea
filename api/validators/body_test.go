package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/paintdesk-backend/pkg/errors"
)

type statusBody struct {
	Status string `json:"status" validate:"required,oneof=pending processing"`
	Reason string `json:"rejectionReason" validate:"max=5"`
	Count  int    `json:"count"`
}

func decode(t *testing.T, raw string) (statusBody, *pkgerrors.Error) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(raw))
	if raw == "" {
		req.Body = http.NoBody
	}
	var dest statusBody
	err := DecodeJSONBody(httptest.NewRecorder(), req, &dest)
	if err == nil {
		return dest, nil
	}
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected a typed error, got %v", err)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	return dest, typed
}

func TestDecodeJSONBodyAcceptsValidObject(t *testing.T) {
	got, err := decode(t, `{"status":"pending","rejectionReason":"ok"}`)
	require.Nil(t, err)
	assert.Equal(t, "pending", got.Status)
}

func TestDecodeJSONBodyRejections(t *testing.T) {
	cases := map[string]struct {
		raw     string
		message string
	}{
		"empty":         {raw: "", message: "request body is required"},
		"whitespace":    {raw: "   ", message: "request body is required"},
		"malformed":     {raw: `{"status":`, message: "invalid request body"},
		"syntax":        {raw: `{"status" "x"}`, message: "malformed JSON"},
		"unknown field": {raw: `{"status":"pending","extra":1}`, message: "unknown field"},
		"wrong type":    {raw: `{"status":"pending","count":"three"}`, message: "wrong JSON type"},
		"trailing":      {raw: `{"status":"pending"}{"status":"pending"}`, message: "request body must hold a single JSON object"},
		"tags":          {raw: `{"status":"done","rejectionReason":"too long"}`, message: "validation failed"},
		"too large":     {raw: `{"rejectionReason":"` + strings.Repeat("x", MaxBodyBytes) + `"}`, message: "request body too large"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := decode(t, tc.raw)
			require.NotNil(t, err)
			assert.Equal(t, tc.message, err.Message())
		})
	}
}

func TestDecodeJSONBodyNamesFieldsByJSONTag(t *testing.T) {
	_, err := decode(t, `{"status":"done","rejectionReason":"too long"}`)
	require.NotNil(t, err)
	assert.Equal(t, map[string]any{
		"status":          "must be one of: pending, processing",
		"rejectionReason": "must be at most 5",
	}, err.Details())

	_, err = decode(t, `{"status":"pending","extra":1}`)
	require.NotNil(t, err)
	assert.Equal(t, map[string]any{"extra": "is not allowed"}, err.Details())
}
