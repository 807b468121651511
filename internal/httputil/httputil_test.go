package httputil

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docwindow/internal/config"
)

func TestParseJSON(t *testing.T) {
	var dest struct {
		Limit int `json:"limit"`
	}
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"limit": 30, "unknown": true}`))
	w := httptest.NewRecorder()

	require.NoError(t, ParseJSON(w, r, &dest))
	// unknown fields are tolerated
	assert.Equal(t, 30, dest.Limit)
}

func TestParseJSONMalformedBody(t *testing.T) {
	var dest map[string]any
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"limit":`))
	w := httptest.NewRecorder()

	err := ParseJSON(w, r, &dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestParseJSONOversizedBody(t *testing.T) {
	body := `{"filler": "` + strings.Repeat("x", config.MaxRequestBodyBytes) + `"}`
	var dest map[string]any
	r := httptest.NewRequest("POST", "/", strings.NewReader(body))
	w := httptest.NewRecorder()

	require.Error(t, ParseJSON(w, r, &dest))
}

func TestRespondJSON(t *testing.T) {
	w := httptest.NewRecorder()
	RespondJSON(w, 200, map[string]string{"status": "ok"})

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())
}

func TestRespondError(t *testing.T) {
	w := httptest.NewRecorder()
	RespondError(w, 400, "limit must be between 0 and 500")

	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{
		"type": "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.1",
		"title": "Bad Request",
		"status": 400,
		"detail": "limit must be between 0 and 500"
	}`, w.Body.String())
}

func TestRespondProblemFlattensExtras(t *testing.T) {
	w := httptest.NewRecorder()
	RespondProblem(w, 404, "document not found", map[string]any{"path": "sales-order/1000"})

	assert.Equal(t, 404, w.Code)
	assert.JSONEq(t, `{
		"type": "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.4",
		"title": "Not Found",
		"status": 404,
		"detail": "document not found",
		"path": "sales-order/1000"
	}`, w.Body.String())
}
