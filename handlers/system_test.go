package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSystemRouter(checks ...ReadyCheck) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterSystem(r, time.Now().Add(-time.Minute), checks...)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealth(t *testing.T) {
	w := get(newSystemRouter(), "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status string  `json:"status"`
		Uptime float64 `json:"uptime"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.GreaterOrEqual(t, body.Uptime, 60.0)
}

func TestReady(t *testing.T) {
	ok := func(ctx context.Context) error { return nil }
	down := func(ctx context.Context) error { return errors.New("connection refused") }

	w := get(newSystemRouter(ReadyCheck{Name: "database", Probe: ok}, ReadyCheck{Name: "mongo"}), "/ready")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ready","deps":{"database":true}}`, w.Body.String())

	w = get(newSystemRouter(ReadyCheck{Name: "database", Probe: ok}, ReadyCheck{Name: "redis", Probe: down}), "/ready")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"not_ready","deps":{"database":true,"redis":false}}`, w.Body.String())
}

func TestNotFound(t *testing.T) {
	w := get(newSystemRouter(), "/api/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())
}

func TestCallbackPageRoute(t *testing.T) {
	r := newSystemRouter()

	w := get(r, "/auth/callback?token=a.b.c&provider=linkedin")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Successfully signed in with linkedin! Redirecting...")

	w = get(r, "/auth/callback?error=oauth_failed")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Authentication failed. Please try again.")
	assert.NotContains(t, w.Body.String(), "localStorage")
}
