package observability_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/segtree/pkg/observability"
)

var errNotLoaded = errors.New("engine not loaded")

func serveHealth(t *testing.T, handler http.Handler, path string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	var body map[string]string

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return rec, body
}

func TestHealthHandler_ReturnsOK(t *testing.T) {
	t.Parallel()

	rec, body := serveHealth(t, observability.HealthHandler(), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ok", body["status"])
}

func TestReadyHandler_AllChecksPass(t *testing.T) {
	t.Parallel()

	pass := func(_ context.Context) error { return nil }

	rec, body := serveHealth(t, observability.ReadyHandler(pass, pass), "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestReadyHandler_NoChecks(t *testing.T) {
	t.Parallel()

	rec, _ := serveHealth(t, observability.ReadyHandler(), "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyHandler_FailingCheck(t *testing.T) {
	t.Parallel()

	pass := func(_ context.Context) error { return nil }
	failing := func(_ context.Context) error { return errNotLoaded }

	rec, body := serveHealth(t, observability.ReadyHandler(pass, failing), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", body["status"])
	assert.Equal(t, errNotLoaded.Error(), body["reason"])
}
