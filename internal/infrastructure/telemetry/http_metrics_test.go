package telemetry_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coretrack/backend/internal/infrastructure/telemetry"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetrics_Observe(t *testing.T) {
	m := telemetry.NewHTTPMetrics("coretrack")

	m.Begin()
	m.Observe(http.MethodGet, "/api/v1/inventory/:id", http.StatusOK, 15*time.Millisecond)
	m.Begin()
	m.Observe(http.MethodGet, "/api/v1/inventory/:id", http.StatusNotFound, time.Millisecond)
	m.Begin()
	m.Observe(http.MethodPost, "", http.StatusNotFound, time.Millisecond)

	count, err := testutil.GatherAndCount(m.Registry(), "coretrack_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	inFlight, err := testutil.GatherAndCount(m.Registry(), "coretrack_http_requests_in_flight")
	require.NoError(t, err)
	assert.Equal(t, 1, inFlight)
}

func TestHTTPMetrics_Handler(t *testing.T) {
	m := telemetry.NewHTTPMetrics("coretrack")
	m.Begin()
	m.Observe(http.MethodGet, "/health", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `coretrack_http_requests_total{method="GET",route="/health",status="200"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestHTTPMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.NewHTTPMetrics("a")
		telemetry.NewHTTPMetrics("a")
	})
}
