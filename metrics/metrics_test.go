package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	m := NewMetrics()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/trips/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", m.Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/trips/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/trips/def", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("/trips/{id}", "418")))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "fleetledger_http_requests_total")
}

func TestTrackerAndCounters(t *testing.T) {
	m := NewMetrics()
	require.NoError(t, m.Track("invoice:pdf").End(nil))
	boom := errors.New("boom")
	assert.Equal(t, boom, m.Track("invoice:pdf").End(boom))
	m.Rejected("/trips/{id}/accounts")
	m.ExpiringDocuments(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("invoice:pdf", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("invoice:pdf", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejections.WithLabelValues("/trips/{id}/accounts")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.expiring))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.Rejected("x")
	m.ExpiringDocuments(1)
	assert.NoError(t, m.Track("job").End(nil))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
