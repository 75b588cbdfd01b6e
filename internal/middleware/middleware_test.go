package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/finadigital/wifipass/internal/infrastructure/observability"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
}

func TestMetrics_RecordsRequestAndDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics("test", reg)

	r := chi.NewRouter()
	r.Use(Metrics(metrics))
	r.Get("/api/v1/passes", okHandler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/passes", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	families, err := reg.Gather()
	require.NoError(t, err)

	var foundTotal, foundDuration bool
	for _, mf := range families {
		switch *mf.Name {
		case "test_http_requests_total":
			foundTotal = true
		case "test_http_request_duration_seconds":
			foundDuration = true
		}
	}
	assert.True(t, foundTotal)
	assert.True(t, foundDuration)
}

func TestMetrics_UsesRoutePatternNotPath(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics("test", reg)

	r := chi.NewRouter()
	r.Use(Metrics(metrics))
	r.Get("/api/v1/sessions/{id}/code", okHandler())

	for _, id := range []string{"aaa", "bbb", "ccc"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/sessions/"+id+"/code", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if *mf.Name == "test_http_requests_total" {
			require.Len(t, mf.Metric, 1, "three ids must collapse into one route label")
		}
	}
}

func TestStatusWriter_CapturesStatus(t *testing.T) {
	w := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}

	sw.WriteHeader(http.StatusConflict)

	assert.Equal(t, http.StatusConflict, sw.statusCode)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRateLimit_BlocksAfterBudget(t *testing.T) {
	r := chi.NewRouter()
	r.Use(RateLimit(2))
	r.Post("/api/v1/code/lookup", okHandler())

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/code/lookup", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/code/lookup", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate_limit")
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders()(okHandler())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"), "HSTS only over TLS")
}
