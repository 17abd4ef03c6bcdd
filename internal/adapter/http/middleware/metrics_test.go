package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHTTPMetricsRecordsRoutePattern(t *testing.T) {
	testCases := []struct {
		name       string
		method     string
		path       string
		route      string
		statusCode string
	}{
		{
			name:       "uses route pattern instead of id",
			method:     http.MethodGet,
			path:       "/api/v1/transactions/12345",
			route:      "/api/v1/transactions/{id}",
			statusCode: "418",
		},
		{
			name:       "sum route",
			method:     http.MethodGet,
			path:       "/api/v1/transactions/sum/7",
			route:      "/api/v1/transactions/sum/{id}",
			statusCode: "418",
		},
		{
			name:       "unknown path",
			method:     http.MethodGet,
			path:       "/nope",
			route:      unmatchedRoute,
			statusCode: "404",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewHTTPMetrics(prometheus.NewRegistry())

			r := chi.NewRouter()
			r.Use(m.Wrap)
			teapot := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) }
			r.Get("/api/v1/transactions/{id}", teapot)
			r.Get("/api/v1/transactions/sum/{id}", teapot)

			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tc.method, tc.path, nil))

			if got := testutil.ToFloat64(m.requestsInFlight); got != 0 {
				t.Fatalf("expected in-flight gauge to return to 0, got %v", got)
			}

			counter := m.requestsTotal.WithLabelValues(tc.method, tc.route, tc.statusCode)
			if got := testutil.ToFloat64(counter); got != 1 {
				t.Fatalf("expected counter 1 for %s, got %v", tc.route, got)
			}

			if n := testutil.CollectAndCount(m.requestDuration); n != 1 {
				t.Fatalf("expected one duration series, got %d", n)
			}
		})
	}
}
