package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"loan-forecast/internal/infrastructure/monitoring"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsMiddleware(t *testing.T) {
	monitoring.HTTP.RequestsTotal.Reset()
	monitoring.HTTP.RequestDuration.Reset()

	r := chi.NewRouter()
	r.Use(MetricsMiddleware())
	r.Get("/forecasts/{forecastID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	t.Run("labels requests with the route pattern", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/forecasts/17", nil)
		rec := httptest.NewRecorder()

		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		expectedTotal := `
			# HELP loan_forecast_http_requests_total Total number of HTTP requests.
			# TYPE loan_forecast_http_requests_total counter
			loan_forecast_http_requests_total{method="GET",path="/forecasts/{forecastID}",status_code="OK"} 1
		`
		err := testutil.CollectAndCompare(monitoring.HTTP.RequestsTotal, strings.NewReader(expectedTotal))
		assert.NoError(t, err)
	})

	t.Run("observes request duration", func(t *testing.T) {
		assert.Equal(t, 1, testutil.CollectAndCount(monitoring.HTTP.RequestDuration))
	})
}
