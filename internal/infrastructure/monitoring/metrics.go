package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "loan_forecast"

type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type ForecastMetrics struct {
	SchedulesComputed *prometheus.CounterVec
	ForecastsStored   prometheus.Counter
	ReportsGenerated  *prometheus.CounterVec
	ReportCacheLookup *prometheus.CounterVec
	WarmupRuns        *prometheus.CounterVec
}

var (
	HTTP = HTTPMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status_code"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status_code"},
		),
	}

	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "db_query_duration_seconds",
				Help:      "Histogram of database query latencies.",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Forecast = ForecastMetrics{
		SchedulesComputed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "schedules_computed_total",
				Help:      "Total number of amortization schedules computed.",
			},
			[]string{"accrual_method", "closed_early"},
		),
		ForecastsStored: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "forecasts_stored_total",
				Help:      "Total number of forecasts persisted.",
			},
		),
		ReportsGenerated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reports_generated_total",
				Help:      "Total number of report generations by provider and outcome.",
			},
			[]string{"provider", "status"},
		),
		ReportCacheLookup: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "report_cache_lookups_total",
				Help:      "Report cache lookups by result.",
			},
			[]string{"result"},
		),
		WarmupRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "report_warmup_runs_total",
				Help:      "Report warmup job runs by status.",
			},
			[]string{"status"},
		),
	}
)

func RecordHTTPRequest(method, path, code string, duration time.Duration) {
	HTTP.RequestsTotal.WithLabelValues(method, path, code).Inc()
	HTTP.RequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordScheduleComputed(accrualMethod string, closedEarly bool) {
	closed := "false"
	if closedEarly {
		closed = "true"
	}
	Forecast.SchedulesComputed.WithLabelValues(accrualMethod, closed).Inc()
}

func RecordForecastStored() {
	Forecast.ForecastsStored.Inc()
}

func RecordReportGenerated(provider, status string) {
	Forecast.ReportsGenerated.WithLabelValues(provider, status).Inc()
}

func RecordReportCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	Forecast.ReportCacheLookup.WithLabelValues(result).Inc()
}

func RecordWarmupRun(status string) {
	Forecast.WarmupRuns.WithLabelValues(status).Inc()
}
