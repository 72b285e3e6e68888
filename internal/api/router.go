package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"loan-forecast/internal/api/handler"
	mw "loan-forecast/internal/api/middleware"
	"loan-forecast/internal/config"
	"loan-forecast/internal/domain/forecast"

	_ "loan-forecast/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// HealthCheck probes one backing service for GET /health.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

func SetupRouter(
	ctx context.Context,
	forecastService forecast.ForecastService,
	reports handler.ReportService,
	cfg *config.Config,
	logger *slog.Logger,
	checks ...HealthCheck,
) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(ctx, router, cfg, logger)
	setupMetricsEndpoint(router, cfg, logger)
	setupForecastRoutes(router, forecastService, reports, cfg, logger)
	router.Get("/health", healthHandler(checks))
	setupSwaggerEndpoint(router, logger)

	return router
}

func setupMiddleware(ctx context.Context, router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	requestTimeout := cfg.Server.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 60 * time.Second
	}

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(requestTimeout))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         cfg.Server.CORS.MaxAge,
	}))
	router.Use(mw.NewRateLimiterMiddleware(ctx, cfg.Server.RateLimit, logger).Middleware)
	if cfg.Metrics.Enabled {
		router.Use(mw.MetricsMiddleware())
	}
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	if !cfg.Metrics.Enabled {
		return
	}
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupSwaggerEndpoint(router *chi.Mux, logger *slog.Logger) {
	logger.Info("Setting up Swagger UI endpoint", "path", "/swagger/")
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
}

func setupForecastRoutes(router *chi.Mux, forecastService forecast.ForecastService, reports handler.ReportService, cfg *config.Config, logger *slog.Logger) {
	forecastHandler := handler.NewForecastHandler(forecastService, reports, logger)
	authHandler := handler.NewAuthHandler(cfg.Server.Auth, logger)

	router.Route("/auth", func(r chi.Router) {
		r.Post("/token", authHandler.GenerateBearerToken)
	})

	router.Route("/schedules", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Post("/preview", forecastHandler.PreviewSchedule)
	})

	router.Route("/forecasts", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Post("/", forecastHandler.CreateForecast)
		r.Route("/{forecastID}", func(r chi.Router) {
			r.Get("/", forecastHandler.GetForecast)
			r.Get("/schedule", forecastHandler.GetSchedule)
			r.Get("/summary", forecastHandler.GetSummary)
			r.Get("/chart", forecastHandler.GetChart)
			r.Get("/report", forecastHandler.GetReport)
		})
	})
}

func healthHandler(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]any{"status": "ok"}
		if len(checks) > 0 {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			results := make(map[string]string, len(checks))
			for _, c := range checks {
				if err := c.Ping(ctx); err != nil {
					results[c.Name] = err.Error()
					status = http.StatusServiceUnavailable
					body["status"] = "degraded"
					continue
				}
				results[c.Name] = "ok"
			}
			body["checks"] = results
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}
}
