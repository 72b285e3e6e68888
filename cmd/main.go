package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"loan-forecast/internal/api"
	"loan-forecast/internal/batch"
	"loan-forecast/internal/config"
	"loan-forecast/internal/domain/forecast"
	"loan-forecast/internal/domain/report"
	"loan-forecast/internal/event"
	"loan-forecast/internal/infrastructure/cache"
	"loan-forecast/internal/infrastructure/database/postgres"
	"loan-forecast/internal/infrastructure/database/sqlite"
	"loan-forecast/internal/infrastructure/logging"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// @title Loan Forecast API
// @version 1.0
// @description Loan amortization schedules, summaries, chart series and advisory reports.

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, logger := initializeApp()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, checks, closeRepo := initializeRepository(ctx, cfg, logger)
	defer closeRepo()

	redisClient, reportCache, cacheChecks := initializeReportCache(ctx, cfg, logger)
	checks = append(checks, cacheChecks...)
	rabbitMQConn, publisher := initializePublisher(cfg, logger)

	forecastService := forecast.NewForecastService(repo, publisher, logger)
	reportService := report.NewService(initializeGenerator(cfg, logger), reportCache, logger)

	warmupJob := batch.NewReportWarmupJob(forecastService, reportService, cfg.Batch.Lookback, cfg.Batch.Concurrency, logger)
	cronScheduler := startBatchJobs(cfg, logger, warmupJob)

	router := api.SetupRouter(ctx, forecastService, reportService, cfg, logger, checks...)

	srv, serverErrors, shutdownChan := startServer(cfg, router, logger)
	handleShutdown(srv, cronScheduler, shutdownChan, serverErrors, logger)

	closeRabbitMQConnection(rabbitMQConn, logger)
	closeRedisClient(redisClient, logger)
}

func initializeApp() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logger)
	slog.SetDefault(logger)
	logger.Info("Application starting...", "config_source", viper.ConfigFileUsed())

	return cfg, logger
}

func initializeRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (forecast.Repository, []api.HealthCheck, func()) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		logger.Info("Opening SQLite forecast store...", "path", cfg.Database.SQLitePath)
		store, err := sqlite.New(cfg.Database.SQLitePath, logger)
		if err != nil {
			logger.Error("Failed to open SQLite forecast store", "error", err)
			os.Exit(1)
		}
		closeStore := func() {
			logger.Info("Closing SQLite forecast store...")
			if err := store.Close(); err != nil {
				logger.Error("Failed to close SQLite forecast store", "error", err)
			}
		}
		return store, []api.HealthCheck{{Name: "database", Ping: store.Ping}}, closeStore

	default:
		if cfg.Database.Migrate {
			if err := postgres.MigrateUp(cfg.Database.URL, logger); err != nil {
				logger.Error("Failed to apply database migrations", "error", err)
				os.Exit(1)
			}
		}
		logger.Info("Initializing database connection pool...")
		pool, err := postgres.NewConnectionPool(ctx, cfg.Database, logger)
		if err != nil {
			logger.Error("Failed to initialize database connection pool", "error", err)
			os.Exit(1)
		}
		closePool := func() {
			logger.Info("Closing database connection pool...")
			pool.Close()
			logger.Info("Database connection pool closed.")
		}
		return postgres.NewForecastRepository(pool, logger), []api.HealthCheck{{Name: "database", Ping: pool.Ping}}, closePool
	}
}

func initializeReportCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*redis.Client, report.Cache, []api.HealthCheck) {
	if !cfg.Redis.Enabled {
		logger.Info("Redis disabled, using in-memory report cache.", "ttl", cfg.Redis.TTL)
		return nil, cache.NewMemoryCache(cfg.Redis.TTL), nil
	}

	logger.Info("Initializing Redis client...", "addr", cfg.Redis.Addr)
	rdb := cache.NewRedisClient(cfg.Redis)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Failed to connect to Redis, falling back to in-memory report cache", "error", err, "addr", cfg.Redis.Addr)
		_ = rdb.Close()
		return nil, cache.NewMemoryCache(cfg.Redis.TTL), nil
	}

	logger.Info("Redis client connected successfully.", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
	redisCache := cache.NewRedisCache(rdb, cfg.Redis.TTL, logger)
	return rdb, redisCache, []api.HealthCheck{redisHealthCheck(redisCache)}
}

func redisHealthCheck(c *cache.RedisCache) api.HealthCheck {
	return api.HealthCheck{Name: "redis", Ping: c.Ping}
}

func initializePublisher(cfg *config.Config, logger *slog.Logger) (*amqp.Connection, event.EventPublisher) {
	if !cfg.RabbitMQ.Enabled {
		logger.Info("RabbitMQ disabled, forecast events will not be published.")
		return nil, event.NewNoopEventPublisher(logger)
	}

	conn, err := connectRabbitMQ(cfg.RabbitMQ.URL(), logger)
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ, forecast events will not be published", "error", err)
		return nil, event.NewNoopEventPublisher(logger)
	}

	publisher, err := event.NewRabbitMQEventPublisher(conn, cfg.RabbitMQ.ExchangeName, logger)
	if err != nil {
		logger.Error("Failed to create RabbitMQ publisher", "error", err)
		_ = conn.Close()
		return nil, event.NewNoopEventPublisher(logger)
	}
	return conn, publisher
}

func connectRabbitMQ(uri string, logger *slog.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	retryCount := 5
	for i := 1; i <= retryCount; i++ {
		conn, err = amqp.Dial(uri)
		if err == nil {
			logger.Info("Successfully connected to RabbitMQ")

			go func() {
				blockChan := conn.NotifyBlocked(make(chan amqp.Blocking))
				closeChan := conn.NotifyClose(make(chan *amqp.Error))

				select {
				case b := <-blockChan:
					logger.Warn("RabbitMQ Connection Blocked", "reason", b.Reason)
				case e := <-closeChan:
					logger.Error("RabbitMQ Connection Closed", slog.Any("error", e))
				}
			}()

			return conn, nil
		}
		logger.Warn("Failed to connect to RabbitMQ, retrying...",
			slog.Int("attempt", i),
			slog.Int("max_attempts", retryCount),
			slog.Any("error", err),
		)
		time.Sleep(time.Duration(i*2) * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", retryCount, err)
}

func initializeGenerator(cfg *config.Config, logger *slog.Logger) report.Generator {
	if cfg.Report.Provider != config.ReportProviderOpenAI {
		logger.Info("Using template report generator.")
		return report.TemplateGenerator{}
	}

	g, err := report.NewOpenAIGenerator(report.OpenAIConfig{
		APIURL:      cfg.Report.APIURL,
		APIKey:      cfg.Report.APIKey,
		Model:       cfg.Report.Model,
		MaxTokens:   cfg.Report.MaxTokens,
		Temperature: cfg.Report.Temperature,
		Timeout:     cfg.Report.Timeout,
	})
	if err != nil {
		logger.Warn("OpenAI report generator unavailable, using template generator", "error", err)
		return report.TemplateGenerator{}
	}
	logger.Info("Using OpenAI report generator.", "model", cfg.Report.Model)
	return g
}

func startServer(cfg *config.Config, router http.Handler, logger *slog.Logger) (*http.Server, <-chan error, <-chan os.Signal) {
	logger.Info("Setting up HTTP server...", "port", cfg.Server.Port)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("Server listening on port %d", cfg.Server.Port))
		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			serverErrors <- err
		} else {
			logger.Info("Server closed gracefully.")
			serverErrors <- nil
		}
	}()
	return srv, serverErrors, shutdownChan
}

func handleShutdown(srv *http.Server, cronScheduler *cron.Cron, shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) {
	logger.Info("Shutdown handler started. Waiting for signal or server error...")

	triggerReason := waitForShutdownTrigger(shutdownChan, serverErrors, logger)

	logger.Info("Starting graceful shutdown...", "trigger", triggerReason)

	stopCronScheduler(cronScheduler, logger)
	shutdownHTTPServer(srv, serverErrors, logger)

	logger.Info("Application shutdown process complete.")
}

func waitForShutdownTrigger(shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) string {
	select {
	case sig := <-shutdownChan:
		logger.Info("Shutdown signal received.", "signal", sig.String())
		return "signal: " + sig.String()
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server exited unexpectedly before signal", "error", err)
			os.Exit(1)
		}
		logger.Info("Server goroutine finished before signal.", "error", err)
		return "server exited"
	}
}

func stopCronScheduler(cronScheduler *cron.Cron, logger *slog.Logger) {
	if cronScheduler == nil {
		return
	}
	logger.Info("Stopping cron scheduler...")
	cronCtx := cronScheduler.Stop()
	select {
	case <-cronCtx.Done():
		logger.Info("Cron scheduler stopped gracefully.")
	case <-time.After(15 * time.Second):
		logger.Warn("Cron scheduler shutdown timed out.")
	}
}

func shutdownHTTPServer(srv *http.Server, serverErrors <-chan error, logger *slog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server graceful shutdown failed", "error", err)
		} else {
			logger.Info("HTTP server shutdown initiated.")
		}
		if err := srv.Close(); err != nil {
			logger.Error("HTTP server forced close failed", "error", err)
		}
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}

	logger.Info("Waiting for server goroutine to confirm exit...")
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Server goroutine exited with unexpected error after shutdown", "error", err)
		} else {
			logger.Info("Server goroutine confirmed exit.")
		}
	case <-time.After(5 * time.Second):
		logger.Warn("Timed out waiting for server goroutine confirmation.")
	}
}

func closeRabbitMQConnection(rabbitConn *amqp.Connection, logger *slog.Logger) {
	if rabbitConn != nil && !rabbitConn.IsClosed() {
		logger.Info("Closing RabbitMQ connection...")
		if err := rabbitConn.Close(); err != nil {
			logger.Error("Failed to close RabbitMQ connection gracefully", slog.Any("error", err))
		} else {
			logger.Info("RabbitMQ connection closed.")
		}
	} else if rabbitConn == nil {
		logger.Info("RabbitMQ connection was not established, skipping close.")
	} else {
		logger.Info("RabbitMQ connection already closed, skipping close.")
	}
}

func closeRedisClient(redisClient *redis.Client, logger *slog.Logger) {
	if redisClient == nil {
		logger.Info("Redis client was not initialized, skipping close.")
		return
	}
	logger.Info("Closing Redis client connection...")
	if err := redisClient.Close(); err != nil {
		logger.Error("Failed to close Redis client connection gracefully", "error", err)
	} else {
		logger.Info("Redis client connection closed.")
	}
}

func startBatchJobs(cfg *config.Config, logger *slog.Logger, warmupJob *batch.ReportWarmupJob) *cron.Cron {
	logger.Info("Initializing batch job scheduler...")
	c := cron.New()

	if !cfg.Batch.ReportWarmupEnabled {
		logger.Info("Report warmup job disabled.")
		c.Start()
		return c
	}

	scheduleSpec := cfg.Batch.ReportWarmupSchedule
	if scheduleSpec == "" {
		scheduleSpec = "*/30 * * * *"
		logger.Warn("Report warmup schedule not configured, using default", "schedule", scheduleSpec)
	}
	jobTimeout := cfg.Batch.ReportWarmupTimeout
	if jobTimeout <= 0 {
		jobTimeout = 5 * time.Minute
	}

	jobID, err := c.AddJob(scheduleSpec, cron.FuncJob(func() {
		jobLogger := logger.With("job_name", "ReportWarmup")
		jobLogger.Info("Cron triggered: Running report warmup job.")

		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		if runErr := warmupJob.Run(ctx); runErr != nil {
			jobLogger.Error("Report warmup job finished with error", slog.Any("error", runErr))
		} else {
			jobLogger.Info("Report warmup job finished successfully.")
		}
	}))
	if err != nil {
		logger.Error("Failed to schedule report warmup job", "schedule", scheduleSpec, slog.Any("error", err))
	} else {
		logger.Info("Scheduled report warmup job", "schedule", scheduleSpec, "job_id", jobID)
	}

	c.Start()
	logger.Info("Cron scheduler started.")
	return c
}
