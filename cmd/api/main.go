package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/salonkit/booking-platform/internal/api/router"
	"github.com/salonkit/booking-platform/internal/availability"
	"github.com/salonkit/booking-platform/internal/booking"
	"github.com/salonkit/booking-platform/internal/catalog"
	appconfig "github.com/salonkit/booking-platform/internal/config"
	"github.com/salonkit/booking-platform/internal/location"
	"github.com/salonkit/booking-platform/internal/observability/metrics"
	"github.com/salonkit/booking-platform/internal/reporting"
	"github.com/salonkit/booking-platform/internal/schedule"
	"github.com/salonkit/booking-platform/internal/staff"
	"github.com/salonkit/booking-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	reportDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open reporting db", "error", err)
		os.Exit(1)
	}
	defer func() { _ = reportDB.Close() }()

	redisOpts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() { _ = redisClient.Close() }()

	// Repositories and stores
	staffRepo := staff.NewRepository(pool)
	catalogRepo := catalog.NewRepository(pool)
	bookingRepo := booking.NewRepository(pool)
	settingsStore := location.NewStore(redisClient)
	statsRepo := reporting.NewStatsRepository(reportDB)

	// Metrics
	registry := prometheus.DefaultRegisterer
	availabilityMetrics := metrics.NewAvailabilityMetrics(registry)
	bookingMetrics := metrics.NewBookingMetrics(registry)

	// Services
	aggregator := schedule.NewAggregator(staffRepo)
	availabilitySvc := availability.NewService(availability.Config{
		Directory: staffRepo,
		Variants:  catalogRepo,
		Settings:  settingsStore,
		Free:      aggregator,
		Logger:    logger,
		Metrics:   availabilityMetrics,
	})
	bookingSvc := booking.NewService(booking.Config{
		Store:         bookingRepo,
		Capabilities:  staffRepo,
		Variants:      catalogRepo,
		Settings:      settingsStore,
		Free:          aggregator,
		InitialStatus: booking.Status(cfg.BookingInitialStatus),
		Logger:        logger,
		Metrics:       bookingMetrics,
	})

	// Handlers
	availabilityHandler := availability.NewHandler(availabilitySvc, cfg.AvailabilityBudget, logger)
	bookingHandler := booking.NewHandler(bookingSvc, logger)
	staffHandler := staff.NewHandler(staffRepo, logger)
	locationHandler := location.NewHandler(settingsStore, logger)
	statsHandler := reporting.NewStatsHandler(statsRepo, logger)

	r := router.New(&router.Config{
		Logger:              logger,
		AvailabilityHandler: availabilityHandler,
		BookingHandler:      bookingHandler,
		StaffHandler:        staffHandler,
		LocationHandler:     locationHandler,
		StatsHandler:        statsHandler,
		MetricsHandler:      promhttp.Handler(),
		CORSAllowedOrigins:  cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
