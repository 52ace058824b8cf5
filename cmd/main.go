// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/cache"
	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/clock"
	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/config"
	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/database"
	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/handler"
	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/notify"
	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/pricing"
	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/repository"
	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/service"
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Connect to PostgreSQL ──────────────────────────────────────────
	pool, err := database.NewPool(ctx, cfg.DSN(), logger)
	if err != nil {
		logger.WithError(err).Fatal("database")
	}
	defer pool.Close()
	logger.Info("connected to PostgreSQL")

	if cfg.RunMigrations {
		if err := database.Migrate(ctx, pool); err != nil {
			logger.WithError(err).Fatal("migrations")
		}
		logger.Info("migrations applied")
	}

	// ── 2. Optional side channels ─────────────────────────────────────────
	var quotes service.QuoteCache = cache.Nop{}
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Warn("redis unavailable, price cache disabled")
		} else {
			defer rdb.Close()
			quotes = cache.NewPriceCache(rdb, cfg.PriceCacheTTL, logger)
			logger.Info("connected to Redis")
		}
	}

	var publisher service.BookingPublisher = notify.Nop{}
	if cfg.RabbitMQURL != "" {
		publisher = notify.NewPublisher(cfg.RabbitMQURL)
	}

	// ── 3. Wire up layers ────────────────────────────────────────────────
	clk := clock.NewSystem()
	eventRepo := repository.NewEventRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	engine := pricing.NewEngine(cfg.Weights, bookingRepo, clk)

	eventSvc := service.NewEventService(logger, eventRepo, engine, quotes, cfg.Weights)
	bookingSvc := service.NewBookingService(service.BookingServiceProperty{
		Logger:        logger,
		Ledger:        eventRepo,
		Bookings:      bookingRepo,
		Pricer:        engine,
		Invalidator:   quotes,
		Publisher:     publisher,
		Clock:         clk,
		Timeout:       cfg.BookingTimeout,
		NotifyTimeout: cfg.NotifyTimeout,
	})
	analyticsSvc := service.NewAnalyticsService(logger, eventRepo, bookingRepo)

	router := handler.NewRouter(handler.RouterProperty{
		Logger:      logger,
		Events:      eventSvc,
		Bookings:    bookingSvc,
		Analytics:   analyticsSvc,
		DB:          pool,
		CORSOrigins: strings.Split(cfg.CORSOrigin, ","),
	})

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server error")
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
		return
	}
	logger.Info("server stopped")
}

func newLogger(cfg config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if cfg.IsProduction() {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}
