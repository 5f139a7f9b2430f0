package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalist/alert-monitor/internal/config"
	"github.com/signalist/alert-monitor/internal/dedup"
	"github.com/signalist/alert-monitor/internal/handler"
	"github.com/signalist/alert-monitor/internal/metrics"
	"github.com/signalist/alert-monitor/internal/middleware"
	"github.com/signalist/alert-monitor/internal/monitor"
	"github.com/signalist/alert-monitor/internal/notifier"
	"github.com/signalist/alert-monitor/internal/quote"
	"github.com/signalist/alert-monitor/internal/scheduler"
	"github.com/signalist/alert-monitor/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cfg := config.Load()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	if cfg.FinnhubAPIKey == "" {
		logger.Error("FINNHUB_API_KEY is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database connected and migrated")

	// Redis cooldown cache (retry briefly so a cold Redis pod can come up)
	var suppress *dedup.Cache
	for i := 0; i < 6; i++ {
		suppress, err = dedup.New(cfg.RedisURL, cfg.RedisPassword)
		if err == nil {
			break
		}
		logger.Warn("redis not ready, retrying...", "attempt", i+1, "error", err)
		time.Sleep(5 * time.Second)
	}
	if err != nil {
		logger.Error("failed to connect to redis after retries", "error", err)
		os.Exit(1)
	}
	defer suppress.Close()
	logger.Info("redis connected for cooldown cache")

	// Market data, notifications, engine
	provider := quote.NewClientWithBaseURL(cfg.FinnhubAPIKey, cfg.FinnhubBaseURL)
	sender := notifier.NewEmailSender(notifier.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.EmailFrom,
	}, db, logger)

	engine := monitor.NewEngine(db, provider, sender, suppress, logger, monitor.Options{
		Cooldown:     cfg.Cooldown,
		FetchWorkers: cfg.FetchWorkers,
		FetchTimeout: cfg.FetchTimeout,
	})

	// Prime the gauge so it reflects reality before the first cycle runs.
	if n, err := db.CountActiveAlerts(ctx); err == nil {
		metrics.ActiveAlerts.Set(float64(n))
	}

	sched, err := scheduler.New(engine, logger, cfg.CycleSpec)
	if err != nil {
		logger.Error("failed to create scheduler", "error", err)
		os.Exit(1)
	}
	go sched.Run(ctx)

	// HTTP routes
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.FrontendOrigin))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handler.Health())
	r.Get("/readyz", handler.Ready(db))

	r.Route("/api", func(r chi.Router) {
		r.Get("/alerts", handler.ListAlerts(db))
		r.Post("/alerts", handler.CreateAlert(db))
		r.Post("/alerts/{id}/toggle", handler.ToggleAlert(db, suppress))
		r.Delete("/alerts/{id}", handler.DeleteAlert(db, suppress))
		r.Post("/cycle/run", handler.RunCycle(engine))
		r.Get("/cycle/report", handler.LastReport(engine))
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down gracefully")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
