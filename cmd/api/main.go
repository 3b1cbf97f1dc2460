package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/clinicflow/clinicflow/internal/api/router"
	"github.com/clinicflow/clinicflow/internal/appointments"
	appconfig "github.com/clinicflow/clinicflow/internal/config"
	"github.com/clinicflow/clinicflow/internal/http/handlers"
	"github.com/clinicflow/clinicflow/internal/notify"
	"github.com/clinicflow/clinicflow/internal/observability/metrics"
	"github.com/clinicflow/clinicflow/internal/prefs"
	"github.com/clinicflow/clinicflow/internal/schedule"
	"github.com/clinicflow/clinicflow/internal/stats"
	"github.com/clinicflow/clinicflow/internal/voiceai"
	"github.com/clinicflow/clinicflow/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinicflow API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	store, pool := buildAppointmentStore(ctx, cfg, logger)
	if pool != nil {
		defer pool.Close()
	}

	registry := prometheus.NewRegistry()
	apiMetrics := metrics.NewAPIMetrics(registry)

	redisClient := buildRedisClient(ctx, cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	grid := buildGrid(cfg, logger)

	emailSender := buildEmailSender(cfg, logger)
	nudgeService := notify.NewService(emailSender, store, cfg.SendGridFromName, logger)

	routerCfg := &router.Config{
		Logger:             logger,
		Appointments:       handlers.NewAppointmentsHandler(store, apiMetrics, logger),
		Schedule:           handlers.NewScheduleHandler(store, grid, logger),
		Nudge:              handlers.NewNudgeHandler(nudgeService, logger),
		Dashboard:          stats.NewDashboardHandler(store, registry, logger),
		Metrics:            apiMetrics,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AuthSecret:         cfg.AuthSecret,
		CORSAllowedOrigins: cfg.CORSOrigins,
	}
	if redisClient != nil {
		routerCfg.Session = handlers.NewSessionHandler(prefs.NewSessionStore(redisClient, cfg.SessionTTL), logger)
		routerCfg.Voice = handlers.NewVoiceHandler(voiceai.NewStore(redisClient, cfg.VoiceActivityTTL), store, logger)
	} else {
		logger.Warn("redis not configured; session and voice activity endpoints disabled")
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
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

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildAppointmentStore selects Postgres when DATABASE_URL is set and
// falls back to the in-memory store otherwise.
func buildAppointmentStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (appointments.Store, *pgxpool.Pool) {
	if cfg.DatabaseURL == "" {
		logger.Info("using in-memory appointment store")
		return appointments.NewInMemoryStore(), nil
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Error("database unreachable", "error", err)
		os.Exit(1)
	}
	logger.Info("using postgres appointment store")
	return appointments.NewPostgresStore(pool), pool
}

func buildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

func buildGrid(cfg *appconfig.Config, logger *logging.Logger) schedule.Grid {
	start, err := time.Parse("15:04", cfg.DayStart)
	if err != nil {
		logger.Warn("invalid DAY_START, using 08:00", "value", cfg.DayStart)
		start, _ = time.Parse("15:04", "08:00")
	}
	end, err := time.Parse("15:04", cfg.DayEnd)
	if err != nil {
		logger.Warn("invalid DAY_END, using 18:00", "value", cfg.DayEnd)
		end, _ = time.Parse("15:04", "18:00")
	}
	interval := time.Duration(cfg.SlotIntervalMinutes) * time.Minute
	slots := schedule.Slots(start, end, interval)
	return schedule.NewGrid(slots, cfg.SlotHeight, cfg.SlotIntervalMinutes, cfg.SlotGap)
}

func buildEmailSender(cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	if cfg.SendGridAPIKey != "" {
		return notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
	}
	logger.Warn("SENDGRID_API_KEY not set; nudge emails will be logged only")
	return notify.NewStubEmailSender(logger)
}
