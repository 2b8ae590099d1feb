package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/application/event"
	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/application/notify"
	apprsvp "github.com/baechuer/real-time-ressys/services/rsvp-service/internal/application/rsvp"
	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/application/user"
	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/audit"
	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/config"
	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/infrastructure/db/notifications"
	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/infrastructure/postgres"
	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/infrastructure/redis"
	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/pkg/logger"
	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/security"
	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/transport/rest"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	if cfg.LogLevel != "" {
		_ = os.Setenv("LOG_LEVEL", cfg.LogLevel)
	}

	logger.Init()
	log := logger.Logger.With().
		Str("service", "rsvp-service").
		Str("env", cfg.AppEnv).
		Logger()

	// Root ctx with signal cancellation
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Postgres (capacity transactions) ----
	dbPool, err := pgxpool.New(rootCtx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres pool create failed")
	}
	defer dbPool.Close()

	{
		pingCtx, cancel := context.WithTimeout(rootCtx, 5*time.Second)
		defer cancel()

		if err := dbPool.Ping(pingCtx); err != nil {
			log.Fatal().Err(err).Msg("postgres ping failed")
		}
		log.Info().Msg("postgres connected")
	}

	repo := postgres.New(dbPool)

	// ---- Notification store (separate pool) ----
	notifDB, err := sql.Open("postgres", cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("notification db open failed")
	}
	notifDB.SetMaxOpenConns(10)
	notifDB.SetMaxIdleConns(5)
	notifDB.SetConnMaxIdleTime(15 * time.Minute)
	defer notifDB.Close()
	inboxStore := notifications.New(notifDB)

	// ---- Redis ----
	cache := redis.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	{
		pingCtx, cancel := context.WithTimeout(rootCtx, 2*time.Second)
		defer cancel()

		// the capacity cache and limiter both degrade without redis
		if err := cache.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Msg("redis ping failed (continuing)")
		} else {
			log.Info().Msg("redis connected")
		}
	}

	// ---- Application services ----
	auditLog := audit.New(logger.Logger)
	dispatcher := notify.NewDispatcher(inboxStore, repo, auditLog, nil)

	rsvpSvc := apprsvp.New(postgres.RsvpRepo{Repository: repo}, dispatcher,
		apprsvp.WithCache(cache, cfg.CapacityCacheTTL),
		apprsvp.WithAudit(auditLog),
	)
	eventSvc := event.New(postgres.EventRepo{Repository: repo}, repo, dispatcher, cache, auditLog, nil)
	userSvc := user.New(repo)

	h := rest.NewHandler(rsvpSvc, eventSvc, dispatcher, userSvc)

	// ---- JWT verifier ----
	verifier := security.NewHS256Verifier(cfg.JWTSecret, cfg.JWTIssuer)

	// ---- Router ----
	deps := rest.RouterDeps{
		Handler:       h,
		Verifier:      verifier,
		SearchPerMin:  cfg.SearchRateLimit,
		AllowedOrigin: cfg.CORSAllowedOrigins,
		Ready: map[string]rest.Pinger{
			"postgres":      repo,
			"notifications": inboxStore,
			"redis":         cache,
		},
	}
	if cfg.RLEnabled {
		deps.Limiter = cache
		deps.RateLimit = cfg.RLLimit
		deps.RateWindow = cfg.RLWindow
	}
	httpHandler := rest.NewRouter(deps)

	// ---- Outbox worker (outbound rsvp.* / event.* / comment.* events) ----
	if cfg.OutboxEnabled {
		postgres.NewOutboxWorker(repo, cfg.RabbitURL, cfg.RabbitExchange, auditLog).Start(rootCtx)
		repo.StartOutboxCleanup(rootCtx, cfg.OutboxRetention, time.Hour)
		log.Info().Msg("outbox worker started")
	}

	// ---- HTTP server ----
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-rootCtx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("http server crashed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info().Msg("shutdown complete")
}
