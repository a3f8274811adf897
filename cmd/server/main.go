package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"irgate/internal/applicant"
	"irgate/internal/audit"
	"irgate/internal/delivery"
	"irgate/internal/delivery/mailer"
	deliverymetrics "irgate/internal/delivery/metrics"
	"irgate/internal/dupguard"
	"irgate/internal/invitation"
	"irgate/internal/invitation/generation"
	invitationmetrics "irgate/internal/invitation/metrics"
	"irgate/internal/invitation/token"
	"irgate/internal/platform/config"
	"irgate/internal/platform/httpserver"
	"irgate/internal/platform/logger"
	"irgate/internal/platform/postgres"
	"irgate/internal/platform/redis"
	httptransport "irgate/internal/transport/http"
	"irgate/pkg/platform/httputil"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal packages.
func main() {
	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Applicant store: PostgreSQL when configured, in-memory otherwise.
	var store applicant.Store
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres unavailable", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		pgStore := applicant.NewPostgres(db)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			log.Error("schema migration failed", "error", err)
			os.Exit(1)
		}
		store = pgStore
		log.Info("using postgres applicant store")
	} else {
		store = applicant.NewMemoryStore()
		log.Info("using in-memory applicant store")
	}

	rdb, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// Audit trail: buffered publisher, background worker.
	auditStore := audit.NewMemoryStore()
	publisher := audit.NewPublisher(0, log)
	worker := audit.NewWorker(auditStore, publisher.Inbox(), log)
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	// Invitation composition: generation chain only when credentials exist.
	var generator invitation.Generator
	if cfg.Generation.APIKey != "" {
		var cooldown generation.Cooldown
		if rdb != nil {
			cooldown = generation.NewRedisCooldown(rdb.Client, cfg.Generation.CooldownTTL)
		} else {
			cooldown = generation.NewMemoryCooldown(cfg.Generation.CooldownTTL)
		}
		generator = generation.NewChain(
			generation.NewOpenAIClient(cfg.Generation),
			[]string{cfg.Generation.PrimaryModel, cfg.Generation.FallbackModel},
			generation.WithCooldown(cooldown),
			generation.WithLogger(log),
		)
	} else {
		log.Warn("no generation API key configured, invitations use the literal template")
	}
	composer := invitation.NewComposer(generator,
		invitation.WithLogger(log),
		invitation.WithMetrics(invitationmetrics.New()),
	)

	tokens := token.NewManager(cfg.Invite.TokenSigningKey)
	delMetrics := deliverymetrics.New()

	guard, err := dupguard.New(store,
		dupguard.WithLogger(log),
		dupguard.WithAuditPublisher(publisher),
	)
	if err != nil {
		log.Error("duplicate guard init failed", "error", err)
		os.Exit(1)
	}

	pipeline := delivery.NewPipeline(store, composer, mailer.NewHTTPMailer(cfg.Mail), tokens, cfg.Invite,
		delivery.WithLogger(log),
		delivery.WithAuditPublisher(publisher),
		delivery.WithMetrics(delMetrics),
		delivery.WithGuard(guard),
	)
	tracker := delivery.NewTracker(store,
		delivery.WithTrackerLogger(log),
		delivery.WithTrackerAudit(publisher),
		delivery.WithTrackerMetrics(delMetrics),
	)

	sweeper := applicant.NewExpirySweeper(store, cfg.Invite.Validity, log)
	go func() {
		if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("expiry sweeper stopped", "error", err)
		}
	}()

	health := func(w http.ResponseWriter, r *http.Request) {
		if rdb != nil {
			if err := rdb.Health(r.Context()); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "redis": err.Error()})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}

	router := httptransport.NewRouter(
		httptransport.NewInviteHandler(pipeline, log),
		httptransport.NewTrackingHandler(tracker, tokens, log),
		httptransport.NewReviewHandler(store, guard, publisher, log),
		health,
	)

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting irgate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
