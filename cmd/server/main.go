// main wires the session gateway: configuration, backing stores, the
// session-manager registry and the HTTP surface. Business logic lives in the
// internal packages; this file only connects them and owns the lifecycle.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"opsdash/internal/audit"
	auditkafka "opsdash/internal/audit/kafka"
	"opsdash/internal/identity"
	"opsdash/internal/platform/config"
	"opsdash/internal/platform/httpserver"
	"opsdash/internal/platform/logger"
	"opsdash/internal/platform/metrics"
	"opsdash/internal/platform/postgres"
	platformredis "opsdash/internal/platform/redis"
	"opsdash/internal/profile"
	"opsdash/internal/push"
	"opsdash/internal/session"
	"opsdash/internal/tabstate"
	httptransport "opsdash/internal/transport/http"
	id "opsdash/pkg/domain"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Profile store: Postgres when configured, memory otherwise.
	var profiles profile.Store
	pool, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		log.Error("postgres unavailable", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
		profiles = profile.NewPostgresStore(pool)
		log.Info("profile store: postgres")
	} else {
		profiles = profile.NewMemoryStore()
		log.Info("profile store: memory")
	}

	// Tab-state markers: Redis when configured so flags survive replica
	// failover, memory otherwise.
	var tabs tabstate.Store
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		tabs = tabstate.NewRedisStore(redisClient.Client)
		log.Info("tab-state store: redis")
	} else {
		tabs = tabstate.NewMemoryStore()
		log.Info("tab-state store: memory")
	}

	// Audit trail: queryable store plus optional Kafka fan-out.
	auditStore, appender, cleanup, err := buildAudit(ctx, cfg, log)
	if err != nil {
		log.Error("audit pipeline unavailable", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	sink := audit.NewSink(appender, audit.WithLogger(log))
	go sink.Run(ctx)

	// Identity provider: the hosted provider when configured, the in-memory
	// provider for local development.
	var provider identity.Client
	var eventSink httptransport.EventSink
	if cfg.Identity.BaseURL != "" {
		httpClient := identity.NewHTTPClient(cfg.Identity,
			identity.WithLogger(log),
			identity.WithJWTSecret([]byte(cfg.Identity.JWTSecret)),
		)
		provider = httpClient
		eventSink = httpClient
		log.Info("identity provider: hosted", "url", cfg.Identity.BaseURL)
	} else {
		provider = identity.NewMemoryProvider()
		log.Warn("identity provider: memory (no IDENTITY_URL configured)")
	}

	var pushTrigger push.Trigger = push.Noop{}
	if cfg.Push.WebhookURL != "" {
		pushTrigger = push.NewWebhook(cfg.Push)
	}

	mx := metrics.New()
	timeouts := session.Timeouts{
		MFAGate:       cfg.Session.MFATimeout,
		Liveness:      cfg.Session.LivenessTimeout,
		Deletion:      cfg.Session.DeletionTimeout,
		RetryInitial:  cfg.Session.RetryInitial,
		RetryInterval: cfg.Session.RetryInterval,
		RetryMax:      cfg.Session.RetryMax,
	}
	registry := session.NewRegistry(func(ctxID id.ContextID) *session.Manager {
		return session.NewManager(ctxID, session.Deps{
			Identity: provider,
			Profiles: profiles,
			Tabs:     tabs,
			Audits:   sink,
			Push:     pushTrigger,
		},
			session.WithTimeouts(timeouts),
			session.WithLogger(log),
			session.WithMetrics(mx),
		)
	})

	handlerOpts := []httptransport.HandlerOption{
		httptransport.WithLogger(log),
		httptransport.WithAuditStore(auditStore),
	}
	if eventSink != nil {
		handlerOpts = append(handlerOpts, httptransport.WithEventSink(eventSink, cfg.Identity.WebhookSecret))
	}
	router := httptransport.NewRouter(httptransport.NewHandler(registry, handlerOpts...))

	srv := httpserver.New(cfg.Addr, router)
	go func() {
		log.Info("session gateway listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	registry.Close()
	sink.Wait()
}

// buildAudit picks the audit trail backends: Postgres when a database is
// configured, memory otherwise, with Kafka fan-out on top when brokers are
// set. The queryable store serves GET /v1/audit; the appender receives
// everything the sink drains.
func buildAudit(ctx context.Context, cfg config.Config, log *slog.Logger) (audit.Store, audit.Appender, func(), error) {
	var store audit.Store
	cleanup := func() {}

	if cfg.Database.URL != "" {
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			return nil, nil, cleanup, err
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, cleanup, err
		}
		store = audit.NewPostgresStore(db)
		cleanup = func() { _ = db.Close() }
		log.Info("audit store: postgres")
	} else {
		store = audit.NewMemoryStore()
		log.Info("audit store: memory")
	}

	if len(cfg.Audit.Brokers) == 0 {
		return store, store, cleanup, nil
	}

	publisher, err := auditkafka.NewPublisher(ctx, cfg.Audit.Brokers, cfg.Audit.Topic,
		auditkafka.WithLogger(log))
	if err != nil {
		cleanup()
		return nil, nil, func() {}, err
	}
	prev := cleanup
	cleanup = func() {
		publisher.Close()
		prev()
	}
	log.Info("audit fan-out: kafka", "topic", cfg.Audit.Topic)
	return store, audit.Tee(store, publisher), cleanup, nil
}
