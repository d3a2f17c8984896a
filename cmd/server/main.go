package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"custodia/internal/audit"
	"custodia/internal/auth"
	"custodia/internal/platform/config"
	"custodia/internal/platform/httpserver"
	"custodia/internal/platform/logger"
	"custodia/internal/platform/metrics"
	platformredis "custodia/internal/platform/redis"
	"custodia/internal/rbac"
	"custodia/internal/service"
	"custodia/internal/store"
	storepostgres "custodia/internal/store/postgres"
	httptransport "custodia/internal/transport/http"
)

// main wires the dependencies and keeps the server lifecycle small. Business
// logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()
	hasher := auth.NewBcryptHasher()
	registry := rbac.NewAdminRegistry()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Persistence: PostgreSQL when configured, in-memory otherwise.
	var (
		st         store.Store
		auditStore audit.Store
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pgStore := storepostgres.New(db, hasher)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			log.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
		pgAudit := audit.NewPostgresStore(db)
		if err := pgAudit.EnsureSchema(ctx); err != nil {
			log.Error("failed to ensure audit schema", "error", err)
			os.Exit(1)
		}
		st = pgStore
		auditStore = pgAudit
		log.Info("using postgres persistence")
	} else {
		st = store.NewInMemory(hasher)
		auditStore = audit.NewInMemoryStore()
		log.Warn("no postgres DSN configured, state will not survive restarts")
	}

	publisher := audit.NewPublisher(auditStore, audit.WithAsyncBuffer(cfg.AuditBuffer))
	defer publisher.Close()

	// Token revocation: Redis when configured, in-process otherwise.
	var revocations auth.RevocationList = auth.NewInMemoryRevocationList()
	redisClient, err := platformredis.New(cfg.RedisAddr)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		revocations = auth.NewRedisRevocationList(redisClient.Client)
		log.Info("using redis token revocation list")
	}

	svc := service.New(st, registry,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithAuditPublisher(publisher),
		service.WithAuditLog(publisher),
	)
	tokens := auth.NewTokenService(cfg.JWTSigningKey, "custodia", "custodia-api")
	authenticator := auth.NewAuthenticator(st, hasher, tokens, revocations, cfg.TokenTTL)

	handler := httptransport.NewHandler(log, svc, svc, svc, svc, authenticator, authenticator, m)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting custodia", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
