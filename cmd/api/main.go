package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/0xAmaan/wander-zero-to-dev/internal/app/migrate"
	"github.com/0xAmaan/wander-zero-to-dev/internal/cache"
	httpx "github.com/0xAmaan/wander-zero-to-dev/internal/http"
	"github.com/0xAmaan/wander-zero-to-dev/internal/repository/postgres"
	"github.com/0xAmaan/wander-zero-to-dev/internal/service/deploy"
	"github.com/0xAmaan/wander-zero-to-dev/internal/service/docker"
	"github.com/0xAmaan/wander-zero-to-dev/internal/service/environment"
	"github.com/0xAmaan/wander-zero-to-dev/internal/service/registry"
	"github.com/0xAmaan/wander-zero-to-dev/internal/ws"
	"github.com/0xAmaan/wander-zero-to-dev/pkg/cmdutil"
	"github.com/0xAmaan/wander-zero-to-dev/pkg/config"
	"github.com/0xAmaan/wander-zero-to-dev/pkg/logger"
)

func main() {
	cfg := config.LoadAPIConfig()
	log := logger.New("api", slog.LevelInfo)
	if cfg.Environment == "development" {
		log = logger.NewText("api", slog.LevelDebug)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	defer runner.Close()
	if err := runner.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if cfg.MigrateOnStart {
		if err := runner.Ensure(ctx); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
	}

	store, err := cache.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	repo := postgres.New(pool)
	hub := ws.NewHub()

	registrySvc := registry.New(repo, store, log, cfg.CacheTTL)
	environmentSvc := environment.New(repo, store, log, cfg.CacheTTL)
	deploySvc := deploy.New(repo, repo, repo, store, hub, log, cfg.CacheTTL)

	execRunner := cmdutil.ExecRunner{Timeout: cfg.DockerTimeout}
	dockerSvc, err := docker.New(execRunner, cfg.DockerCommand, cfg.DockerNameFilter, log)
	if err != nil {
		log.Error("invalid docker command", "error", err)
		os.Exit(1)
	}

	limiter, err := httpx.NewRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
	if err != nil {
		log.Warn("redis rate limiter unavailable, using in-memory limiter", "error", err)
		limiter = httpx.NewMemoryRateLimiter()
	}

	router := httpx.NewRouter(log, registrySvc, environmentSvc, deploySvc, dockerSvc, store, hub, limiter, pool.Ping, cfg)
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr, "environment", cfg.Environment)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
