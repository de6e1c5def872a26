package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/p-n-ai/psr-academy/internal/app"
	"github.com/p-n-ai/psr-academy/internal/coverage"
	"github.com/p-n-ai/psr-academy/internal/platform/cache"
	"github.com/p-n-ai/psr-academy/internal/platform/config"
	"github.com/p-n-ai/psr-academy/internal/platform/logging"
)

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logging.Setup(os.Stdout, cfg.Log)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	a, err := app.Open(ctx, cfg)
	if err != nil {
		slog.Error("failed to load content", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	bank, err := a.Store.Load(ctx)
	if err != nil {
		slog.Error("failed to load question bank", "error", err)
		os.Exit(1)
	}

	var checks []readinessCheck
	var responses cache.Store = cache.NewMemory(cfg.Cache.TTL())
	if cfg.Cache.URL != "" {
		rc, err := cache.NewRedis(ctx, cfg.Cache.URL, cfg.Cache.TTL())
		if err != nil {
			slog.Warn("redis unavailable, using in-process cache", "error", err)
		} else {
			defer func() { _ = rc.Close() }()
			responses = rc
			checks = append(checks, readinessCheck{"cache", rc.HealthCheck})
		}
	}

	var progress coverage.ProgressSource = coverage.NewMemoryProgress()
	if a.DB != nil {
		pg, err := coverage.NewPostgresProgress(a.DB.Pool)
		if err != nil {
			slog.Error("failed to create progress source", "error", err)
			os.Exit(1)
		}
		progress = pg
		checks = append(checks, readinessCheck{"database", a.DB.HealthCheck})
	}

	svc := coverage.NewService(a.Standards, bank, progress, responses)
	slog.Info("snapshot ready", "questions", bank.Len(), "fingerprint", svc.Fingerprint())

	mux := newMux(&api{
		svc:     svc,
		limiter: cache.NewLimiter(cfg.RateLimit.PerMinute, time.Minute),
		checks:  checks,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
