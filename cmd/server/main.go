package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tableside-pos/api/internal/config"
	"github.com/tableside-pos/api/internal/logger"
	"github.com/tableside-pos/api/internal/router"
	"github.com/tableside-pos/api/internal/ws"
)

func main() {
	cfg := config.Load()
	log := logger.New("tableside-api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("create connection pool", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Error("database unreachable", err)
		os.Exit(1)
	}

	hub := ws.NewHub()
	go hub.Run()

	// No payment provider is wired by default; checkout endpoints answer 503
	// until a gateway integration is configured.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.New(cfg, pool, hub, nil, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
