package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"mugs/internal/app"
	"mugs/internal/platform/config"
	"mugs/internal/platform/httpserver"
	"mugs/internal/platform/logger"
)

// main loads configuration, assembles the application and runs the HTTP
// server and background jobs until interrupted.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mugs: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Logging)
	if cfg.UsesDevSigningKey() {
		log.Warn("using the development JWT signing key; set JWT_SIGNING_KEY")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}

	srv := httpserver.New(cfg.Server, a.Router, log)
	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting mugs", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	jobsErr := make(chan error, 1)
	go func() { jobsErr <- a.Run(ctx) }()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serveErr:
		log.Error("server error", "error", err)
	case err := <-jobsErr:
		if err != nil {
			log.Error("background job failed", "error", err)
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if err := a.Close(shutdownCtx); err != nil {
		log.Error("closing backends failed", "error", err)
	}
	return nil
}
