package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"mugs/internal/platform/config"
)

// New builds the API server. Connection-level errors from net/http are routed
// into the structured logger at warn level.
func New(cfg config.Server, handler http.Handler, logger *slog.Logger) *http.Server {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       idleTimeout(cfg),
	}
	if logger != nil {
		srv.ErrorLog = slog.NewLogLogger(logger.Handler(), slog.LevelWarn)
	}
	return srv
}

// idleTimeout keeps keep-alive connections open a little longer than a full
// request may take.
func idleTimeout(cfg config.Server) time.Duration {
	if d := 2 * cfg.WriteTimeout; d > 0 {
		return d
	}
	return 60 * time.Second
}
