package app

import (
	"context"
	"log/slog"
	"time"
)

// cleanupLoop calls remove every interval until ctx is done. Failures are
// logged and retried on the next tick.
func cleanupLoop(ctx context.Context, interval time.Duration, logger *slog.Logger, remove func(context.Context, time.Time) (int, error)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			n, err := remove(ctx, now)
			if err != nil {
				logger.ErrorContext(ctx, "revocation cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				logger.DebugContext(ctx, "expired revocations removed", "count", n)
			}
		}
	}
}
