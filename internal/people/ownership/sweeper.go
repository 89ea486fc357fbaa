package ownership

import (
	"context"
	"log/slog"
	"time"
)

// OrphanReclaimer is a resolver as seen by the sweeper.
type OrphanReclaimer interface {
	Model() string
	ReclaimOrphansAt(ctx context.Context, cutoff time.Time) (int, error)
}

// Sweeper reclaims sub-resources left without owners, such as those created
// for a person whose own creation then failed. Grace keeps it away from
// sub-resources an in-flight request has created but not attached yet.
type Sweeper struct {
	reclaimers []OrphanReclaimer
	interval   time.Duration
	grace      time.Duration
	logger     *slog.Logger
}

func NewSweeper(interval, grace time.Duration, logger *slog.Logger, reclaimers ...OrphanReclaimer) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{reclaimers: reclaimers, interval: interval, grace: grace, logger: logger}
}

// Run sweeps every interval until ctx is cancelled. Failed sweeps are logged
// and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.SweepAt(ctx, time.Now())
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// SweepAt runs one sweep as of now and returns the number of reclaimed
// sub-resources per model.
func (s *Sweeper) SweepAt(ctx context.Context, now time.Time) map[string]int {
	out := make(map[string]int, len(s.reclaimers))
	cutoff := now.Add(-s.grace)
	// reclaimers run in order: kin before addresses
	for _, r := range s.reclaimers {
		n, err := r.ReclaimOrphansAt(ctx, cutoff)
		out[r.Model()] = n
		if err != nil {
			s.logger.ErrorContext(ctx, "orphan sweep failed", "model", r.Model(), "error", err)
			continue
		}
		if n > 0 {
			s.logger.InfoContext(ctx, "orphan sweep", "model", r.Model(), "reclaimed", n)
		}
	}
	return out
}
