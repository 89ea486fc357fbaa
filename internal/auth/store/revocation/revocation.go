// Package revocation keeps the ids of access tokens that were logged out or
// whose user was deleted, until the tokens would have expired anyway.
package revocation

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Clock returns the current time.
type Clock func() time.Time

// InMemoryTRL is a process-local revocation list for tests and single-node runs.
type InMemoryTRL struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	clock   Clock
}

func NewInMemoryTRL() *InMemoryTRL {
	return &InMemoryTRL{revoked: make(map[string]time.Time), clock: time.Now}
}

// WithClock replaces the time source.
func (t *InMemoryTRL) WithClock(clock Clock) *InMemoryTRL {
	if clock != nil {
		t.clock = clock
	}
	return t
}

func (t *InMemoryTRL) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.revoked[jti] = t.clock().Add(ttl)
	return nil
}

func (t *InMemoryTRL) IsRevoked(_ context.Context, jti string) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	expiresAt, ok := t.revoked[jti]
	return ok && t.clock().Before(expiresAt), nil
}

// RevokeTokens revokes every jti with the same TTL.
func (t *InMemoryTRL) RevokeTokens(ctx context.Context, jtis []string, ttl time.Duration) error {
	ids, err := batch(jtis, ttl)
	if err != nil {
		return err
	}
	for _, jti := range ids {
		if err := t.RevokeToken(ctx, jti, ttl); err != nil {
			return err
		}
	}
	return nil
}

// RemoveExpiredAt drops entries that expired before now.
func (t *InMemoryTRL) RemoveExpiredAt(_ context.Context, now time.Time) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	removed := 0
	for jti, expiresAt := range t.revoked {
		if !now.Before(expiresAt) {
			delete(t.revoked, jti)
			removed++
		}
	}
	return removed, nil
}

// StartCleanup removes expired entries every interval until ctx is done.
func (t *InMemoryTRL) StartCleanup(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, _ := t.RemoveExpiredAt(ctx, t.clock()); n > 0 && logger != nil {
				logger.DebugContext(ctx, "expired revocations removed", "count", n)
			}
		}
	}
}
