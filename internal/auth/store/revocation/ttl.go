package revocation

import (
	"fmt"
	"time"

	"mugs/pkg/platform/sentinel"
	strutil "mugs/pkg/platform/strings"
)

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("revocation ttl must be positive, got %s: %w", ttl, sentinel.ErrInvalidState)
	}
	return nil
}

// batch normalises the token ids of one bulk revocation. Blank and repeated
// ids are dropped; a single upsert may not touch the same jti twice.
func batch(jtis []string, ttl time.Duration) ([]string, error) {
	ids := strutil.DedupeAndTrim(jtis)
	if len(ids) == 0 {
		return nil, nil
	}
	if err := validateTTL(ttl); err != nil {
		return nil, err
	}
	return ids, nil
}
