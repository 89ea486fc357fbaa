package revocation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS token_revocations (
	jti        TEXT PRIMARY KEY,
	expires_at TIMESTAMPTZ NOT NULL
)`

// PostgresTRL persists revoked token ids next to the archive table.
type PostgresTRL struct {
	db    *sql.DB
	clock Clock
}

func NewPostgresTRL(db *sql.DB) *PostgresTRL {
	return &PostgresTRL{db: db, clock: time.Now}
}

func (t *PostgresTRL) EnsureSchema(ctx context.Context) error {
	if _, err := t.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create token_revocations: %w", err)
	}
	return nil
}

func (t *PostgresTRL) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	query := `
		INSERT INTO token_revocations (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO UPDATE SET
			expires_at = EXCLUDED.expires_at
	`
	if _, err := t.db.ExecContext(ctx, query, jti, t.clock().Add(ttl)); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (t *PostgresTRL) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var expiresAt time.Time
	err := t.db.QueryRowContext(ctx, `SELECT expires_at FROM token_revocations WHERE jti = $1`, jti).Scan(&expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check token revocation: %w", err)
	}
	return t.clock().Before(expiresAt), nil
}

// RevokeTokens inserts every jti in one statement.
func (t *PostgresTRL) RevokeTokens(ctx context.Context, jtis []string, ttl time.Duration) error {
	valid, err := batch(jtis, ttl)
	if err != nil || len(valid) == 0 {
		return err
	}
	query := `
		INSERT INTO token_revocations (jti, expires_at)
		SELECT unnest($1::text[]), $2
		ON CONFLICT (jti) DO UPDATE SET
			expires_at = EXCLUDED.expires_at
	`
	if _, err := t.db.ExecContext(ctx, query, pq.Array(valid), t.clock().Add(ttl)); err != nil {
		return fmt.Errorf("revoke tokens batch: %w", err)
	}
	return nil
}

// RemoveExpiredAt deletes rows that expired before now.
func (t *PostgresTRL) RemoveExpiredAt(ctx context.Context, now time.Time) (int, error) {
	res, err := t.db.ExecContext(ctx, `DELETE FROM token_revocations WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("remove expired revocations: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}
