package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"mugs/internal/archive"
	id "mugs/pkg/domain"
	"mugs/pkg/platform/sentinel"
)

// Schema creates the archive table. Records are append-only: there is no
// UPDATE or DELETE path in this store.
const Schema = `
CREATE TABLE IF NOT EXISTS archive_records (
	id            TEXT PRIMARY KEY,
	target        TEXT NOT NULL,
	model         TEXT NOT NULL,
	source_id     TEXT NOT NULL,
	deleted_by_id TEXT NOT NULL,
	deleted_by    JSONB NOT NULL,
	deleted_at    TIMESTAMPTZ NOT NULL,
	deleted       JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS archive_records_actor_idx ON archive_records (deleted_by_id, target, model);
`

const uniqueViolation = "23505"

// Postgres persists archive records with JSONB payloads.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema applies Schema.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure archive schema: %w", err)
	}
	return nil
}

func (s *Postgres) Append(ctx context.Context, rec *archive.Record) error {
	deletedBy, err := json.Marshal(rec.DeletedBy)
	if err != nil {
		return fmt.Errorf("encode deleted_by: %w", err)
	}
	deleted, err := json.Marshal(rec.Deleted)
	if err != nil {
		return fmt.Errorf("encode deleted: %w", err)
	}
	query := `
		INSERT INTO archive_records (id, target, model, source_id, deleted_by_id, deleted_by, deleted_at, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.db.ExecContext(ctx, query,
		rec.ID.Hex(), string(rec.Target), rec.Model, rec.SourceID.Hex(),
		rec.DeletedByID.Hex(), string(deletedBy), rec.DeletedAt, string(deleted),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("append archive record: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, recordID id.ID) (*archive.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, target, model, source_id, deleted_by_id, deleted_by, deleted_at, deleted
		FROM archive_records WHERE id = $1
	`, recordID.Hex())
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return rec, err
}

func (s *Postgres) List(ctx context.Context, q archive.Query) ([]*archive.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, target, model, source_id, deleted_by_id, deleted_by, deleted_at, deleted
		FROM archive_records
		WHERE ($1 = '' OR target = $1) AND ($2 = '' OR model = $2)
		ORDER BY deleted_at, id
	`, string(q.Target), q.Model)
	if err != nil {
		return nil, fmt.Errorf("list archive records: %w", err)
	}
	defer rows.Close()

	out := make([]*archive.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Postgres) CountByActor(ctx context.Context, actorID id.ID, target archive.Target, models []string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM archive_records
		WHERE deleted_by_id = $1 AND target = $2 AND model = ANY($3)
	`, actorID.Hex(), string(target), pq.Array(models)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count archive records: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*archive.Record, error) {
	var (
		rec                              archive.Record
		recID, sourceID, actorID, target string
		deletedBy, deleted               []byte
	)
	if err := row.Scan(&recID, &target, &rec.Model, &sourceID, &actorID, &deletedBy, &rec.DeletedAt, &deleted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan archive record: %w", err)
	}
	rec.Target = archive.Target(target)
	var err error
	if rec.ID, err = id.ParseID(recID); err != nil {
		return nil, fmt.Errorf("archive record id: %w", err)
	}
	if rec.SourceID, err = id.ParseID(sourceID); err != nil {
		return nil, fmt.Errorf("archive source id: %w", err)
	}
	if rec.DeletedByID, err = id.ParseID(actorID); err != nil {
		return nil, fmt.Errorf("archive actor id: %w", err)
	}
	if err := json.Unmarshal(deletedBy, &rec.DeletedBy); err != nil {
		return nil, fmt.Errorf("decode deleted_by: %w", err)
	}
	if err := json.Unmarshal(deleted, &rec.Deleted); err != nil {
		return nil, fmt.Errorf("decode deleted: %w", err)
	}
	return &rec, nil
}
