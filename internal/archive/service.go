package archive

import (
	"context"
	"errors"
	"log/slog"

	archivemetrics "mugs/internal/archive/metrics"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
	"mugs/pkg/platform/sentinel"
	"mugs/pkg/requestcontext"
)

// Store is an append-only record log.
type Store interface {
	Append(ctx context.Context, rec *Record) error
	FindByID(ctx context.Context, recordID id.ID) (*Record, error)
	List(ctx context.Context, q Query) ([]*Record, error)
	CountByActor(ctx context.Context, actorID id.ID, target Target, models []string) (int, error)
}

type Service struct {
	records Store
	logger  *slog.Logger
	metrics *archivemetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *archivemetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(records Store, opts ...Option) *Service {
	s := &Service{records: records, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Archive writes one record for the document and only then removes the live
// copy. A document is never removed without its record having been appended.
func (s *Service) Archive(ctx context.Context, req Request) (*Record, error) {
	if !req.Actor.IsLive() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "You must be logged in to delete")
	}
	if !req.Target.IsValid() {
		return nil, dErrors.New(dErrors.CodeInternal, "archive target must be DeletedPerson or DeletedObject")
	}
	if req.Snapshot == nil || req.Remove == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "archive request is missing snapshot or removal")
	}

	snapshot, err := req.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	deleted := SanitizeDocument(snapshot)
	deleted[ModelKey] = req.Model

	actor, err := SanitizeActor(req.Actor)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to snapshot actor")
	}

	rec := &Record{
		ID:          id.NewID(),
		Target:      req.Target,
		Model:       req.Model,
		SourceID:    req.ID,
		DeletedByID: req.Actor.ID,
		DeletedBy:   actor,
		DeletedAt:   requestcontext.Now(ctx),
		Deleted:     deleted,
	}
	if err := s.records.Append(ctx, rec); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to write archive record")
	}

	if err := req.Remove(ctx); err != nil {
		if s.metrics != nil {
			s.metrics.IncrementRemovalFailed()
		}
		s.logger.ErrorContext(ctx, "archived document but live removal failed",
			"model", req.Model,
			"id", req.ID.Hex(),
			"record_id", rec.ID.Hex(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		if _, ok := dErrors.As(err); ok {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove archived document")
	}

	s.logAudit(ctx, "document_archived",
		"target", string(req.Target),
		"model", req.Model,
		"id", req.ID.Hex(),
		"record_id", rec.ID.Hex(),
		"actor_id", req.Actor.ID.Hex(),
	)
	if s.metrics != nil {
		s.metrics.IncrementRecordsWritten(string(req.Target), req.Model)
	}
	return rec, nil
}

func (s *Service) Get(ctx context.Context, recordID id.ID) (*Record, error) {
	rec, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Missing("DeletedObject", "_id", recordID.Hex())
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load archive record")
	}
	return rec, nil
}

func (s *Service) List(ctx context.Context, q Query) ([]*Record, error) {
	if q.Target != "" && !q.Target.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown archive target")
	}
	recs, err := s.records.List(ctx, q)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list archive records")
	}
	return recs, nil
}

// CountByActor counts deletions the actor performed on the given models.
func (s *Service) CountByActor(ctx context.Context, actorID id.ID, target Target, models []string) (int, error) {
	n, err := s.records.CountByActor(ctx, actorID, target, models)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count archive records")
	}
	return n, nil
}

func (s *Service) logAudit(ctx context.Context, event string, attrs ...any) {
	args := append(attrs, "event", event, "request_id", requestcontext.RequestID(ctx))
	s.logger.InfoContext(ctx, event, args...)
}
