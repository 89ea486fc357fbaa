// Package service runs the person lifecycle: creation with sub-resources and
// user linking, allowlisted updates with concurrent relinks and identity
// mirroring, and archival with ownership cascades.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mugs/internal/archive"
	authmodels "mugs/internal/auth/models"
	"mugs/internal/cache"
	lookupmodels "mugs/internal/lookup/models"
	peoplemetrics "mugs/internal/people/metrics"
	"mugs/internal/people/models"
	"mugs/internal/people/ownership"
	"mugs/internal/store"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
	"mugs/pkg/requestcontext"
)

// Lookups resolves the Role and Trade references of profiles.
type Lookups interface {
	Get(ctx context.Context, kind lookupmodels.Kind, lookupID id.ID) (*lookupmodels.Lookup, error)
}

// UserAccounts is the user side of the profile link.
type UserAccounts interface {
	// FindByNationalID returns the user registered under nationalID, or NotFound.
	FindByNationalID(ctx context.Context, nationalID string) (*authmodels.User, error)
	GetUser(ctx context.Context, userID id.ID) (*authmodels.User, error)
	LinkProfile(ctx context.Context, userID id.ID, kind id.ProfileKind, profileID id.ID) error
	// UnlinkProfile soft-deletes the user once its last profile is gone.
	UnlinkProfile(ctx context.Context, userID id.ID, kind id.ProfileKind, actor *authmodels.User) error
	MirrorIdentity(ctx context.Context, userID id.ID, identity id.Identity) error
}

// Config is the lifecycle configuration.
type Config struct {
	// Kinds are the profile kinds this service manages.
	Kinds []id.ProfileKind
	// PropagateToSiblings mirrors identity updates onto the other profiles of
	// the same user.
	PropagateToSiblings bool
	// ArchiveTarget receives deleted profiles.
	ArchiveTarget archive.Target
	// ViewTTL bounds how long populated views are cached.
	ViewTTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		Kinds:               id.ProfileKinds,
		PropagateToSiblings: true,
		ArchiveTarget:       archive.TargetPerson,
		ViewTTL:             5 * time.Minute,
	}
}

type Service struct {
	cfg       Config
	repos     map[id.ProfileKind]*store.Repository[*models.Person]
	addresses *ownership.Resolver[*models.Address]
	kin       *ownership.Resolver[*models.NextOfKin]
	lookups   Lookups
	users     UserAccounts
	views     cache.Views
	logger    *slog.Logger
	metrics   *peoplemetrics.Metrics
	tracer    trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *peoplemetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithViewCache(views cache.Views) Option {
	return func(s *Service) {
		s.views = views
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func New(
	cfg Config,
	repos map[id.ProfileKind]*store.Repository[*models.Person],
	addresses *ownership.Resolver[*models.Address],
	kin *ownership.Resolver[*models.NextOfKin],
	lookups Lookups,
	users UserAccounts,
	opts ...Option,
) *Service {
	s := &Service{
		cfg:       cfg,
		repos:     repos,
		addresses: addresses,
		kin:       kin,
		lookups:   lookups,
		users:     users,
		views:     cache.Nop{},
		logger:    slog.Default(),
		tracer:    otel.Tracer("mugs/people"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Kinds lists the managed profile kinds.
func (s *Service) Kinds() []id.ProfileKind { return s.cfg.Kinds }

func (s *Service) repo(kind id.ProfileKind) (*store.Repository[*models.Person], error) {
	r, ok := s.repos[kind]
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown profile kind "+string(kind))
	}
	return r, nil
}

// Collection exposes the store of one kind to collaborators that count or
// re-point profiles.
func (s *Service) Collection(kind id.ProfileKind) (store.Collection[*models.Person], error) {
	r, err := s.repo(kind)
	if err != nil {
		return nil, err
	}
	return r.Collection(), nil
}

func (s *Service) startSpan(ctx context.Context, op string, kind id.ProfileKind) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "people."+op, trace.WithAttributes(
		attribute.String("profile.kind", string(kind)),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Service) observe(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(op, start)
	}
}

func (s *Service) invalidate(ctx context.Context, kind id.ProfileKind, personID id.ID) {
	if err := s.views.Invalidate(ctx, string(kind), personID); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate cached view",
			"model", string(kind),
			"id", personID.Hex(),
			"error", err,
		)
	}
}

func (s *Service) logAudit(ctx context.Context, event string, attrs ...any) {
	args := append(attrs, "event", event, "request_id", requestcontext.RequestID(ctx))
	if userID := requestcontext.UserID(ctx); userID != nil {
		args = append(args, "actor_id", userID.Hex())
	}
	s.logger.InfoContext(ctx, event, args...)
}
