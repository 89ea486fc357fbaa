// Package service owns user accounts: registration against existing person
// profiles, password login with revocable tokens, soft deletion, the profile
// links kept in step with the person lifecycle, and activity counts.
package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"mugs/internal/archive"
	"mugs/internal/auth/models"
	jwttoken "mugs/internal/jwt_token"
	lookupmodels "mugs/internal/lookup/models"
	peoplemodels "mugs/internal/people/models"
	"mugs/internal/platform/metrics"
	"mugs/internal/store"
	id "mugs/pkg/domain"
	"mugs/pkg/requestcontext"
)

// Profiles is the person side of registration.
type Profiles interface {
	// FindByNationalID returns every live profile carrying nationalID, in
	// profile kind order.
	FindByNationalID(ctx context.Context, nationalID string) ([]*peoplemodels.Person, error)
	// GetProfile returns the live profile of kind with profileID.
	GetProfile(ctx context.Context, kind id.ProfileKind, profileID id.ID) (*peoplemodels.Person, error)
	SetUser(ctx context.Context, kind id.ProfileKind, profileID id.ID, userID id.ID) error
}

type TokenIssuer interface {
	GenerateAccessToken(userID id.ID, nationalID string, roles []string, expiresIn time.Duration) (*jwttoken.IssuedToken, error)
}

// RegistrationTokens issues and checks the tokens carried between the
// registration steps.
type RegistrationTokens interface {
	GenerateRegistrationToken(sub jwttoken.RegistrationSubject, verified bool, expiresIn time.Duration) (*jwttoken.IssuedToken, error)
	ValidateRegistrationToken(token string) (*jwttoken.RegistrationClaims, error)
}

// RevocationList records token ids that must be refused until they expire.
type RevocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	RevokeTokens(ctx context.Context, jtis []string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// ArchiveCounter counts archive records written by one actor.
type ArchiveCounter interface {
	CountByActor(ctx context.Context, actorID id.ID, target archive.Target, models []string) (int, error)
}

// Counter counts the documents of one model. Store collections implement it.
type Counter interface {
	Model() string
	Count(ctx context.Context, filters ...store.Eq) (int, error)
}

type Config struct {
	TokenTTL time.Duration
	// RegistrationTTL bounds each step of the registration flow.
	RegistrationTTL time.Duration
	BcryptCost      int
	// Bins groups models for CountActions.
	Bins models.Bins
}

func DefaultConfig() Config {
	people := make([]string, 0, len(id.ProfileKinds))
	for _, kind := range id.ProfileKinds {
		people = append(people, string(kind))
	}
	return Config{
		TokenTTL:        24 * time.Hour,
		RegistrationTTL: 15 * time.Minute,
		BcryptCost:      bcrypt.DefaultCost,
		Bins: models.Bins{
			People: people,
			Other:  []string{string(lookupmodels.KindRole), string(lookupmodels.KindTrade)},
		},
	}
}

type Service struct {
	cfg           Config
	users         *store.Repository[*models.User]
	profiles      Profiles
	tokens        TokenIssuer
	registrations RegistrationTokens
	revocations   RevocationList
	archive       ArchiveCounter
	counters      map[string]Counter
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithActivity enables CountActions over the archive and the given collections.
func WithActivity(archive ArchiveCounter, counters ...Counter) Option {
	return func(s *Service) {
		s.archive = archive
		for _, c := range counters {
			s.counters[c.Model()] = c
		}
	}
}

func New(
	cfg Config,
	users *store.Repository[*models.User],
	profiles Profiles,
	tokens TokenIssuer,
	registrations RegistrationTokens,
	revocations RevocationList,
	opts ...Option,
) *Service {
	s := &Service{
		cfg:           cfg,
		users:         users,
		profiles:      profiles,
		tokens:        tokens,
		registrations: registrations,
		revocations:   revocations,
		counters:      map[string]Counter{models.ModelUser: users.Collection()},
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// revokeAll puts every listed token on the revocation list. Failures are
// logged; the tokens are already dropped from the user.
func (s *Service) revokeAll(ctx context.Context, userID id.ID, jtis []string) {
	if len(jtis) == 0 {
		return
	}
	if err := s.revocations.RevokeTokens(ctx, jtis, s.cfg.TokenTTL); err != nil {
		s.logger.ErrorContext(ctx, "failed to add tokens to revocation list",
			"error", err,
			"user_id", userID.Hex(),
			"request_id", requestcontext.RequestID(ctx),
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

// authFailure logs a rejected credential check at warn level.
func (s *Service) authFailure(ctx context.Context, reason string, attrs ...any) {
	args := append(attrs, "reason", reason, "request_id", requestcontext.RequestID(ctx))
	s.logger.WarnContext(ctx, "authentication failed", args...)
	if s.metrics != nil {
		s.metrics.IncrementLogins("failure")
	}
}
