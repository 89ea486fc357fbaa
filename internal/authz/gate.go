// Package authz decides whether the authenticated principal may reach a route.
//
// The principal is placed in the request context by the auth middleware.
// Authorize checks its role tokens against a Requirement; AuthorizeDelete
// additionally re-resolves the principal's user so a token issued before the
// account was deleted cannot remove anything.
package authz

import (
	"context"
	"log/slog"
	"net/http"

	authmodels "mugs/internal/auth/models"
	"mugs/internal/authz/metrics"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
	"mugs/pkg/platform/httputil"
	"mugs/pkg/requestcontext"
)

// Mode selects how the required roles combine.
type Mode int

const (
	// ModeAny passes when the principal holds at least one required role.
	ModeAny Mode = iota
	// ModeAll passes when the principal holds every required role.
	ModeAll
)

// Requirement describes who may reach a route. With AllowAny every request
// passes, anonymous ones included. Otherwise a principal is needed, and an
// empty Roles list admits any principal.
type Requirement struct {
	Roles    []string
	Mode     Mode
	AllowAny bool
}

// Staff admits managers and admins.
var Staff = Requirement{Roles: []string{"manager", "admin"}, Mode: ModeAny}

// Authenticated admits any principal.
var Authenticated = Requirement{}

const (
	msgNotAuthorized  = "You are not Authorized to access this resource"
	msgAccountDeleted = "You are not Authorized to delete this resource because your user account was deleted"
)

// AccountResolver returns live users.
type AccountResolver interface {
	GetUser(ctx context.Context, userID id.ID) (*authmodels.User, error)
}

// Gate evaluates requirements for the current request.
type Gate struct {
	accounts AccountResolver
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Gate)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gate) {
		g.metrics = m
	}
}

func New(accounts AccountResolver, opts ...Option) *Gate {
	g := &Gate{
		accounts: accounts,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Allows reports whether p satisfies req.
func (r Requirement) Allows(p *requestcontext.AuthPrincipal) bool {
	if r.AllowAny {
		return true
	}
	if p == nil {
		return false
	}
	if len(r.Roles) == 0 {
		return true
	}
	if r.Mode == ModeAll {
		for _, role := range r.Roles {
			if !p.HasRole(role) {
				return false
			}
		}
		return true
	}
	for _, role := range r.Roles {
		if p.HasRole(role) {
			return true
		}
	}
	return false
}

// Authorize fails Unauthorized when the principal in ctx does not satisfy req.
func (g *Gate) Authorize(ctx context.Context, req Requirement) error {
	p := requestcontext.Principal(ctx)
	if !req.Allows(p) {
		g.deny(ctx, "access", p)
		return dErrors.New(dErrors.CodeUnauthorized, msgNotAuthorized)
	}
	g.allow("access")
	return nil
}

// AuthorizeDelete runs Authorize and then resolves the principal's user.
// A user that no longer exists, or is deleted or inactive, is refused.
func (g *Gate) AuthorizeDelete(ctx context.Context, req Requirement) (*authmodels.User, error) {
	if err := g.Authorize(ctx, req); err != nil {
		return nil, err
	}
	p := requestcontext.Principal(ctx)
	if p == nil {
		g.deny(ctx, "delete", p)
		return nil, dErrors.New(dErrors.CodeUnauthorized, msgNotAuthorized)
	}
	user, err := g.accounts.GetUser(ctx, p.UserID)
	if err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
		return nil, err
	}
	if err != nil || !user.IsLive() {
		g.deny(ctx, "delete", p)
		return nil, dErrors.New(dErrors.CodeUnauthorized, msgAccountDeleted)
	}
	g.allow("delete")
	return user, nil
}

func (g *Gate) allow(check string) {
	if g.metrics != nil {
		g.metrics.IncrementAllowed(check)
	}
}

func (g *Gate) deny(ctx context.Context, check string, p *requestcontext.AuthPrincipal) {
	if g.metrics != nil {
		g.metrics.IncrementDenied(check)
	}
	attrs := []any{"check", check, "request_id", requestcontext.RequestID(ctx)}
	if p != nil {
		attrs = append(attrs, "user_id", p.UserID.Hex(), "roles", p.Roles)
	}
	g.logger.WarnContext(ctx, "authorization denied", attrs...)
}

// Require is middleware enforcing req before next runs.
func (g *Gate) Require(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := g.Authorize(r.Context(), req); err != nil {
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type actorKey struct{}

// RequireDelete is middleware enforcing AuthorizeDelete. The resolved user is
// available to the handler through Actor.
func (g *Gate) RequireDelete(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := g.AuthorizeDelete(r.Context(), req)
			if err != nil {
				httputil.WriteError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), actorKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Actor returns the user resolved by RequireDelete, or nil.
func Actor(ctx context.Context) *authmodels.User {
	if u, ok := ctx.Value(actorKey{}).(*authmodels.User); ok {
		return u
	}
	return nil
}
