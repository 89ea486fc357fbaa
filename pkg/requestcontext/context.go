// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// This package defines context keys and getter/setter functions for values that are
// typically set by middleware but consumed by services. By keeping this package free
// of net/http dependencies, services can import only what they need.
//
// Usage in services (read values):
//
//	principal := requestcontext.Principal(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithPrincipal(ctx, &requestcontext.AuthPrincipal{UserID: id})
package requestcontext

import (
	"context"
	"slices"
	"time"

	id "mugs/pkg/domain"
)

type (
	principalKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

var (
	ContextKeyPrincipal   = principalKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// -----------------------------------------------------------------------------
// Auth context
// -----------------------------------------------------------------------------

// AuthPrincipal is the authenticated caller as described by a validated token.
type AuthPrincipal struct {
	UserID     id.ID
	NationalID string
	Roles      []string
	TokenID    string
	ExpiresAt  time.Time
}

// HasRole reports whether the principal carries the role token.
func (p *AuthPrincipal) HasRole(role string) bool {
	return p != nil && slices.Contains(p.Roles, role)
}

// Principal retrieves the authenticated principal. Returns nil for anonymous requests.
func Principal(ctx context.Context) *AuthPrincipal {
	if p, ok := ctx.Value(ContextKeyPrincipal).(*AuthPrincipal); ok {
		return p
	}
	return nil
}

func WithPrincipal(ctx context.Context, p *AuthPrincipal) context.Context {
	return context.WithValue(ctx, ContextKeyPrincipal, p)
}

// UserID returns the principal's user id, or nil when anonymous.
func UserID(ctx context.Context) *id.ID {
	if p := Principal(ctx); p != nil && !p.UserID.IsZero() {
		uid := p.UserID
		return &uid
	}
	return nil
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// -----------------------------------------------------------------------------
// Request time
// -----------------------------------------------------------------------------

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (for workers and tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
