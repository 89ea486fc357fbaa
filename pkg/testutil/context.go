package testutil

import (
	"net/http"

	id "mugs/pkg/domain"
	"mugs/pkg/requestcontext"
)

// WithPrincipal places an authenticated principal on the request, as the auth
// middleware would after validating a token.
func WithPrincipal(req *http.Request, userID id.ID, roles ...string) *http.Request {
	p := &requestcontext.AuthPrincipal{UserID: userID, Roles: roles, TokenID: "test-jti"}
	return req.WithContext(requestcontext.WithPrincipal(req.Context(), p))
}

// WithRequestID tags the request with a fixed request id.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
