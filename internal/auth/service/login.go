package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"mugs/internal/auth/models"
	"mugs/internal/store"
	dErrors "mugs/pkg/domain-errors"
	"mugs/pkg/platform/sentinel"
	"mugs/pkg/requestcontext"
)

// LoginRequest authenticates by national id or phone number.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

var errInvalidCredentials = dErrors.New(dErrors.CodeUnauthorized, "Invalid credentials")

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "username and password are required")
	}

	user, err := s.findByUsername(ctx, username)
	if errors.Is(err, sentinel.ErrNotFound) {
		s.authFailure(ctx, "unknown_user")
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, s.users.Translate(err)
	}
	if !user.IsLive() {
		s.authFailure(ctx, "inactive_user", "user_id", user.ID.Hex())
		return nil, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.authFailure(ctx, "wrong_password", "user_id", user.ID.Hex())
		return nil, errInvalidCredentials
	}

	issued, err := s.tokens.GenerateAccessToken(user.ID, user.NationalID, user.Roles(), s.cfg.TokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	user, err = s.users.Modify(ctx, user.ID, func(u *models.User) error {
		u.AddToken(issued.JTI)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementLogins("success")
	}
	s.logAudit(ctx, "user_logged_in", "user_id", user.ID.Hex())
	return &LoginResult{Token: issued.Token, ExpiresAt: issued.ExpiresAt, User: user}, nil
}

func (s *Service) findByUsername(ctx context.Context, username string) (*models.User, error) {
	coll := s.users.Collection()
	user, err := coll.FindOne(ctx, store.Eq{Field: "nationalId", Value: strings.ToUpper(username)})
	if errors.Is(err, sentinel.ErrNotFound) {
		return coll.FindOne(ctx, store.Eq{Field: "phoneNumber", Value: username})
	}
	return user, err
}

// Logout drops the caller's token from the user and revokes it for the rest
// of its lifetime.
func (s *Service) Logout(ctx context.Context, principal *requestcontext.AuthPrincipal) error {
	if principal == nil {
		return dErrors.New(dErrors.CodeUnauthorized, "You must be logged in")
	}
	_, err := s.users.Modify(ctx, principal.UserID, func(u *models.User) error {
		u.RemoveToken(principal.TokenID)
		return nil
	})
	if err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
		return err
	}

	if ttl := principal.ExpiresAt.Sub(requestcontext.Now(ctx)); ttl > 0 {
		if err := s.revocations.RevokeToken(ctx, principal.TokenID, ttl); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to add token to revocation list")
		}
	}
	s.logAudit(ctx, "user_logged_out", "user_id", principal.UserID.Hex())
	return nil
}
