package service

import (
	"context"

	"mugs/internal/auth/models"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
	"mugs/pkg/requestcontext"
)

// DeleteUser soft-deletes the user on behalf of actor and revokes every token
// it was issued. Its profiles are left in place.
func (s *Service) DeleteUser(ctx context.Context, userID id.ID, actor *models.User) error {
	if userID.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "user ID required")
	}
	if !actor.IsLive() {
		return dErrors.New(dErrors.CodeUnauthorized, "You must be logged in to delete")
	}

	now := requestcontext.Now(ctx)
	var dropped []string
	_, err := s.users.Modify(ctx, userID, func(u *models.User) error {
		dropped = append(dropped, u.Tokens...)
		u.SoftDelete(&actor.ID, now)
		return nil
	})
	if err != nil {
		return err
	}
	s.revokeAll(ctx, userID, dropped)

	if s.metrics != nil {
		s.metrics.IncrementUsersDeleted()
	}
	s.logAudit(ctx, "user_deleted",
		"user_id", userID.Hex(),
		"tokens_revoked", len(dropped),
	)
	return nil
}
