package service

import (
	"context"
	"errors"
	"strings"

	"mugs/internal/auth/models"
	"mugs/internal/store"
	"mugs/pkg/document"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
	"mugs/pkg/platform/sentinel"
	"mugs/pkg/requestcontext"
)

// UserFilterFields are the flags ListUsers and CountUsers filter on.
var UserFilterFields = []string{"isActive", "isDeleted", "isAdmin", "isManager", "isStudent", "isTrainingOfficer"}

// ListUsers returns every user matching filters, soft-deleted ones included.
func (s *Service) ListUsers(ctx context.Context, filters ...store.Eq) ([]*models.User, error) {
	users, err := s.users.Collection().Find(ctx, filters...)
	if err != nil {
		return nil, s.users.Translate(err)
	}
	return users, nil
}

// CountUsers counts the users matching filters.
func (s *Service) CountUsers(ctx context.Context, filters ...store.Eq) (int, error) {
	n, err := s.users.Collection().Count(ctx, filters...)
	if err != nil {
		return 0, s.users.Translate(err)
	}
	return n, nil
}

// GetUser returns the live user or NotFound.
func (s *Service) GetUser(ctx context.Context, userID id.ID) (*models.User, error) {
	return s.users.GetDocument(ctx, userID)
}

// FindByNationalID returns the live user registered under nationalID.
func (s *Service) FindByNationalID(ctx context.Context, nationalID string) (*models.User, error) {
	nationalID = strings.ToUpper(strings.TrimSpace(nationalID))
	user, err := s.users.Collection().FindOne(ctx, store.Eq{Field: "nationalId", Value: nationalID})
	if errors.Is(err, sentinel.ErrNotFound) || (err == nil && !user.IsLive()) {
		return nil, dErrors.Missing(models.ModelUser, "nationalId", nationalID)
	}
	if err != nil {
		return nil, s.users.Translate(err)
	}
	return user, nil
}

func (s *Service) LinkProfile(ctx context.Context, userID id.ID, kind id.ProfileKind, profileID id.ID) error {
	_, err := s.users.Modify(ctx, userID, func(u *models.User) error {
		u.LinkProfile(kind, profileID)
		return nil
	})
	if err != nil {
		return err
	}
	s.logAudit(ctx, "profile_linked",
		"user_id", userID.Hex(),
		"kind", string(kind),
		"profile_id", profileID.Hex(),
	)
	return nil
}

// UnlinkProfile drops the profile of kind from the user. A user left without
// profiles is soft-deleted by actor and its tokens are revoked.
func (s *Service) UnlinkProfile(ctx context.Context, userID id.ID, kind id.ProfileKind, actor *models.User) error {
	var actorID *id.ID
	if actor != nil {
		actorID = &actor.ID
	}
	now := requestcontext.Now(ctx)
	var dropped []string
	user, err := s.users.Modify(ctx, userID, func(u *models.User) error {
		u.UnlinkProfile(kind)
		if !u.HasProfiles() {
			dropped = append(dropped, u.Tokens...)
			u.SoftDelete(actorID, now)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logAudit(ctx, "profile_unlinked", "user_id", userID.Hex(), "kind", string(kind))

	if user.IsDeleted {
		s.revokeAll(ctx, userID, dropped)
		if s.metrics != nil {
			s.metrics.IncrementUsersDeleted()
		}
		s.logAudit(ctx, "user_deleted", "user_id", userID.Hex(), "reason", "last_profile_removed")
	}
	return nil
}

// MirrorIdentity copies a profile's identity onto its user.
func (s *Service) MirrorIdentity(ctx context.Context, userID id.ID, identity id.Identity) error {
	patch := make(document.Patch, len(id.IdentityFields))
	for field, value := range identity.Values() {
		patch[field] = value
	}
	_, err := s.users.UpdateDocument(ctx, store.UpdateRequest{
		ID:            userID,
		Data:          patch,
		AllowedFields: id.IdentityFields,
	})
	return err
}
