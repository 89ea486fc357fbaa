package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"mugs/internal/people/models"
	"mugs/internal/store"
	"mugs/pkg/document"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
)

// PropagateIdentityToSiblings copies the identity of person onto the other
// profiles of its user. Role and trade are never copied. Siblings that no
// longer exist are skipped.
func (s *Service) PropagateIdentityToSiblings(ctx context.Context, person *models.Person) error {
	if person.User == nil {
		return nil
	}
	user, err := s.users.GetUser(ctx, *person.User)
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	patch := identityPatch(person.Identity)
	g, gctx := errgroup.WithContext(ctx)
	for kind, siblingID := range user.Profiles {
		if siblingID == person.ID {
			continue
		}
		r, ok := s.repos[kind]
		if !ok {
			continue
		}
		g.Go(func() error {
			_, err := r.UpdateDocument(gctx, store.UpdateRequest{
				ID:            siblingID,
				Data:          patch,
				AllowedFields: id.IdentityFields,
			})
			if dErrors.HasCode(err, dErrors.CodeNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			s.invalidate(gctx, kind, siblingID)
			return nil
		})
	}
	return g.Wait()
}

func identityPatch(identity id.Identity) document.Patch {
	patch := make(document.Patch, len(id.IdentityFields))
	for field, value := range identity.Values() {
		patch[field] = value
	}
	return patch
}
