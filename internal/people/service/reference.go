package service

import (
	"context"

	lookupmodels "mugs/internal/lookup/models"
	"mugs/internal/people/models"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
)

// UpdateReference resolves a role or trade change for person. It returns the
// reference to set, or nil when raw is empty or names the current reference.
// It never creates a Role or Trade.
func (s *Service) UpdateReference(ctx context.Context, person *models.Person, raw string) (*id.ID, error) {
	if raw == "" || id.SameID(person.Reference(), raw) {
		return nil, nil
	}
	lookupKind := lookupmodels.LookupFor(person.Kind)
	refID, err := id.ParseID(raw)
	if err != nil {
		return nil, dErrors.WithDefaultEntity(err, string(lookupKind))
	}
	if _, err := s.lookups.Get(ctx, lookupKind, refID); err != nil {
		return nil, err
	}
	return &refID, nil
}
