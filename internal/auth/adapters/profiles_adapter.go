package adapters

import (
	"context"
	"errors"
	"strings"

	"mugs/internal/people/models"
	"mugs/internal/store"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
	"mugs/pkg/platform/sentinel"
)

// PeopleProfiles adapts the person repositories to auth's Profiles port. It
// works on the repositories rather than the people service, which itself
// depends on auth.
type PeopleProfiles struct {
	repos map[id.ProfileKind]*store.Repository[*models.Person]
}

func NewPeopleProfiles(repos map[id.ProfileKind]*store.Repository[*models.Person]) *PeopleProfiles {
	return &PeopleProfiles{repos: repos}
}

// FindByNationalID returns the profiles of every kind carrying nationalID.
func (a *PeopleProfiles) FindByNationalID(ctx context.Context, nationalID string) ([]*models.Person, error) {
	nationalID = strings.ToUpper(strings.TrimSpace(nationalID))
	var out []*models.Person
	for _, kind := range id.ProfileKinds {
		r, ok := a.repos[kind]
		if !ok {
			continue
		}
		p, err := r.Collection().FindOne(ctx, store.Eq{Field: "nationalId", Value: nationalID})
		if errors.Is(err, sentinel.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, r.Translate(err)
		}
		out = append(out, p)
	}
	return out, nil
}

// GetProfile returns the live profile, NotFound when it is gone.
func (a *PeopleProfiles) GetProfile(ctx context.Context, kind id.ProfileKind, profileID id.ID) (*models.Person, error) {
	r, ok := a.repos[kind]
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown profile kind "+string(kind))
	}
	return r.GetDocument(ctx, profileID)
}

// SetUser points the profile at its user.
func (a *PeopleProfiles) SetUser(ctx context.Context, kind id.ProfileKind, profileID id.ID, userID id.ID) error {
	r, ok := a.repos[kind]
	if !ok {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown profile kind "+string(kind))
	}
	_, err := r.Modify(ctx, profileID, func(p *models.Person) error {
		p.User = &userID
		return nil
	})
	return err
}
