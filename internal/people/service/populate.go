package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	lookupmodels "mugs/internal/lookup/models"
	"mugs/internal/people/models"
	"mugs/pkg/document"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
)

// shape selects the relations render replaces with their documents.
type shape struct {
	relations bool // address, nextOfKin with its address, role or trade
	audit     bool // createdBy, modifiedBy
	user      bool // user
	profiles  bool // user.profiles, each rendered with siblingShape
}

var (
	flatShape    = shape{}
	depthShape   = shape{relations: true, user: true}
	siblingShape = shape{relations: true, audit: true}
	archiveShape = shape{relations: true, audit: true, user: true, profiles: true}
)

// shapeForDepth maps the populate depth of a read to a shape.
func shapeForDepth(depth int) (shape, error) {
	switch depth {
	case 0:
		return flatShape, nil
	case 1:
		return depthShape, nil
	}
	return shape{}, dErrors.Field(dErrors.CodeBadRequest, "", "depth", depth, "", "depth must be 0 or 1")
}

// render returns the JSON view of p with the relations of sh populated.
// References that no longer resolve are left as ids.
func (s *Service) render(ctx context.Context, p *models.Person, sh shape) (map[string]any, error) {
	view, err := document.ToMap(p)
	if err != nil {
		return nil, err
	}
	if sh == flatShape {
		return view, nil
	}

	var address, kin, ref, createdBy, modifiedBy, user map[string]any
	g, gctx := errgroup.WithContext(ctx)
	if sh.relations {
		if p.Address != nil {
			g.Go(func() error {
				var err error
				address, err = s.renderAddress(gctx, *p.Address)
				return err
			})
		}
		if p.NextOfKin != nil {
			g.Go(func() error {
				var err error
				kin, err = s.renderKin(gctx, *p.NextOfKin)
				return err
			})
		}
		if r := p.Reference(); r != nil {
			g.Go(func() error {
				l, err := s.lookups.Get(gctx, lookupmodels.LookupFor(p.Kind), *r)
				if err != nil {
					return notFoundIsNil(err)
				}
				ref, err = document.ToMap(l)
				return err
			})
		}
	}
	if sh.audit {
		if p.CreatedBy != nil {
			g.Go(func() error {
				var err error
				createdBy, err = s.renderUser(gctx, *p.CreatedBy, flatShape)
				return err
			})
		}
		if p.ModifiedBy != nil {
			g.Go(func() error {
				var err error
				modifiedBy, err = s.renderUser(gctx, *p.ModifiedBy, flatShape)
				return err
			})
		}
	}
	if sh.user && p.User != nil {
		g.Go(func() error {
			var err error
			user, err = s.renderUser(gctx, *p.User, sh)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	setIfPresent(view, "address", address)
	setIfPresent(view, "nextOfKin", kin)
	setIfPresent(view, models.ReferenceField(p.Kind), ref)
	setIfPresent(view, "createdBy", createdBy)
	setIfPresent(view, "modifiedBy", modifiedBy)
	setIfPresent(view, "user", user)
	return view, nil
}

func (s *Service) renderAddress(ctx context.Context, addressID id.ID) (map[string]any, error) {
	addr, err := s.addresses.Get(ctx, addressID)
	if err != nil {
		return nil, notFoundIsNil(err)
	}
	return document.ToMap(addr)
}

func (s *Service) renderKin(ctx context.Context, kinID id.ID) (map[string]any, error) {
	kin, err := s.kin.Get(ctx, kinID)
	if err != nil {
		return nil, notFoundIsNil(err)
	}
	view, err := document.ToMap(kin)
	if err != nil {
		return nil, err
	}
	if kin.Address != nil {
		address, err := s.renderAddress(ctx, *kin.Address)
		if err != nil {
			return nil, err
		}
		setIfPresent(view, "address", address)
	}
	return view, nil
}

// renderUser renders a user; with sh.profiles its profiles are populated too.
func (s *Service) renderUser(ctx context.Context, userID id.ID, sh shape) (map[string]any, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, notFoundIsNil(err)
	}
	view, err := document.ToMap(user)
	if err != nil {
		return nil, err
	}
	if !sh.profiles || len(user.Profiles) == 0 {
		return view, nil
	}

	profiles := make(map[string]any, len(user.Profiles))
	for kind, profileID := range user.Profiles {
		r, ok := s.repos[kind]
		if !ok {
			continue
		}
		profile, err := r.GetDocument(ctx, profileID)
		if err != nil {
			if notFoundIsNil(err) != nil {
				return nil, err
			}
			continue
		}
		rendered, err := s.render(ctx, profile, siblingShape)
		if err != nil {
			return nil, err
		}
		profiles[kind.Key()] = rendered
	}
	view["profiles"] = profiles
	return view, nil
}

func setIfPresent(view map[string]any, key string, value map[string]any) {
	if value != nil {
		view[key] = value
	}
}

func notFoundIsNil(err error) error {
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return nil
	}
	return err
}
