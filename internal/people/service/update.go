package service

import (
	"context"
	"maps"
	"time"

	"golang.org/x/sync/errgroup"

	"mugs/internal/people/models"
	"mugs/internal/store"
	"mugs/pkg/document"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
	"mugs/pkg/requestcontext"
)

// Update applies an allowlisted patch to a person. The role or trade swap and
// the next of kin and address relinks run concurrently; each produces only
// the reference the person should hold, and the person is written once.
func (s *Service) Update(ctx context.Context, kind id.ProfileKind, personID id.ID, data document.Patch) (_ *models.Person, err error) {
	ctx, span := s.startSpan(ctx, "update", kind)
	defer func() { endSpan(span, err) }()
	defer s.observe("update", time.Now())

	r, err := s.repo(kind)
	if err != nil {
		return nil, err
	}
	model := string(kind)
	allowed := models.UpdateFields(kind)
	if err := data.CheckAllowed(model, allowed); err != nil {
		return nil, err
	}
	in, err := parseInput(kind, data)
	if err != nil {
		return nil, err
	}
	person, err := r.GetDocument(ctx, personID)
	if err != nil {
		return nil, err
	}
	if len(in.fields) > 0 {
		// validation and uniqueness fail here, before any sub-resource moves
		if _, err := r.Preview(ctx, store.UpdateRequest{ID: personID, Data: in.fields, AllowedFields: allowed}); err != nil {
			return nil, err
		}
	}

	owner := person.Owner()
	var refID, kinID, addressID *id.ID
	defer func() {
		if err != nil {
			s.invalidate(ctx, kind, personID)
		}
	}()
	undo := func() {
		cctx := context.WithoutCancel(ctx)
		if in.address != nil {
			s.restore(cctx, s.addresses.Restore(cctx, owner, person.Address, addressID), models.ModelAddress, personID)
		}
		if in.nextOfKin != nil {
			s.restore(cctx, s.kin.Restore(cctx, owner, person.NextOfKin, kinID), models.ModelNextOfKin, personID)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		refID, err = s.UpdateReference(gctx, person, in.reference)
		return err
	})
	if in.nextOfKin != nil {
		g.Go(func() error {
			var err error
			kinID, err = s.kin.AddOrUpdate(gctx, owner, person.NextOfKin, in.nextOfKin)
			return err
		})
	}
	if in.address != nil {
		g.Go(func() error {
			var err error
			addressID, err = s.addresses.AddOrUpdate(gctx, owner, person.Address, in.address)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		undo()
		return nil, dErrors.Reattribute(err, model)
	}

	patch := maps.Clone(in.fields)
	if refID != nil {
		patch[models.ReferenceField(kind)] = *refID
	}
	if kinID != nil && !sameRef(kinID, person.NextOfKin) {
		patch["nextOfKin"] = *kinID
	}
	if addressID != nil && !sameRef(addressID, person.Address) {
		patch["address"] = *addressID
	}

	updated := person
	if len(patch) > 0 {
		updated, err = r.UpdateDocument(ctx, store.UpdateRequest{
			ID:            personID,
			Data:          patch,
			AllowedFields: allowed,
		})
		if err != nil {
			undo()
			return nil, err
		}
	}
	s.invalidate(ctx, kind, personID)

	if updated.User != nil && changesIdentity(in.fields) {
		if err := s.users.MirrorIdentity(ctx, *updated.User, updated.Identity); err != nil {
			return nil, err
		}
		if s.cfg.PropagateToSiblings {
			if err := s.PropagateIdentityToSiblings(ctx, updated); err != nil {
				return nil, err
			}
		}
	}

	s.logAudit(ctx, "person_updated", "model", model, "id", personID.Hex(), "fields", data.Keys())
	return updated, nil
}

// restore logs a failed relink compensation. The person keeps its stored
// references either way.
func (s *Service) restore(ctx context.Context, err error, model string, personID id.ID) {
	if err == nil {
		return
	}
	s.logger.ErrorContext(ctx, "failed to restore sub-resource link",
		"model", model,
		"person", personID.Hex(),
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
}
