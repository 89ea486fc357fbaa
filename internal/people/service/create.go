package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	lookupmodels "mugs/internal/lookup/models"
	"mugs/internal/people/models"
	"mugs/internal/people/ownership"
	"mugs/pkg/document"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
)

// Create validates the profile, creates its sub-resources, stores it and
// links it to an already registered user with the same national id.
//
// Sub-resources are created without owners and attached once the person is
// stored. If storing the person fails they stay ownerless and the orphan
// sweep reclaims them.
func (s *Service) Create(ctx context.Context, kind id.ProfileKind, data document.Patch) (_ *models.Person, err error) {
	ctx, span := s.startSpan(ctx, "create", kind)
	defer func() { endSpan(span, err) }()
	defer s.observe("create", time.Now())

	r, err := s.repo(kind)
	if err != nil {
		return nil, err
	}
	model := string(kind)
	data, err = creationData(kind, data)
	if err != nil {
		return nil, err
	}
	in, err := parseInput(kind, data)
	if err != nil {
		return nil, err
	}

	person := r.Collection().Schema().New()
	if err := in.fields.Apply(model, person); err != nil {
		return nil, err
	}
	lookupKind := lookupmodels.LookupFor(kind)
	if in.reference != "" {
		refID, err := id.ParseID(in.reference)
		if err != nil {
			return nil, dErrors.Reattribute(dErrors.WithDefaultEntity(err, string(lookupKind)), model)
		}
		person.SetReference(refID)
	}
	if err := document.Prepare(person); err != nil {
		return nil, dErrors.WithDefaultEntity(err, model)
	}
	if err := r.PreventDuplicates(ctx, person); err != nil {
		return nil, err
	}
	if _, err := s.lookups.Get(ctx, lookupKind, *person.Reference()); err != nil {
		return nil, dErrors.Reattribute(err, model)
	}

	var addressID, kinID *id.ID
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		addressID, err = prepareOwned(gctx, s.addresses, in.address)
		return err
	})
	g.Go(func() error {
		var err error
		kinID, err = prepareOwned(gctx, s.kin, in.nextOfKin)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Reattribute(err, model)
	}
	person.Address = addressID
	person.NextOfKin = kinID

	created, err := r.CreateDocument(ctx, person)
	if err != nil {
		return nil, err
	}

	owner := created.Owner()
	g, gctx = errgroup.WithContext(ctx)
	if addressID != nil {
		g.Go(func() error { return s.addresses.Attach(gctx, owner, *addressID) })
	}
	if kinID != nil {
		g.Go(func() error { return s.kin.Attach(gctx, owner, *kinID) })
	}
	if err := g.Wait(); err != nil {
		return nil, dErrors.Reattribute(err, model)
	}

	created = s.linkRegisteredUser(ctx, created)

	if s.metrics != nil {
		s.metrics.IncrementPersonsCreated(model)
	}
	s.logAudit(ctx, "person_created", "model", model, "id", created.ID.Hex())
	return created, nil
}

// prepareOwned returns the sub-resource a new person should reference: an
// existing one named by id, or a new ownerless one built from the fields.
func prepareOwned[T models.Owned](ctx context.Context, r *ownership.Resolver[T], in *ownership.Input) (*id.ID, error) {
	if in == nil {
		return nil, nil
	}
	if in.ID != "" {
		docID, err := id.ParseID(in.ID)
		if err != nil {
			return nil, dErrors.WithDefaultEntity(err, r.Model())
		}
		_, err = r.Get(ctx, docID)
		if err == nil {
			return &docID, nil
		}
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, err
		}
		if !in.HasData() {
			return nil, err
		}
	}
	if !in.HasData() {
		return nil, nil
	}
	doc, err := r.Create(ctx, in.Data)
	if err != nil {
		return nil, err
	}
	docID := doc.Meta().ID
	return &docID, nil
}

// linkRegisteredUser links the person to a user who registered before the
// profile existed. A failed link is logged, not returned: the profile is
// stored and registration links profiles by national id again.
func (s *Service) linkRegisteredUser(ctx context.Context, person *models.Person) *models.Person {
	user, err := s.users.FindByNationalID(ctx, person.NationalID)
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return person
	}
	if err == nil {
		err = s.users.LinkProfile(ctx, user.ID, person.Kind, person.ID)
	}
	if err == nil {
		r, _ := s.repo(person.Kind)
		var linked *models.Person
		linked, err = r.Modify(ctx, person.ID, func(doc *models.Person) error {
			doc.User = &user.ID
			return nil
		})
		if err == nil {
			s.logAudit(ctx, "person_linked_to_user",
				"model", string(person.Kind),
				"id", person.ID.Hex(),
				"user_id", user.ID.Hex(),
			)
			return linked
		}
	}
	s.logger.ErrorContext(ctx, "failed to link person to registered user",
		"model", string(person.Kind),
		"id", person.ID.Hex(),
		"error", err,
	)
	return person
}
