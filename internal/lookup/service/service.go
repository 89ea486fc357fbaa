// Package service manages the Role and Trade lookups profiles reference.
package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"mugs/internal/archive"
	authmodels "mugs/internal/auth/models"
	"mugs/internal/lookup/models"
	peoplemodels "mugs/internal/people/models"
	"mugs/internal/store"
	"mugs/pkg/document"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
	"mugs/pkg/requestcontext"
)

// Service owns one repository per lookup kind and reads the profile
// collections that reference them.
type Service struct {
	repos      map[models.Kind]*store.Repository[*models.Lookup]
	dependents map[id.ProfileKind]store.Collection[*peoplemodels.Person]
	logger     *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(
	repos map[models.Kind]*store.Repository[*models.Lookup],
	dependents map[id.ProfileKind]store.Collection[*peoplemodels.Person],
	opts ...Option,
) *Service {
	s := &Service{repos: repos, dependents: dependents, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) repo(kind models.Kind) (*store.Repository[*models.Lookup], error) {
	r, ok := s.repos[kind]
	if !ok {
		return nil, dErrors.New(dErrors.CodeInternal, "no collection configured for "+string(kind))
	}
	return r, nil
}

func (s *Service) Create(ctx context.Context, kind models.Kind, data document.Patch) (*models.Lookup, error) {
	r, err := s.repo(kind)
	if err != nil {
		return nil, err
	}
	if err := data.CheckAllowed(string(kind), models.UpdateFields); err != nil {
		return nil, err
	}
	doc := r.Collection().Schema().New()
	if err := data.Apply(string(kind), doc); err != nil {
		return nil, err
	}
	created, err := r.CreateDocument(ctx, doc)
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "lookup_created", "model", string(kind), "id", created.ID.Hex())
	return created, nil
}

// Get returns the lookup or NotFound.
func (s *Service) Get(ctx context.Context, kind models.Kind, lookupID id.ID) (*models.Lookup, error) {
	r, err := s.repo(kind)
	if err != nil {
		return nil, err
	}
	return r.GetDocument(ctx, lookupID)
}

func (s *Service) List(ctx context.Context, kind models.Kind) ([]*models.Lookup, error) {
	r, err := s.repo(kind)
	if err != nil {
		return nil, err
	}
	docs, err := r.Collection().Find(ctx)
	if err != nil {
		return nil, r.Translate(err)
	}
	return docs, nil
}

func (s *Service) Update(ctx context.Context, kind models.Kind, lookupID id.ID, data document.Patch) (*models.Lookup, error) {
	r, err := s.repo(kind)
	if err != nil {
		return nil, err
	}
	updated, err := r.UpdateDocument(ctx, store.UpdateRequest{
		ID:            lookupID,
		Data:          data,
		AllowedFields: models.UpdateFields,
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "lookup_updated", "model", string(kind), "id", lookupID.Hex())
	return updated, nil
}

// DeleteRequest removes a lookup after moving its dependents to ReplaceWith.
type DeleteRequest struct {
	Kind        models.Kind
	ID          id.ID
	ReplaceWith id.ID
	Actor       *authmodels.User
}

// Delete re-points every dependent profile to the replacement, then archives
// the lookup as a DeletedObject. Both lookups must exist and differ.
//
// Re-pointing is one update per dependent collection and is not atomic across
// collections; a failure part way leaves the lookup live with some dependents
// already moved, and the delete can be retried.
func (s *Service) Delete(ctx context.Context, req DeleteRequest) (*archive.Record, error) {
	r, err := s.repo(req.Kind)
	if err != nil {
		return nil, err
	}
	model := string(req.Kind)
	if req.ReplaceWith.IsZero() {
		return nil, dErrors.Required(model, "replaceWith")
	}
	if req.ReplaceWith == req.ID {
		return nil, dErrors.Field(dErrors.CodeBadRequest, model, "replaceWith", req.ReplaceWith.Hex(), "",
			model+" cannot be replaced with itself")
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, lookupID := range []id.ID{req.ID, req.ReplaceWith} {
		g.Go(func() error {
			_, err := r.GetDocument(gctx, lookupID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	field := req.Kind.Field()
	moved := 0
	for _, kind := range req.Kind.Dependents() {
		coll, ok := s.dependents[kind]
		if !ok {
			continue
		}
		n, err := coll.ReplaceRef(ctx, field, req.ID, req.ReplaceWith)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to re-point "+string(kind)+" "+field)
		}
		moved += n
	}

	rec, err := r.DeleteDocument(ctx, store.DeleteRequest[*models.Lookup]{
		ID:     req.ID,
		Actor:  req.Actor,
		Target: archive.TargetObject,
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "lookup_deleted",
		"model", model,
		"id", req.ID.Hex(),
		"replaced_with", req.ReplaceWith.Hex(),
		"dependents_moved", moved,
	)
	return rec, nil
}

// Linked lists the profiles of kind that reference the lookup.
func (s *Service) Linked(ctx context.Context, kind models.Kind, lookupID id.ID, dependent id.ProfileKind) ([]*peoplemodels.Person, error) {
	coll, err := s.dependentOf(kind, dependent)
	if err != nil {
		return nil, err
	}
	docs, err := coll.Find(ctx, store.Eq{Field: kind.Field(), Value: lookupID})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list "+string(dependent))
	}
	return docs, nil
}

// CountLinked counts every profile referencing the lookup.
func (s *Service) CountLinked(ctx context.Context, kind models.Kind, lookupID id.ID) (int, error) {
	total := 0
	for _, dependent := range kind.Dependents() {
		coll, ok := s.dependents[dependent]
		if !ok {
			continue
		}
		n, err := coll.Count(ctx, store.Eq{Field: kind.Field(), Value: lookupID})
		if err != nil {
			return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count "+string(dependent))
		}
		total += n
	}
	return total, nil
}

func (s *Service) dependentOf(kind models.Kind, dependent id.ProfileKind) (store.Collection[*peoplemodels.Person], error) {
	for _, k := range kind.Dependents() {
		if k != dependent {
			continue
		}
		if coll, ok := s.dependents[k]; ok {
			return coll, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeBadRequest, string(dependent)+" does not reference "+string(kind))
}

func (s *Service) logAudit(ctx context.Context, event string, attrs ...any) {
	args := append(attrs, "event", event, "request_id", requestcontext.RequestID(ctx))
	if userID := requestcontext.UserID(ctx); userID != nil {
		args = append(args, "actor_id", userID.Hex())
	}
	s.logger.InfoContext(ctx, event, args...)
}
