package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"mugs/internal/archive"
	authmodels "mugs/internal/auth/models"
	"mugs/internal/people/models"
	"mugs/internal/store"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
)

// DeleteRequest archives one person on behalf of Actor.
type DeleteRequest struct {
	Kind  id.ProfileKind
	ID    id.ID
	Actor *authmodels.User
}

// Delete archives the person with its relations populated, then removes it
// and releases what it owned: its address and next of kin lose the backlink,
// and its user loses the profile.
func (s *Service) Delete(ctx context.Context, req DeleteRequest) (_ *archive.Record, err error) {
	ctx, span := s.startSpan(ctx, "delete", req.Kind)
	defer func() { endSpan(span, err) }()
	defer s.observe("delete", time.Now())

	r, err := s.repo(req.Kind)
	if err != nil {
		return nil, err
	}
	if !req.Actor.IsLive() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "You must be logged in to delete")
	}

	rec, err := r.DeleteDocument(ctx, store.DeleteRequest[*models.Person]{
		ID:     req.ID,
		Actor:  req.Actor,
		Target: s.cfg.ArchiveTarget,
		Populate: func(ctx context.Context, p *models.Person) (map[string]any, error) {
			return s.render(ctx, p, archiveShape)
		},
		AfterRemove: func(ctx context.Context, p *models.Person) error {
			return s.release(ctx, p, req.Actor)
		},
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, req.Kind, req.ID)

	if s.metrics != nil {
		s.metrics.IncrementPersonsArchived(string(req.Kind))
	}
	s.logAudit(ctx, "person_deleted",
		"model", string(req.Kind),
		"id", req.ID.Hex(),
		"record_id", rec.ID.Hex(),
	)
	return rec, nil
}

// release runs the cascade of a removed person.
func (s *Service) release(ctx context.Context, p *models.Person, actor *authmodels.User) error {
	owner := p.Owner()
	g, gctx := errgroup.WithContext(ctx)
	if p.Address != nil {
		g.Go(func() error {
			_, err := s.addresses.Detach(gctx, owner, *p.Address)
			return err
		})
	}
	if p.NextOfKin != nil {
		g.Go(func() error {
			_, err := s.kin.Detach(gctx, owner, *p.NextOfKin)
			return err
		})
	}
	if p.User != nil {
		g.Go(func() error {
			err := s.users.UnlinkProfile(gctx, *p.User, p.Kind, actor)
			if dErrors.HasCode(err, dErrors.CodeNotFound) {
				return nil
			}
			return err
		})
	}
	return g.Wait()
}
