package service

import (
	"context"

	"mugs/internal/cache"
	"mugs/internal/people/models"
	"mugs/internal/store"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
)

// GetPerson returns the live person document.
func (s *Service) GetPerson(ctx context.Context, kind id.ProfileKind, personID id.ID) (*models.Person, error) {
	r, err := s.repo(kind)
	if err != nil {
		return nil, err
	}
	return r.GetDocument(ctx, personID)
}

// Get returns the view of a person at populate depth 0 (references as ids)
// or 1 (relations and user populated). Views are cached until the person
// changes or the TTL passes.
func (s *Service) Get(ctx context.Context, kind id.ProfileKind, personID id.ID, depth int) (map[string]any, error) {
	sh, err := shapeForDepth(depth)
	if err != nil {
		return nil, dErrors.WithDefaultEntity(err, string(kind))
	}
	key := cache.Key(string(kind), personID, depth)
	if view, ok, err := s.views.Get(ctx, key); err == nil && ok {
		return view, nil
	} else if err != nil {
		s.logger.WarnContext(ctx, "view cache read failed", "key", key, "error", err)
	}

	person, err := s.GetPerson(ctx, kind, personID)
	if err != nil {
		return nil, err
	}
	view, err := s.render(ctx, person, sh)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render "+string(kind))
	}
	if err := s.views.Set(ctx, key, view, s.cfg.ViewTTL); err != nil {
		s.logger.WarnContext(ctx, "view cache write failed", "key", key, "error", err)
	}
	return view, nil
}

// ListQuery pages through the persons of one kind.
type ListQuery struct {
	Filters []store.Eq
	Offset  int
	Limit   int
	Depth   int
}

// List returns one page of person views and the total number of matches.
func (s *Service) List(ctx context.Context, kind id.ProfileKind, q ListQuery) ([]map[string]any, int, error) {
	r, err := s.repo(kind)
	if err != nil {
		return nil, 0, err
	}
	sh, err := shapeForDepth(q.Depth)
	if err != nil {
		return nil, 0, dErrors.WithDefaultEntity(err, string(kind))
	}
	people, err := r.Collection().Find(ctx, q.Filters...)
	if err != nil {
		return nil, 0, r.Translate(err)
	}
	total := len(people)
	people = page(people, q.Offset, q.Limit)

	views := make([]map[string]any, 0, len(people))
	for _, p := range people {
		view, err := s.render(ctx, p, sh)
		if err != nil {
			return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render "+string(kind))
		}
		views = append(views, view)
	}
	return views, total, nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
