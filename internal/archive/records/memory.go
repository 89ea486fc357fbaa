// Package records holds the archive record stores.
package records

import (
	"context"
	"slices"
	"sync"

	"mugs/internal/archive"
	id "mugs/pkg/domain"
	"mugs/pkg/platform/sentinel"
)

type InMemory struct {
	mu      sync.RWMutex
	records []*archive.Record
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(_ context.Context, rec *archive.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ID == rec.ID {
			return sentinel.ErrAlreadyUsed
		}
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, recordID id.ID) (*archive.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.ID == recordID {
			return r, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) List(_ context.Context, q archive.Query) ([]*archive.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*archive.Record, 0)
	for _, r := range s.records {
		if matches(r, q) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *InMemory) CountByActor(_ context.Context, actorID id.ID, target archive.Target, models []string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.records {
		if r.DeletedByID == actorID && r.Target == target && slices.Contains(models, r.Model) {
			n++
		}
	}
	return n, nil
}

func matches(r *archive.Record, q archive.Query) bool {
	return (q.Target == "" || r.Target == q.Target) && (q.Model == "" || r.Model == q.Model)
}
