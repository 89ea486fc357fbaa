package store

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"mugs/pkg/document"
	id "mugs/pkg/domain"
	"mugs/pkg/platform/sentinel"
)

// InMemory is a Collection backed by a map. Callers always receive copies, so a
// document can only change through Execute.
type InMemory[T document.Document] struct {
	mu     sync.RWMutex
	schema Schema[T]
	docs   map[id.ID]T
	order  []id.ID
}

func NewInMemory[T document.Document](schema Schema[T]) *InMemory[T] {
	return &InMemory[T]{
		schema: schema,
		docs:   make(map[id.ID]T),
	}
}

func (s *InMemory[T]) Model() string     { return s.schema.Model }
func (s *InMemory[T]) Schema() Schema[T] { return s.schema }

func (s *InMemory[T]) Create(_ context.Context, doc T) error {
	docID := doc.Meta().ID
	if docID.IsZero() {
		return fmt.Errorf("create %s: missing id", s.schema.Model)
	}
	stored, err := s.clone(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[docID]; exists {
		return &UniqueViolation{Field: "_id", Value: docID}
	}
	if err := s.checkUnique(stored); err != nil {
		return err
	}
	s.docs[docID] = stored
	s.order = append(s.order, docID)
	return nil
}

func (s *InMemory[T]) FindByID(_ context.Context, docID id.ID) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[docID]
	if !ok {
		var zero T
		return zero, sentinel.ErrNotFound
	}
	return s.clone(doc)
}

func (s *InMemory[T]) FindOne(ctx context.Context, filters ...Eq) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, docID := range s.order {
		if doc := s.docs[docID]; s.schema.matches(doc, filters) {
			return s.clone(doc)
		}
	}
	var zero T
	return zero, sentinel.ErrNotFound
}

func (s *InMemory[T]) Find(_ context.Context, filters ...Eq) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, 0)
	for _, docID := range s.order {
		doc := s.docs[docID]
		if !s.schema.matches(doc, filters) {
			continue
		}
		c, err := s.clone(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *InMemory[T]) Count(_ context.Context, filters ...Eq) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, doc := range s.docs {
		if s.schema.matches(doc, filters) {
			n++
		}
	}
	return n, nil
}

func (s *InMemory[T]) Execute(_ context.Context, docID id.ID, validate func(T) error, mutate func(T)) (T, error) {
	var zero T
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.docs[docID]
	if !ok {
		return zero, sentinel.ErrNotFound
	}
	working, err := s.clone(current)
	if err != nil {
		return zero, err
	}
	if validate != nil {
		if err := validate(working); err != nil {
			return zero, err
		}
	}
	if mutate != nil {
		mutate(working)
	}
	working.Meta().ID = docID
	working.Meta().Version = current.Meta().Version + 1
	if err := s.checkUnique(working); err != nil {
		return zero, err
	}
	s.docs[docID] = working
	return s.clone(working)
}

func (s *InMemory[T]) DeleteWhere(_ context.Context, docID id.ID, cond func(T) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[docID]
	if !ok {
		return false, nil
	}
	if cond != nil && !cond(doc) {
		return false, nil
	}
	s.remove(docID)
	return true, nil
}

func (s *InMemory[T]) Delete(_ context.Context, docID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[docID]; !ok {
		return sentinel.ErrNotFound
	}
	s.remove(docID)
	return nil
}

func (s *InMemory[T]) ReplaceRef(_ context.Context, field string, from, to id.ID) (int, error) {
	set, ok := s.schema.Refs[field]
	if !ok {
		return 0, fmt.Errorf("%s has no reference field %q", s.schema.Model, field)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, doc := range s.docs {
		if v, _ := s.schema.value(doc, field); v == from {
			set(doc, to)
			doc.Meta().Version++
			n++
		}
	}
	return n, nil
}

// checkUnique must be called with the write lock held.
func (s *InMemory[T]) checkUnique(doc T) error {
	self := doc.Meta().ID
	for _, field := range s.schema.Unique {
		v, ok := s.schema.value(doc, field)
		if !ok || IsEmptyValue(v) {
			continue
		}
		for otherID, other := range s.docs {
			if otherID == self {
				continue
			}
			if ov, _ := s.schema.value(other, field); ov == v {
				return &UniqueViolation{Field: field, Value: v}
			}
		}
	}
	return nil
}

func (s *InMemory[T]) remove(docID id.ID) {
	delete(s.docs, docID)
	for i, o := range s.order {
		if o == docID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// clone deep-copies through BSON, the same encoding the Mongo backend stores.
func (s *InMemory[T]) clone(doc T) (T, error) {
	out := s.schema.New()
	raw, err := bson.Marshal(doc)
	if err != nil {
		return out, fmt.Errorf("encode %s: %w", s.schema.Model, err)
	}
	if err := bson.Unmarshal(raw, out); err != nil {
		return out, fmt.Errorf("decode %s: %w", s.schema.Model, err)
	}
	return out, nil
}
