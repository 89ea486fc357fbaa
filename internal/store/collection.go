// Package store is the persistence layer for live documents. Collection is the
// backend contract (in-memory or MongoDB); Repository layers the document rules
// on top: audit stamping, validation, uniqueness pre-checks, update allowlists
// and archival on delete.
package store

import (
	"context"
	"errors"
	"fmt"

	"mugs/pkg/document"
	id "mugs/pkg/domain"
	"mugs/pkg/platform/sentinel"
)

// Eq is an equality filter on a wire field name. Filters passed together are ANDed.
type Eq struct {
	Field string
	Value any
}

// Collection stores documents of one model.
type Collection[T document.Document] interface {
	Model() string
	Schema() Schema[T]
	Create(ctx context.Context, doc T) error
	FindByID(ctx context.Context, docID id.ID) (T, error)
	FindOne(ctx context.Context, filters ...Eq) (T, error)
	Find(ctx context.Context, filters ...Eq) ([]T, error)
	Count(ctx context.Context, filters ...Eq) (int, error)
	// Execute is an atomic read-modify-write of one document. validate runs on a
	// private copy; if it passes, mutate is applied and the copy replaces the
	// stored document. Concurrent writers to the same document are serialized.
	Execute(ctx context.Context, docID id.ID, validate func(T) error, mutate func(T)) (T, error)
	// DeleteWhere removes the document only if cond holds on its current state,
	// evaluated atomically with the removal. A missing document reports false.
	DeleteWhere(ctx context.Context, docID id.ID, cond func(T) bool) (bool, error)
	Delete(ctx context.Context, docID id.ID) error
	// ReplaceRef re-points every document whose reference field equals from.
	ReplaceRef(ctx context.Context, field string, from, to id.ID) (int, error)
}

// Schema describes a model to the backends.
type Schema[T document.Document] struct {
	Model string
	New   func() T
	// Fields exposes filterable values by wire name. Reference getters return
	// id.ID (zero when unset) so filters compare by value.
	Fields map[string]func(T) any
	// Unique lists fields whose non-empty values must be distinct.
	Unique []string
	// Refs sets reference fields, used by ReplaceRef.
	Refs map[string]func(T, id.ID)
}

func (s Schema[T]) value(doc T, field string) (any, bool) {
	get, ok := s.Fields[field]
	if !ok {
		return nil, false
	}
	return get(doc), true
}

func (s Schema[T]) matches(doc T, filters []Eq) bool {
	for _, f := range filters {
		if f.Field == "_id" {
			if doc.Meta().ID != f.Value {
				return false
			}
			continue
		}
		v, ok := s.value(doc, f.Field)
		if !ok || v != f.Value {
			return false
		}
	}
	return true
}

// IsEmptyValue reports whether a unique value is absent (sparse indexes skip it).
func IsEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case id.ID:
		return t.IsZero()
	}
	return false
}

// UniqueViolation is returned by Create/Execute when a unique field collides.
// Field is empty when the backend could not tell which index fired.
type UniqueViolation struct {
	Field string
	Value any
}

func (e *UniqueViolation) Error() string {
	if e.Field == "" {
		return "duplicate key"
	}
	return fmt.Sprintf("duplicate value for %s", e.Field)
}

func (e *UniqueViolation) Unwrap() error { return sentinel.ErrAlreadyUsed }

// AsUniqueViolation extracts a UniqueViolation from err's chain.
func AsUniqueViolation(err error) (*UniqueViolation, bool) {
	var uv *UniqueViolation
	if errors.As(err, &uv) {
		return uv, true
	}
	return nil, false
}
