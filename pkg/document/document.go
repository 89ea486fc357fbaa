// Package document is the base capability shared by every persisted entity:
// identity, the optimistic version marker, audit stamps, and the patch helpers
// used to apply allowlisted updates.
package document

import (
	"time"

	id "mugs/pkg/domain"
)

// Base is embedded (inline) by every entity.
type Base struct {
	ID         id.ID     `bson:"_id" json:"id"`
	Version    int64     `bson:"_v" json:"-"`
	CreatedBy  *id.ID    `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	ModifiedBy *id.ID    `bson:"modifiedBy,omitempty" json:"modifiedBy,omitempty"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (b *Base) Meta() *Base { return b }

// StampCreated sets identity and creation audit fields.
func (b *Base) StampCreated(actor *id.ID, now time.Time) {
	if b.ID.IsZero() {
		b.ID = id.NewID()
	}
	b.CreatedBy = actor
	b.CreatedAt = now
	b.UpdatedAt = now
}

// StampModified records who touched the document last.
func (b *Base) StampModified(actor *id.ID, now time.Time) {
	if actor != nil {
		b.ModifiedBy = actor
	}
	b.UpdatedAt = now
}

// Document is implemented by pointers to entities embedding Base.
type Document interface {
	Meta() *Base
}

// Normalizer is implemented by entities that canonicalize fields before writes.
type Normalizer interface {
	Normalize()
}

// Validator is implemented by entities with schema constraints.
type Validator interface {
	Validate() error
}

// Liveness is implemented by entities that can be soft-deleted in place.
type Liveness interface {
	IsLive() bool
}

// Prepare normalizes then validates doc when it supports either step.
func Prepare(doc any) error {
	if n, ok := doc.(Normalizer); ok {
		n.Normalize()
	}
	if v, ok := doc.(Validator); ok {
		return v.Validate()
	}
	return nil
}
