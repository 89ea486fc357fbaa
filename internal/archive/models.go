// Package archive snapshots documents into append-only trash collections
// before their live copy is removed.
package archive

import (
	"context"
	"time"

	authmodels "mugs/internal/auth/models"
	id "mugs/pkg/domain"
)

// Target names an archive collection.
type Target string

const (
	TargetPerson Target = "DeletedPerson"
	TargetObject Target = "DeletedObject"
)

func (t Target) IsValid() bool {
	return t == TargetPerson || t == TargetObject
}

// ModelKey tags the snapshot with the model it came from.
const ModelKey = "_model"

// Record is an immutable archive entry. Written once, never updated.
type Record struct {
	ID          id.ID          `bson:"_id" json:"id"`
	Target      Target         `bson:"target" json:"target"`
	Model       string         `bson:"model" json:"model"`
	SourceID    id.ID          `bson:"sourceId" json:"sourceId"`
	DeletedByID id.ID          `bson:"deletedById" json:"-"`
	DeletedBy   map[string]any `bson:"deletedBy" json:"deletedBy"`
	DeletedAt   time.Time      `bson:"deletedAt" json:"deletedAt"`
	Deleted     map[string]any `bson:"deleted" json:"deleted"`
}

// Request describes one deletion. Snapshot fetches and populates the live
// document; Remove performs the live-side removal and its cascades.
type Request struct {
	ID       id.ID
	Model    string
	Actor    *authmodels.User
	Target   Target
	Snapshot func(ctx context.Context) (map[string]any, error)
	Remove   func(ctx context.Context) error
}

// Query filters archive listings. Empty fields match everything.
type Query struct {
	Target Target
	Model  string
}
