// Package ownership creates, re-links and reclaims the sub-resources persons
// share (Address, NextOfKin). Owners hold the strong reference; a sub-resource
// only keeps backlinks, and is deleted once its last backlink is removed.
package ownership

import (
	"context"
	"log/slog"
	"time"

	peoplemetrics "mugs/internal/people/metrics"
	"mugs/internal/people/models"
	"mugs/internal/store"
	"mugs/pkg/document"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
	"mugs/pkg/requestcontext"
)

// Input is the owner-supplied sub-resource data: an optional id to link to and
// optional fields to create or update with.
type Input struct {
	ID   string
	Data document.Patch
}

// NewInput splits raw relation data into an id and fields. Backlink and id
// keys are never accepted as fields.
func NewInput(raw map[string]any) *Input {
	if raw == nil {
		return nil
	}
	in := &Input{Data: document.Patch(raw).Without("id", "_id", "owners")}
	if v, ok := raw["id"].(string); ok {
		in.ID = v
	} else if v, ok := raw["_id"].(string); ok {
		in.ID = v
	}
	return in
}

func (in *Input) HasData() bool {
	return in != nil && len(in.Data) > 0
}

// Hooks specialize a resolver for one sub-resource model. Nil hooks fall back
// to plain document creation and allowlisted updates.
type Hooks[T models.Owned] struct {
	Create  func(ctx context.Context, data document.Patch) (T, error)
	Update  func(ctx context.Context, doc T, data document.Patch) (T, error)
	Reclaim func(ctx context.Context, doc T) error
}

type Resolver[T models.Owned] struct {
	repo         *store.Repository[T]
	updateFields []string
	hooks        Hooks[T]
	logger       *slog.Logger
	metrics      *peoplemetrics.Metrics
}

type Option[T models.Owned] func(*Resolver[T])

func WithLogger[T models.Owned](logger *slog.Logger) Option[T] {
	return func(r *Resolver[T]) {
		r.logger = logger
	}
}

func WithMetrics[T models.Owned](m *peoplemetrics.Metrics) Option[T] {
	return func(r *Resolver[T]) {
		r.metrics = m
	}
}

func WithHooks[T models.Owned](hooks Hooks[T]) Option[T] {
	return func(r *Resolver[T]) {
		r.hooks = hooks
	}
}

func New[T models.Owned](repo *store.Repository[T], updateFields []string, opts ...Option[T]) *Resolver[T] {
	r := &Resolver[T]{repo: repo, updateFields: updateFields, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver[T]) Model() string { return r.repo.Model() }

// Get returns the live sub-resource.
func (r *Resolver[T]) Get(ctx context.Context, docID id.ID) (T, error) {
	return r.repo.GetDocument(ctx, docID)
}

// Create stores a new sub-resource with no owners. Until an owner attaches it
// is eligible for the orphan sweep.
func (r *Resolver[T]) Create(ctx context.Context, data document.Patch) (T, error) {
	data = data.Without("id", "_id", "owners")
	if r.hooks.Create != nil {
		return r.hooks.Create(ctx, data)
	}
	doc, err := decode[T](r.repo, data)
	if err != nil {
		var zero T
		return zero, err
	}
	return r.repo.CreateDocument(ctx, doc)
}

// Attach adds owner to the sub-resource's backlinks.
func (r *Resolver[T]) Attach(ctx context.Context, owner models.OwnerRef, docID id.ID) error {
	_, err := r.repo.Modify(ctx, docID, func(doc T) error {
		doc.OwnerSet().Add(owner)
		return nil
	})
	return err
}

// Detach removes owner from the sub-resource's backlinks and deletes the
// sub-resource if no backlink remains. A sub-resource that is already gone is
// not an error.
func (r *Resolver[T]) Detach(ctx context.Context, owner models.OwnerRef, docID id.ID) (bool, error) {
	doc, err := r.repo.Modify(ctx, docID, func(doc T) error {
		doc.OwnerSet().Remove(owner)
		return nil
	})
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !doc.OwnerSet().Empty() {
		return false, nil
	}
	return r.reclaim(ctx, docID, "detached")
}

// AddOrCreate creates the sub-resource for an owner that has none yet and
// attaches the owner. It returns the reference the owner should hold.
func (r *Resolver[T]) AddOrCreate(ctx context.Context, owner models.OwnerRef, current *id.ID, in *Input) (*id.ID, error) {
	if current != nil || !in.HasData() {
		return current, nil
	}
	doc, err := r.Create(ctx, in.Data)
	if err != nil {
		return nil, err
	}
	docID := doc.Meta().ID
	if err := r.Attach(ctx, owner, docID); err != nil {
		return nil, err
	}
	return &docID, nil
}

// AddOrUpdate re-links or modifies the owner's sub-resource:
//   - an id different from current links the owner to that sub-resource,
//     detaching it from current first; an unknown id falls through to creating
//     a new one from the supplied fields, or fails NotFound without fields
//   - without an id, fields update the current sub-resource in place
//   - without an id or a current sub-resource, fields create one
//
// It returns the reference the owner should hold.
func (r *Resolver[T]) AddOrUpdate(ctx context.Context, owner models.OwnerRef, current *id.ID, in *Input) (*id.ID, error) {
	if in == nil || (in.ID == "" && !in.HasData()) {
		return current, nil
	}

	if in.ID != "" && !id.SameID(current, in.ID) {
		return r.relink(ctx, owner, current, in)
	}

	if current == nil {
		return r.AddOrCreate(ctx, owner, nil, in)
	}
	if !in.HasData() {
		return current, nil
	}
	if err := in.Data.CheckAllowed(r.Model(), r.updateFields); err != nil {
		return nil, err
	}
	existing, err := r.repo.GetDocument(ctx, *current)
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		// dangling reference: the sub-resource was reclaimed underneath the owner
		return r.AddOrCreate(ctx, owner, nil, in)
	}
	if err != nil {
		return nil, err
	}
	if _, err := r.update(ctx, existing, in.Data); err != nil {
		return nil, err
	}
	return current, nil
}

func (r *Resolver[T]) relink(ctx context.Context, owner models.OwnerRef, current *id.ID, in *Input) (*id.ID, error) {
	targetID, err := id.ParseID(in.ID)
	if err != nil {
		return nil, dErrors.WithDefaultEntity(err, r.Model())
	}
	found, err := r.repo.Exists(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !found && !in.HasData() {
		return nil, dErrors.Missing(r.Model(), "_id", in.ID)
	}

	if found {
		if err := r.detachCurrent(ctx, owner, current); err != nil {
			return nil, err
		}
		err := r.Attach(ctx, owner, targetID)
		if err == nil {
			return &targetID, nil
		}
		if !dErrors.HasCode(err, dErrors.CodeNotFound) || !in.HasData() {
			return nil, err
		}
		// target reclaimed between lookup and attach: create instead
		current = nil
	}

	doc, err := r.Create(ctx, in.Data)
	if err != nil {
		return nil, err
	}
	if err := r.detachCurrent(ctx, owner, current); err != nil {
		return nil, err
	}
	docID := doc.Meta().ID
	if err := r.Attach(ctx, owner, docID); err != nil {
		return nil, err
	}
	return &docID, nil
}

// Restore undoes AddOrUpdate for owner: it is detached from linked when that
// differs from previous, and attached to previous again. linked is nil when
// AddOrUpdate failed part way. A previous sub-resource that was reclaimed in
// between stays gone; AddOrUpdate treats the reference to it as dangling.
func (r *Resolver[T]) Restore(ctx context.Context, owner models.OwnerRef, previous, linked *id.ID) error {
	if sameRef(previous, linked) {
		return nil
	}
	if linked != nil {
		if _, err := r.Detach(ctx, owner, *linked); err != nil {
			return err
		}
	}
	if previous == nil {
		return nil
	}
	err := r.Attach(ctx, owner, *previous)
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		r.logger.WarnContext(ctx, "previous sub-resource reclaimed before restore",
			"model", r.Model(),
			"id", previous.Hex(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil
	}
	return err
}

func (r *Resolver[T]) detachCurrent(ctx context.Context, owner models.OwnerRef, current *id.ID) error {
	if current == nil {
		return nil
	}
	_, err := r.Detach(ctx, owner, *current)
	return err
}

// Update applies an allowlisted patch to the sub-resource.
func (r *Resolver[T]) Update(ctx context.Context, docID id.ID, data document.Patch) (T, error) {
	var zero T
	if err := data.CheckAllowed(r.Model(), r.updateFields); err != nil {
		return zero, err
	}
	doc, err := r.repo.GetDocument(ctx, docID)
	if err != nil {
		return zero, err
	}
	return r.update(ctx, doc, data)
}

func (r *Resolver[T]) update(ctx context.Context, doc T, data document.Patch) (T, error) {
	if r.hooks.Update != nil {
		return r.hooks.Update(ctx, doc, data)
	}
	return r.repo.UpdateDocument(ctx, store.UpdateRequest{
		ID:            doc.Meta().ID,
		Data:          data,
		AllowedFields: r.updateFields,
	})
}

// reclaim deletes the sub-resource if it still has no owners.
func (r *Resolver[T]) reclaim(ctx context.Context, docID id.ID, reason string) (bool, error) {
	var removed T
	deleted, err := r.repo.Collection().DeleteWhere(ctx, docID, func(doc T) bool {
		if !doc.OwnerSet().Empty() {
			return false
		}
		removed = doc
		return true
	})
	if err != nil {
		return false, r.repo.Translate(err)
	}
	if !deleted {
		return false, nil
	}

	r.logger.InfoContext(ctx, "sub-resource reclaimed",
		"model", r.Model(),
		"id", docID.Hex(),
		"reason", reason,
		"request_id", requestcontext.RequestID(ctx),
	)
	if r.metrics != nil {
		r.metrics.IncrementReclaimed(r.Model(), reason)
	}
	if r.hooks.Reclaim != nil {
		if err := r.hooks.Reclaim(ctx, removed); err != nil {
			return true, err
		}
	}
	return true, nil
}

func decode[T models.Owned](repo *store.Repository[T], data document.Patch) (T, error) {
	doc := repo.Collection().Schema().New()
	if err := data.Apply(repo.Model(), doc); err != nil {
		var zero T
		return zero, err
	}
	return doc, nil
}

// ReclaimOrphansAt deletes sub-resources that have no owners and were created
// before cutoff. It returns how many were reclaimed.
func (r *Resolver[T]) ReclaimOrphansAt(ctx context.Context, cutoff time.Time) (int, error) {
	orphans, err := r.repo.Collection().Find(ctx, store.Eq{Field: "owners.count", Value: 0})
	if err != nil {
		return 0, r.repo.Translate(err)
	}
	reclaimed := 0
	for _, doc := range orphans {
		if !doc.Meta().CreatedAt.Before(cutoff) {
			continue
		}
		ok, err := r.reclaim(ctx, doc.Meta().ID, "orphaned")
		if err != nil {
			return reclaimed, err
		}
		if ok {
			reclaimed++
		}
	}
	return reclaimed, nil
}
