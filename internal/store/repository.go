package store

import (
	"context"
	"errors"
	"slices"

	"golang.org/x/sync/errgroup"

	"mugs/internal/archive"
	authmodels "mugs/internal/auth/models"
	"mugs/pkg/document"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
	"mugs/pkg/platform/sentinel"
	"mugs/pkg/requestcontext"
)

// Archiver writes the archive record for a deletion and runs the live removal.
type Archiver interface {
	Archive(ctx context.Context, req archive.Request) (*archive.Record, error)
}

// Repository applies the document rules on top of a Collection.
type Repository[T document.Document] struct {
	coll     Collection[T]
	archiver Archiver
}

func NewRepository[T document.Document](coll Collection[T], archiver Archiver) *Repository[T] {
	return &Repository[T]{coll: coll, archiver: archiver}
}

func (r *Repository[T]) Collection() Collection[T] { return r.coll }
func (r *Repository[T]) Model() string             { return r.coll.Model() }

// UpdateRequest is an allowlisted patch of one document.
type UpdateRequest struct {
	ID            id.ID
	Data          document.Patch
	AllowedFields []string
}

// DeleteRequest archives one document. Populate renders the snapshot (the
// document's plain shape when nil); AfterRemove runs the cascade once the live
// copy is gone.
type DeleteRequest[T document.Document] struct {
	ID          id.ID
	Actor       *authmodels.User
	Target      archive.Target
	Populate    func(ctx context.Context, doc T) (map[string]any, error)
	AfterRemove func(ctx context.Context, doc T) error
}

// CreateDocument stamps, validates and uniqueness-checks doc, then inserts it.
func (r *Repository[T]) CreateDocument(ctx context.Context, doc T) (T, error) {
	var zero T
	doc.Meta().StampCreated(requestcontext.UserID(ctx), requestcontext.Now(ctx))
	if err := document.Prepare(doc); err != nil {
		return zero, dErrors.WithDefaultEntity(err, r.Model())
	}
	if err := r.PreventDuplicates(ctx, doc); err != nil {
		return zero, err
	}
	if err := r.coll.Create(ctx, doc); err != nil {
		return zero, r.translate(err, doc)
	}
	return doc, nil
}

// GetDocument returns the live document or NotFound.
func (r *Repository[T]) GetDocument(ctx context.Context, docID id.ID) (T, error) {
	var zero T
	doc, err := r.coll.FindByID(ctx, docID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return zero, dErrors.Missing(r.Model(), "_id", docID.Hex())
	}
	if err != nil {
		return zero, r.translate(err)
	}
	if !isLive(doc) {
		return zero, dErrors.Missing(r.Model(), "_id", docID.Hex())
	}
	return doc, nil
}

// Exists reports whether a live document with docID exists.
func (r *Repository[T]) Exists(ctx context.Context, docID id.ID) (bool, error) {
	_, err := r.GetDocument(ctx, docID)
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Preview applies req to a copy of the stored document and runs every check
// UpdateDocument runs, without writing.
func (r *Repository[T]) Preview(ctx context.Context, req UpdateRequest) (T, error) {
	var zero T
	model := r.Model()
	if err := req.Data.CheckAllowed(model, req.AllowedFields); err != nil {
		return zero, err
	}
	preview, err := r.GetDocument(ctx, req.ID)
	if err != nil {
		return zero, err
	}
	if err := req.Data.Apply(model, preview); err != nil {
		return zero, err
	}
	if err := document.Prepare(preview); err != nil {
		return zero, dErrors.WithDefaultEntity(err, model)
	}
	if err := r.PreventDuplicates(ctx, preview, req.Data.Keys()...); err != nil {
		return zero, err
	}
	return preview, nil
}

// UpdateDocument applies an allowlisted patch atomically.
func (r *Repository[T]) UpdateDocument(ctx context.Context, req UpdateRequest) (T, error) {
	var zero T
	model := r.Model()
	preview, err := r.Preview(ctx, req)
	if err != nil {
		return zero, err
	}

	actor, now := requestcontext.UserID(ctx), requestcontext.Now(ctx)
	updated, err := r.coll.Execute(ctx, req.ID,
		func(doc T) error {
			if !isLive(doc) {
				return dErrors.Missing(model, "_id", req.ID.Hex())
			}
			if err := req.Data.Apply(model, doc); err != nil {
				return err
			}
			return dErrors.WithDefaultEntity(document.Prepare(doc), model)
		},
		func(doc T) {
			doc.Meta().StampModified(actor, now)
		},
	)
	if errors.Is(err, sentinel.ErrNotFound) {
		return zero, dErrors.Missing(model, "_id", req.ID.Hex())
	}
	if err != nil {
		return zero, r.translate(err, preview)
	}
	return updated, nil
}

// Modify runs an atomic read-modify-write with audit stamping. mutate may
// reject the change by returning an error.
func (r *Repository[T]) Modify(ctx context.Context, docID id.ID, mutate func(T) error) (T, error) {
	var zero T
	actor, now := requestcontext.UserID(ctx), requestcontext.Now(ctx)
	updated, err := r.coll.Execute(ctx, docID,
		func(doc T) error {
			if !isLive(doc) {
				return dErrors.Missing(r.Model(), "_id", docID.Hex())
			}
			return mutate(doc)
		},
		func(doc T) {
			doc.Meta().StampModified(actor, now)
		},
	)
	if errors.Is(err, sentinel.ErrNotFound) {
		return zero, dErrors.Missing(r.Model(), "_id", docID.Hex())
	}
	if err != nil {
		return zero, r.translate(err)
	}
	return updated, nil
}

// DeleteDocument archives the document, then removes the live copy.
func (r *Repository[T]) DeleteDocument(ctx context.Context, req DeleteRequest[T]) (*archive.Record, error) {
	if r.archiver == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "no archive configured for "+r.Model())
	}
	var doc T
	return r.archiver.Archive(ctx, archive.Request{
		ID:     req.ID,
		Model:  r.Model(),
		Actor:  req.Actor,
		Target: req.Target,
		Snapshot: func(ctx context.Context) (map[string]any, error) {
			var err error
			doc, err = r.GetDocument(ctx, req.ID)
			if err != nil {
				return nil, err
			}
			if req.Populate != nil {
				return req.Populate(ctx, doc)
			}
			return document.ToMap(doc)
		},
		Remove: func(ctx context.Context) error {
			if err := r.coll.Delete(ctx, req.ID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
				return err
			}
			if req.AfterRemove != nil {
				return req.AfterRemove(ctx, doc)
			}
			return nil
		},
	})
}

// PreventDuplicates checks the unique fields of doc (all of them, or only
// fields when given) against other documents. It runs before writes so
// collisions surface as field-level errors; the store still enforces
// uniqueness for writers racing past the check.
func (r *Repository[T]) PreventDuplicates(ctx context.Context, doc T, fields ...string) error {
	schema := r.coll.Schema()
	if len(fields) == 0 {
		fields = schema.Unique
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, field := range fields {
		if !slices.Contains(schema.Unique, field) {
			continue
		}
		value, ok := schema.value(doc, field)
		if !ok || IsEmptyValue(value) {
			continue
		}
		g.Go(func() error {
			other, err := r.coll.FindOne(gctx, Eq{Field: field, Value: value})
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil
			}
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check "+field)
			}
			if other.Meta().ID == doc.Meta().ID {
				return nil
			}
			return dErrors.Taken(r.Model(), field, value)
		})
	}
	return g.Wait()
}

// Translate maps store errors for this model into the domain taxonomy.
func (r *Repository[T]) Translate(err error) error {
	return r.translate(err)
}

// translate maps err; doc, when given, supplies the value of a violated field.
func (r *Repository[T]) translate(err error, doc ...T) error {
	if err == nil {
		return nil
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	if uv, ok := AsUniqueViolation(err); ok {
		value := uv.Value
		if value == nil && len(doc) > 0 && uv.Field != "" {
			value, _ = r.coll.Schema().value(doc[0], uv.Field)
		}
		return dErrors.Taken(r.Model(), uv.Field, value)
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Field(dErrors.CodeNotFound, r.Model(), "_id", nil, "", r.Model()+" not found")
	}
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.Wrap(err, dErrors.CodeInternal, r.Model()+" was modified concurrently")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to access "+r.Model())
}

func isLive(doc any) bool {
	if l, ok := doc.(document.Liveness); ok {
		return l.IsLive()
	}
	return true
}
