package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mugs/pkg/document"
	id "mugs/pkg/domain"
	"mugs/pkg/platform/sentinel"
)

// maxWriteAttempts bounds optimistic retries when the version marker moved.
const maxWriteAttempts = 5

// Mongo is a Collection backed by a MongoDB collection. Single-document
// read-modify-write is made atomic with the `_v` version marker: replacements
// and conditional deletes only apply if the version read is still current.
type Mongo[T document.Document] struct {
	coll   *mongo.Collection
	schema Schema[T]
}

func NewMongo[T document.Document](db *mongo.Database, collection string, schema Schema[T]) *Mongo[T] {
	return &Mongo[T]{coll: db.Collection(collection), schema: schema}
}

func (s *Mongo[T]) Model() string     { return s.schema.Model }
func (s *Mongo[T]) Schema() Schema[T] { return s.schema }

// EnsureIndexes creates one sparse unique index per unique field, named after the field.
func (s *Mongo[T]) EnsureIndexes(ctx context.Context) error {
	if len(s.schema.Unique) == 0 {
		return nil
	}
	models := make([]mongo.IndexModel, 0, len(s.schema.Unique))
	for _, field := range s.schema.Unique {
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetName(field).SetUnique(true).SetSparse(true),
		})
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create %s indexes: %w", s.schema.Model, err)
	}
	return nil
}

func (s *Mongo[T]) Create(ctx context.Context, doc T) error {
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return s.translateWriteErr(err)
	}
	return nil
}

func (s *Mongo[T]) FindByID(ctx context.Context, docID id.ID) (T, error) {
	return s.FindOne(ctx, Eq{Field: "_id", Value: docID})
}

func (s *Mongo[T]) FindOne(ctx context.Context, filters ...Eq) (T, error) {
	doc := s.schema.New()
	err := s.coll.FindOne(ctx, toFilter(filters)).Decode(doc)
	if err != nil {
		var zero T
		if errors.Is(err, mongo.ErrNoDocuments) {
			return zero, sentinel.ErrNotFound
		}
		return zero, fmt.Errorf("find %s: %w", s.schema.Model, err)
	}
	return doc, nil
}

func (s *Mongo[T]) Find(ctx context.Context, filters ...Eq) ([]T, error) {
	cur, err := s.coll.Find(ctx, toFilter(filters), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", s.schema.Model, err)
	}
	defer cur.Close(ctx)

	out := make([]T, 0)
	for cur.Next(ctx) {
		doc := s.schema.New()
		if err := cur.Decode(doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", s.schema.Model, err)
		}
		out = append(out, doc)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", s.schema.Model, err)
	}
	return out, nil
}

func (s *Mongo[T]) Count(ctx context.Context, filters ...Eq) (int, error) {
	n, err := s.coll.CountDocuments(ctx, toFilter(filters))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", s.schema.Model, err)
	}
	return int(n), nil
}

func (s *Mongo[T]) Execute(ctx context.Context, docID id.ID, validate func(T) error, mutate func(T)) (T, error) {
	var zero T
	for range maxWriteAttempts {
		doc, err := s.FindByID(ctx, docID)
		if err != nil {
			return zero, err
		}
		if validate != nil {
			if err := validate(doc); err != nil {
				return zero, err
			}
		}
		if mutate != nil {
			mutate(doc)
		}
		prev := doc.Meta().Version
		doc.Meta().ID = docID
		doc.Meta().Version = prev + 1

		res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": docID, "_v": prev}, doc)
		if err != nil {
			return zero, s.translateWriteErr(err)
		}
		if res.MatchedCount == 1 {
			return doc, nil
		}
	}
	return zero, fmt.Errorf("update %s %s: %w", s.schema.Model, docID.Hex(), sentinel.ErrConflict)
}

func (s *Mongo[T]) DeleteWhere(ctx context.Context, docID id.ID, cond func(T) bool) (bool, error) {
	for range maxWriteAttempts {
		doc, err := s.FindByID(ctx, docID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if cond != nil && !cond(doc) {
			return false, nil
		}
		res, err := s.coll.DeleteOne(ctx, bson.M{"_id": docID, "_v": doc.Meta().Version})
		if err != nil {
			return false, fmt.Errorf("delete %s: %w", s.schema.Model, err)
		}
		if res.DeletedCount == 1 {
			return true, nil
		}
	}
	return false, fmt.Errorf("delete %s %s: %w", s.schema.Model, docID.Hex(), sentinel.ErrConflict)
}

func (s *Mongo[T]) Delete(ctx context.Context, docID id.ID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": docID})
	if err != nil {
		return fmt.Errorf("delete %s: %w", s.schema.Model, err)
	}
	if res.DeletedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Mongo[T]) ReplaceRef(ctx context.Context, field string, from, to id.ID) (int, error) {
	res, err := s.coll.UpdateMany(ctx,
		bson.M{field: from},
		bson.M{"$set": bson.M{field: to}, "$inc": bson.M{"_v": 1}},
	)
	if err != nil {
		return 0, fmt.Errorf("re-point %s.%s: %w", s.schema.Model, field, err)
	}
	return int(res.ModifiedCount), nil
}

func (s *Mongo[T]) translateWriteErr(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("write %s: %w", s.schema.Model, err)
	}
	msg := err.Error()
	for _, field := range s.schema.Unique {
		if strings.Contains(msg, "index: "+field+" ") {
			return &UniqueViolation{Field: field}
		}
	}
	if strings.Contains(msg, "index: _id_") {
		return &UniqueViolation{Field: "_id"}
	}
	return &UniqueViolation{}
}

func toFilter(filters []Eq) bson.D {
	out := bson.D{}
	for _, f := range filters {
		out = append(out, bson.E{Key: f.Field, Value: f.Value})
	}
	return out
}
