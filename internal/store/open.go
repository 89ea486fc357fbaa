package store

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"mugs/pkg/document"
)

// Backend selects where collections live: MongoDB when DB is set, memory otherwise.
type Backend struct {
	DB *mongo.Database
}

// Open returns the collection for name, creating Mongo indexes when needed.
func Open[T document.Document](ctx context.Context, b Backend, name string, schema Schema[T]) (Collection[T], error) {
	if b.DB == nil {
		return NewInMemory(schema), nil
	}
	coll := NewMongo(b.DB, name, schema)
	if err := coll.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	return coll, nil
}
