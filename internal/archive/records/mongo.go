package records

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mugs/internal/archive"
	id "mugs/pkg/domain"
	"mugs/pkg/platform/sentinel"
)

// Mongo keeps one collection per archive target, matching the live database.
type Mongo struct {
	collections map[archive.Target]*mongo.Collection
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{collections: map[archive.Target]*mongo.Collection{
		archive.TargetPerson: db.Collection("deletedpeople"),
		archive.TargetObject: db.Collection("deletedobjects"),
	}}
}

func (s *Mongo) Append(ctx context.Context, rec *archive.Record) error {
	coll, ok := s.collections[rec.Target]
	if !ok {
		return fmt.Errorf("unknown archive target %q", rec.Target)
	}
	if _, err := coll.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("append archive record: %w", err)
	}
	return nil
}

func (s *Mongo) FindByID(ctx context.Context, recordID id.ID) (*archive.Record, error) {
	for _, coll := range s.collections {
		var rec archive.Record
		err := coll.FindOne(ctx, bson.M{"_id": recordID}).Decode(&rec)
		if errors.Is(err, mongo.ErrNoDocuments) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("find archive record: %w", err)
		}
		return &rec, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *Mongo) List(ctx context.Context, q archive.Query) ([]*archive.Record, error) {
	filter := bson.M{}
	if q.Model != "" {
		filter["model"] = q.Model
	}
	out := make([]*archive.Record, 0)
	for _, target := range []archive.Target{archive.TargetPerson, archive.TargetObject} {
		if q.Target != "" && q.Target != target {
			continue
		}
		cur, err := s.collections[target].Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "deletedAt", Value: 1}}))
		if err != nil {
			return nil, fmt.Errorf("list archive records: %w", err)
		}
		var recs []*archive.Record
		if err := cur.All(ctx, &recs); err != nil {
			return nil, fmt.Errorf("decode archive records: %w", err)
		}
		out = append(out, recs...)
	}
	return out, nil
}

func (s *Mongo) CountByActor(ctx context.Context, actorID id.ID, target archive.Target, models []string) (int, error) {
	coll, ok := s.collections[target]
	if !ok {
		return 0, fmt.Errorf("unknown archive target %q", target)
	}
	n, err := coll.CountDocuments(ctx, bson.M{
		"deletedById": actorID,
		"model":       bson.M{"$in": models},
	})
	if err != nil {
		return 0, fmt.Errorf("count archive records: %w", err)
	}
	return int(n), nil
}
