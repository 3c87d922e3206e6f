package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Sequence names for the ID counters. Confessions and comments draw
// from separate sequences stored in the same counters collection.
const (
	ConfessionSequence = "confession_id"
	CommentSequence    = "comment_id"
)

// CounterRepository hands out globally unique, strictly increasing
// integer IDs per named sequence. Gaps are tolerated, duplicates are
// not, including under concurrent callers.
type CounterRepository interface {
	NextID(ctx context.Context, name string) (int64, error)
}

// MongoCounterRepository implements CounterRepository on the counters
// collection using an atomic increment-and-return update.
type MongoCounterRepository struct {
	collection *mongo.Collection
}

// NewMongoCounterRepository creates a new MongoCounterRepository
func NewMongoCounterRepository(db *mongo.Database) *MongoCounterRepository {
	return &MongoCounterRepository{collection: db.Collection("counters")}
}

// NextID atomically increments the named sequence and returns the new
// value. The upsert creates the counter document on first use. If the
// store is unreachable no ID is issued and the error wraps
// ErrStoreUnavailable.
func (r *MongoCounterRepository) NextID(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, storeErr("next id "+name, err)
	}
	return counter.Seq, nil
}
