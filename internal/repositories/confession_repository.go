package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/mehron-dev/confessio/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConfessionRepository defines the interface for confession data operations
type ConfessionRepository interface {
	Create(ctx context.Context, confession *models.Confession) error
	GetByID(ctx context.Context, confessionID int64) (*models.Confession, error)
	GetByUserID(ctx context.Context, userID int64) ([]models.Confession, error)
	SetStatus(ctx context.Context, confessionID int64, from, to models.ConfessionStatus) error
	SetChannelMessageID(ctx context.Context, confessionID int64, messageID int) error
}

// MongoConfessionRepository implements ConfessionRepository on the
// confessions collection.
type MongoConfessionRepository struct {
	collection *mongo.Collection
}

// NewMongoConfessionRepository creates a new MongoConfessionRepository
func NewMongoConfessionRepository(db *mongo.Database) *MongoConfessionRepository {
	return &MongoConfessionRepository{collection: db.Collection("confessions")}
}

// Create inserts a new confession. The caller allocates ConfessionID
// from the confession sequence beforehand.
func (r *MongoConfessionRepository) Create(ctx context.Context, confession *models.Confession) error {
	confession.CreatedAt = time.Now()
	if _, err := r.collection.InsertOne(ctx, confession); err != nil {
		return storeErr("create confession", err)
	}
	return nil
}

// GetByID retrieves a confession by its sequence ID.
func (r *MongoConfessionRepository) GetByID(ctx context.Context, confessionID int64) (*models.Confession, error) {
	var confession models.Confession
	err := r.collection.FindOne(ctx, bson.M{"confession_id": confessionID}).Decode(&confession)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrConfessionNotFound
		}
		return nil, storeErr("get confession", err)
	}
	return &confession, nil
}

// GetByUserID retrieves a user's confessions, oldest first.
func (r *MongoConfessionRepository) GetByUserID(ctx context.Context, userID int64) ([]models.Confession, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, findOptions)
	if err != nil {
		return nil, storeErr("list confessions", err)
	}
	defer cursor.Close(ctx)

	var confessions []models.Confession
	if err = cursor.All(ctx, &confessions); err != nil {
		return nil, storeErr("list confessions", err)
	}
	return confessions, nil
}

// SetStatus transitions a confession's status, guarded on the expected
// current status so the pending -> approved/rejected transition happens
// exactly once even if two admins race on the same buttons.
func (r *MongoConfessionRepository) SetStatus(ctx context.Context, confessionID int64, from, to models.ConfessionStatus) error {
	res, err := r.collection.UpdateOne(
		ctx,
		bson.M{"confession_id": confessionID, "status": from},
		bson.M{"$set": bson.M{"status": to}},
	)
	if err != nil {
		return storeErr("set confession status", err)
	}
	if res.MatchedCount == 0 {
		return ErrConfessionNotFound
	}
	return nil
}

// SetChannelMessageID records the broadcast channel message a
// confession was posted as, for later button edits.
func (r *MongoConfessionRepository) SetChannelMessageID(ctx context.Context, confessionID int64, messageID int) error {
	res, err := r.collection.UpdateOne(
		ctx,
		bson.M{"confession_id": confessionID},
		bson.M{"$set": bson.M{"channel_message_id": messageID}},
	)
	if err != nil {
		return storeErr("set channel message id", err)
	}
	if res.MatchedCount == 0 {
		return ErrConfessionNotFound
	}
	return nil
}
