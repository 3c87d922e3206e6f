package repositories

import (
	"context"
	"errors"

	"github.com/mehron-dev/confessio/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReactionSet selects one of the per-user reaction membership sets.
type ReactionSet string

const (
	LikedSet    ReactionSet = "liked_comments"
	DislikedSet ReactionSet = "disliked_comments"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	GetOrCreate(ctx context.Context, telegramID int64) (*models.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	IncrementAura(ctx context.Context, telegramID int64, delta int64) (int64, error)
	AddToReactionSet(ctx context.Context, telegramID, commentID int64, set ReactionSet) error
	RemoveFromReactionSet(ctx context.Context, telegramID, commentID int64, set ReactionSet) error
}

// MongoUserRepository implements UserRepository on the users collection.
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new MongoUserRepository
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection("users")}
}

// GetOrCreate returns the user with the given Telegram ID, inserting a
// fresh record (aura 0, empty membership sets) on first interaction.
// The upsert keeps concurrent first interactions from racing into
// duplicate documents.
func (r *MongoUserRepository) GetOrCreate(ctx context.Context, telegramID int64) (*models.User, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	update := bson.M{"$setOnInsert": bson.M{
		"telegram_id":       telegramID,
		"nickname":          models.DefaultNickname,
		"profile_emoji":     models.DefaultEmoji,
		"aura":              int64(0),
		"liked_comments":    []int64{},
		"disliked_comments": []int64{},
	}}

	var user models.User
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"telegram_id": telegramID}, update, opts).Decode(&user)
	if err != nil {
		return nil, storeErr("get or create user", err)
	}
	return &user, nil
}

// GetByTelegramID retrieves a user without creating one.
func (r *MongoUserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"telegram_id": telegramID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, storeErr("get user", err)
	}
	return &user, nil
}

// IncrementAura atomically adds delta to the user's aura and returns
// the new value. This is a single storage-side arithmetic update, never
// a read-modify-write, so concurrent increments to the same user are
// never lost.
func (r *MongoUserRepository) IncrementAura(ctx context.Context, telegramID int64, delta int64) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var user models.User
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"telegram_id": telegramID},
		bson.M{"$inc": bson.M{"aura": delta}},
		opts,
	).Decode(&user)
	if err != nil {
		return 0, storeErr("increment aura", err)
	}
	return user.Aura, nil
}

// AddToReactionSet inserts a comment ID into one of the user's
// membership sets. $addToSet keeps the set duplicate-free even if the
// same request lands twice.
func (r *MongoUserRepository) AddToReactionSet(ctx context.Context, telegramID, commentID int64, set ReactionSet) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"telegram_id": telegramID},
		bson.M{"$addToSet": bson.M{string(set): commentID}},
	)
	if err != nil {
		return storeErr("add to "+string(set), err)
	}
	return nil
}

// RemoveFromReactionSet removes a comment ID from one of the user's
// membership sets. Removing an absent member is a no-op.
func (r *MongoUserRepository) RemoveFromReactionSet(ctx context.Context, telegramID, commentID int64, set ReactionSet) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"telegram_id": telegramID},
		bson.M{"$pull": bson.M{string(set): commentID}},
	)
	if err != nil {
		return storeErr("remove from "+string(set), err)
	}
	return nil
}
