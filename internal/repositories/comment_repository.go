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

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, commentID int64) (*models.Comment, error)
	GetByConfessionID(ctx context.Context, confessionID int64) ([]models.Comment, error)
	GetByUserID(ctx context.Context, userID int64, limit int64) ([]models.Comment, error)
	CountByConfessionID(ctx context.Context, confessionID int64) (int64, error)
	AdjustReactionCounts(ctx context.Context, commentID int64, likesDelta, dislikesDelta int64) error
	IncrementReplyCount(ctx context.Context, commentID int64) error
}

// MongoCommentRepository implements CommentRepository on the comments
// collection.
type MongoCommentRepository struct {
	collection *mongo.Collection
}

// NewMongoCommentRepository creates a new MongoCommentRepository
func NewMongoCommentRepository(db *mongo.Database) *MongoCommentRepository {
	return &MongoCommentRepository{collection: db.Collection("comments")}
}

// Create inserts a new comment. The caller allocates CommentID from the
// comment sequence beforehand.
func (r *MongoCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	comment.CreatedAt = time.Now()
	if _, err := r.collection.InsertOne(ctx, comment); err != nil {
		return storeErr("create comment", err)
	}
	return nil
}

// GetByID retrieves a comment by its sequence ID.
func (r *MongoCommentRepository) GetByID(ctx context.Context, commentID int64) (*models.Comment, error) {
	var comment models.Comment
	err := r.collection.FindOne(ctx, bson.M{"comment_id": commentID}).Decode(&comment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCommentNotFound
		}
		return nil, storeErr("get comment", err)
	}
	return &comment, nil
}

// GetByConfessionID retrieves all comments and replies for a confession
// in creation order, oldest first. Replies sit in the same flat
// sequence; callers group them by parent for display.
func (r *MongoCommentRepository) GetByConfessionID(ctx context.Context, confessionID int64) ([]models.Comment, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"confession_id": confessionID}, findOptions)
	if err != nil {
		return nil, storeErr("list comments", err)
	}
	defer cursor.Close(ctx)

	var comments []models.Comment
	if err = cursor.All(ctx, &comments); err != nil {
		return nil, storeErr("list comments", err)
	}
	return comments, nil
}

// GetByUserID retrieves a user's most recent comments, newest first,
// capped at limit.
func (r *MongoCommentRepository) GetByUserID(ctx context.Context, userID int64, limit int64) ([]models.Comment, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, findOptions)
	if err != nil {
		return nil, storeErr("list user comments", err)
	}
	defer cursor.Close(ctx)

	var comments []models.Comment
	if err = cursor.All(ctx, &comments); err != nil {
		return nil, storeErr("list user comments", err)
	}
	return comments, nil
}

// CountByConfessionID counts comments and replies on a confession.
func (r *MongoCommentRepository) CountByConfessionID(ctx context.Context, confessionID int64) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"confession_id": confessionID})
	if err != nil {
		return 0, storeErr("count comments", err)
	}
	return count, nil
}

// AdjustReactionCounts applies like/dislike counter deltas to a comment
// in one atomic update.
func (r *MongoCommentRepository) AdjustReactionCounts(ctx context.Context, commentID int64, likesDelta, dislikesDelta int64) error {
	inc := bson.M{}
	if likesDelta != 0 {
		inc["likes"] = likesDelta
	}
	if dislikesDelta != 0 {
		inc["dislikes"] = dislikesDelta
	}
	if len(inc) == 0 {
		return nil
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"comment_id": commentID}, bson.M{"$inc": inc})
	if err != nil {
		return storeErr("adjust reaction counts", err)
	}
	if res.MatchedCount == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// IncrementReplyCount bumps a comment's direct reply counter by one.
func (r *MongoCommentRepository) IncrementReplyCount(ctx context.Context, commentID int64) error {
	res, err := r.collection.UpdateOne(
		ctx,
		bson.M{"comment_id": commentID},
		bson.M{"$inc": bson.M{"reply_count": 1}},
	)
	if err != nil {
		return storeErr("increment reply count", err)
	}
	if res.MatchedCount == 0 {
		return ErrCommentNotFound
	}
	return nil
}
