// Package confessions holds the confession and comment lifecycle:
// submission, moderation, threading.
package confessions

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/mehron-dev/confessio/internal/models"
	"github.com/mehron-dev/confessio/internal/repositories"
)

// Service orchestrates confession and comment writes over the
// repositories. Reaction writes live in the reactions package.
type Service struct {
	counters    repositories.CounterRepository
	confessions repositories.ConfessionRepository
	comments    repositories.CommentRepository
	validate    *validator.Validate
}

// NewService creates a new Service
func NewService(counters repositories.CounterRepository, confessions repositories.ConfessionRepository, comments repositories.CommentRepository) *Service {
	return &Service{
		counters:    counters,
		confessions: confessions,
		comments:    comments,
		validate:    validator.New(),
	}
}

// Submit validates and stores a new confession as pending and returns
// its ID from the confession sequence.
func (s *Service) Submit(ctx context.Context, userID int64, text string) (int64, error) {
	req := models.SubmitConfessionRequest{UserID: userID, Text: text}
	if err := s.validate.Struct(req); err != nil {
		return 0, err
	}

	confessionID, err := s.counters.NextID(ctx, repositories.ConfessionSequence)
	if err != nil {
		return 0, err
	}

	confession := &models.Confession{
		ConfessionID: confessionID,
		UserID:       userID,
		Text:         text,
		Status:       models.StatusPending,
	}
	if err := s.confessions.Create(ctx, confession); err != nil {
		return 0, err
	}
	return confessionID, nil
}

// Approve transitions a pending confession to approved and returns it
// for channel posting. The guarded status write makes the transition
// happen at most once.
func (s *Service) Approve(ctx context.Context, confessionID int64) (*models.Confession, error) {
	if err := s.confessions.SetStatus(ctx, confessionID, models.StatusPending, models.StatusApproved); err != nil {
		return nil, err
	}
	return s.confessions.GetByID(ctx, confessionID)
}

// Reject transitions a pending confession to rejected.
func (s *Service) Reject(ctx context.Context, confessionID int64) error {
	return s.confessions.SetStatus(ctx, confessionID, models.StatusPending, models.StatusRejected)
}

// SetChannelMessage records the broadcast channel message ID an
// approved confession was posted as.
func (s *Service) SetChannelMessage(ctx context.Context, confessionID int64, messageID int) error {
	return s.confessions.SetChannelMessageID(ctx, confessionID, messageID)
}

// Get retrieves a confession by ID.
func (s *Service) Get(ctx context.Context, confessionID int64) (*models.Confession, error) {
	return s.confessions.GetByID(ctx, confessionID)
}

// ListByUser retrieves a user's confessions, oldest first.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]models.Confession, error) {
	return s.confessions.GetByUserID(ctx, userID)
}

// AddComment appends a top-level comment to a confession and returns
// the new comment ID. Fails with ErrConfessionNotFound before any
// write if the confession does not exist.
func (s *Service) AddComment(ctx context.Context, confessionID, userID int64, text string) (int64, error) {
	req := models.AddCommentRequest{UserID: userID, Text: text}
	if err := s.validate.Struct(req); err != nil {
		return 0, err
	}

	if _, err := s.confessions.GetByID(ctx, confessionID); err != nil {
		return 0, err
	}

	commentID, err := s.counters.NextID(ctx, repositories.CommentSequence)
	if err != nil {
		return 0, err
	}

	comment := &models.Comment{
		CommentID:    commentID,
		ConfessionID: confessionID,
		UserID:       userID,
		Text:         text,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return 0, err
	}
	return commentID, nil
}

// AddReply attaches a reply to a top-level comment, inheriting the
// parent's confession ID, and bumps the parent's reply counter by one.
// Returns the reply ID and the confession ID. Fails with
// ErrParentNotFound before any write if the parent comment does not
// exist; replying to a reply is rejected the same way since replies
// nest exactly one level.
func (s *Service) AddReply(ctx context.Context, parentCommentID, userID int64, text string) (int64, int64, error) {
	req := models.AddCommentRequest{UserID: userID, Text: text}
	if err := s.validate.Struct(req); err != nil {
		return 0, 0, err
	}

	parent, err := s.comments.GetByID(ctx, parentCommentID)
	if err != nil {
		if errors.Is(err, repositories.ErrCommentNotFound) {
			return 0, 0, repositories.ErrParentNotFound
		}
		return 0, 0, err
	}
	if parent.IsReply() {
		return 0, 0, repositories.ErrParentNotFound
	}

	replyID, err := s.counters.NextID(ctx, repositories.CommentSequence)
	if err != nil {
		return 0, 0, err
	}

	reply := &models.Comment{
		CommentID:       replyID,
		ConfessionID:    parent.ConfessionID,
		UserID:          userID,
		Text:            text,
		ParentCommentID: &parentCommentID,
	}
	if err := s.comments.Create(ctx, reply); err != nil {
		return 0, 0, err
	}
	if err := s.comments.IncrementReplyCount(ctx, parentCommentID); err != nil {
		return 0, 0, err
	}
	return replyID, parent.ConfessionID, nil
}

// Thread is the display ordering of a confession's comments: top-level
// comments oldest first, replies grouped under their parent in the same
// order.
type Thread struct {
	TopLevel []models.Comment
	Replies  map[int64][]models.Comment
	Total    int
}

// GetThread retrieves a confession's full comment thread.
func (s *Service) GetThread(ctx context.Context, confessionID int64) (*Thread, error) {
	all, err := s.comments.GetByConfessionID(ctx, confessionID)
	if err != nil {
		return nil, err
	}

	thread := &Thread{Replies: make(map[int64][]models.Comment), Total: len(all)}
	for _, c := range all {
		if c.IsReply() {
			parentID := *c.ParentCommentID
			thread.Replies[parentID] = append(thread.Replies[parentID], c)
		} else {
			thread.TopLevel = append(thread.TopLevel, c)
		}
	}
	return thread, nil
}

// CountComments counts all comments and replies on a confession.
func (s *Service) CountComments(ctx context.Context, confessionID int64) (int64, error) {
	return s.comments.CountByConfessionID(ctx, confessionID)
}

// GetComment retrieves a single comment by ID.
func (s *Service) GetComment(ctx context.Context, commentID int64) (*models.Comment, error) {
	return s.comments.GetByID(ctx, commentID)
}

// ListCommentsByUser retrieves a user's most recent comments.
func (s *Service) ListCommentsByUser(ctx context.Context, userID int64, limit int64) ([]models.Comment, error) {
	return s.comments.GetByUserID(ctx, userID, limit)
}
