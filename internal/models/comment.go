package models

import "time"

// Comment represents a comment on a confession stored in MongoDB.
// CommentID comes from the "comment_id" global sequence, independent of
// the confession sequence. A reply is a comment whose ParentCommentID
// is set; replies always attach to a top-level comment, never to
// another reply.
type Comment struct {
	CommentID       int64     `json:"comment_id" bson:"comment_id"`
	ConfessionID    int64     `json:"confession_id" bson:"confession_id"`
	UserID          int64     `json:"user_id" bson:"user_id"`
	Text            string    `json:"text" bson:"text"`
	Likes           int64     `json:"likes" bson:"likes"`
	Dislikes        int64     `json:"dislikes" bson:"dislikes"`
	ReplyCount      int64     `json:"reply_count" bson:"reply_count"`
	ParentCommentID *int64    `json:"parent_comment_id,omitempty" bson:"parent_comment_id,omitempty"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
}

// IsReply reports whether the comment is a reply to another comment.
func (c *Comment) IsReply() bool {
	return c.ParentCommentID != nil
}

// AddCommentRequest defines the validated input for commenting on a confession.
type AddCommentRequest struct {
	UserID int64  `json:"user_id" validate:"required"`
	Text   string `json:"text" validate:"required,min=1,max=1000"`
}
