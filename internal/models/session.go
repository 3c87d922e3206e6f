package models

import "time"

// SessionState is the conversation FSM state for a user. It replaces
// the original design's ambient per-session scratch fields with an
// explicit context object.
type SessionState string

const (
	// StateAwaitingConfession: the next text message is a confession draft.
	StateAwaitingConfession SessionState = "awaiting_confession"
	// StateReviewingDraft: a draft is held and awaits submit/edit/cancel.
	StateReviewingDraft SessionState = "reviewing_draft"
	// StateAwaitingComment: the next text message is a comment on TargetID.
	StateAwaitingComment SessionState = "awaiting_comment"
	// StateAwaitingReply: the next text message is a reply to comment TargetID.
	StateAwaitingReply SessionState = "awaiting_reply"
)

// Session is the persisted conversation context, one row per user.
// TargetID is the confession ID for comments and the parent comment ID
// for replies. Draft holds the confession text between review and
// submission. Sessions are cleared on completion or cancellation and
// swept after inactivity.
type Session struct {
	UserID    int64        `json:"user_id" gorm:"primaryKey"`
	State     SessionState `json:"state" gorm:"not null"`
	TargetID  int64        `json:"target_id"`
	Draft     string       `json:"draft"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"index"`
}
