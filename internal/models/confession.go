package models

import "time"

// ConfessionStatus is the moderation state of a confession.
type ConfessionStatus string

const (
	StatusPending  ConfessionStatus = "pending"
	StatusApproved ConfessionStatus = "approved"
	StatusRejected ConfessionStatus = "rejected"
)

// Confession represents a user-submitted confession stored in MongoDB.
// ConfessionID comes from the "confession_id" global sequence and is
// never reused. ChannelMessageID is set once the confession is approved
// and posted to the broadcast channel.
type Confession struct {
	ConfessionID     int64            `json:"confession_id" bson:"confession_id"`
	UserID           int64            `json:"user_id" bson:"user_id"`
	Text             string           `json:"text" bson:"text"`
	Status           ConfessionStatus `json:"status" bson:"status"`
	ChannelMessageID int              `json:"channel_message_id,omitempty" bson:"channel_message_id,omitempty"`
	CreatedAt        time.Time        `json:"created_at" bson:"created_at"`
}

// SubmitConfessionRequest defines the validated input for submitting a confession.
type SubmitConfessionRequest struct {
	UserID int64  `json:"user_id" validate:"required"`
	Text   string `json:"text" validate:"required,min=10,max=3500"`
}
