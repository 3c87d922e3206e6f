package models

// User represents a bot user stored in MongoDB, keyed by the Telegram
// user ID. LikedComments and DislikedComments are the per-user reaction
// membership sets; a comment ID appears in at most one of the two.
type User struct {
	TelegramID       int64   `json:"telegram_id" bson:"telegram_id"`
	Nickname         string  `json:"nickname" bson:"nickname"`
	ProfileEmoji     string  `json:"profile_emoji" bson:"profile_emoji"`
	Aura             int64   `json:"aura" bson:"aura"`
	LikedComments    []int64 `json:"liked_comments" bson:"liked_comments"`
	DislikedComments []int64 `json:"disliked_comments" bson:"disliked_comments"`
}

// Defaults assigned when a user is first seen.
const (
	DefaultNickname = "Anonymous"
	DefaultEmoji    = "👤"
)

// HasLiked reports whether the user currently likes the given comment.
func (u *User) HasLiked(commentID int64) bool {
	return containsID(u.LikedComments, commentID)
}

// HasDisliked reports whether the user currently dislikes the given comment.
func (u *User) HasDisliked(commentID int64) bool {
	return containsID(u.DislikedComments, commentID)
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
