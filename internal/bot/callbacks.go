package bot

import (
	"strconv"
	"strings"
)

// Callback data actions. Parameterized actions carry a trailing
// "_<id>" suffix.
const (
	actionConfess        = "confess"
	actionCancelConfess  = "cancel_confess"
	actionSubmitConfess  = "submit_confess"
	actionEditConfess    = "edit_confess"
	actionMainMenu       = "main_menu"
	actionMyConfessions  = "my_confessions"
	actionMyComments     = "my_comments"
	actionViewConfession = "view_confession"
	actionViewComments   = "view_comments"
	actionAddComment     = "add_comment"
	actionReplyComment   = "reply_comment"
	actionLikeComment    = "like_comment"
	actionDislikeComment = "dislike_comment"
	actionApprove        = "approve"
	actionReject         = "reject"
	actionDeleteConfess  = "delete_confess"
)

// callbackData renders an action with an ID parameter.
func callbackData(action string, id int64) string {
	return action + "_" + strconv.FormatInt(id, 10)
}

// parseCallback splits callback data into an action and an optional ID
// parameter. "like_comment_7" parses as ("like_comment", 7).
func parseCallback(data string) (action string, id int64) {
	idx := strings.LastIndex(data, "_")
	if idx < 0 {
		return data, 0
	}
	n, err := strconv.ParseInt(data[idx+1:], 10, 64)
	if err != nil {
		return data, 0
	}
	return data[:idx], n
}
