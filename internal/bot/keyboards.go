package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mehron-dev/confessio/internal/models"
)

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Confess", actionConfess),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("My Confessions", actionMyConfessions),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("My Comments", actionMyComments),
		),
	)
}

func cancelConfessKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", actionCancelConfess),
		),
	)
}

func reviewKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Submit", actionSubmitConfess),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏ Edit", actionEditConfess),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", actionCancelConfess),
		),
	)
}

func adminReviewKeyboard(confessionID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", callbackData(actionApprove, confessionID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Reject", callbackData(actionReject, confessionID)),
		),
	)
}

func channelKeyboard(botUsername string, confessionID, commentCount int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(
				fmt.Sprintf("💬 View / Add Comments (%d)", commentCount),
				DeepLink(botUsername, confessionID),
			),
		),
	)
}

func confessionKeyboard(confessionID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💬 Add Comment", callbackData(actionAddComment, confessionID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 View Comments", callbackData(actionViewComments, confessionID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏠 Main Menu", actionMainMenu),
		),
	)
}

// commentKeyboard puts the live reaction counts on the buttons so a
// message edit after a toggle refreshes them in place.
func commentKeyboard(comment *models.Comment, likes, dislikes int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("👍 %d", likes), callbackData(actionLikeComment, comment.CommentID)),
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("👎 %d", dislikes), callbackData(actionDislikeComment, comment.CommentID)),
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("💬 Reply (%d)", comment.ReplyCount), callbackData(actionReplyComment, comment.CommentID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📄 View Confession", callbackData(actionViewConfession, comment.ConfessionID)),
		),
	)
}

func backToConfessionKeyboard(confessionID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", callbackData(actionViewConfession, confessionID)),
		),
	)
}

func afterCommentKeyboard(confessionID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 View Comments", callbackData(actionViewComments, confessionID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📄 View Confession", callbackData(actionViewConfession, confessionID)),
		),
	)
}

func myConfessionsKeyboard(pending []int64) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, id := range pending {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("Request Deletion for #%d", id), callbackData(actionDeleteConfess, id)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Submit New Confession", actionConfess),
	))
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🏠 Main Menu", actionMainMenu),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func backToMainKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏠 Main Menu", actionMainMenu),
		),
	)
}
