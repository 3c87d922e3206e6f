package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mehron-dev/confessio/internal/models"
	"github.com/mehron-dev/confessio/internal/reactions"
	"github.com/mehron-dev/confessio/internal/repositories"
)

const (
	welcomeText    = "Welcome to Confession Bot! Choose an option:"
	tryAgainText   = "Something went wrong, please try again."
	promptConfess  = "Please send the text of your confession.\nYou will be able to review or edit it next."
	promptComment  = "Please send your comment:"
	promptReply    = "Please write your reply:"
	textPreviewLen = 50
)

// handleMessage routes plain text by the sender's session state. Text
// from a user with no session in progress starts a confession draft,
// matching the original flow.
func (b *Bot) handleMessage(ctx context.Context, m *tgbotapi.Message) {
	userID := m.From.ID
	chatID := m.Chat.ID

	if m.IsCommand() {
		if m.Command() == "start" {
			b.handleStart(ctx, m)
		}
		return
	}

	text := strings.TrimSpace(m.Text)
	if text == "" {
		return
	}

	session, err := b.sessions.Get(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			b.startDraftReview(userID, chatID, text)
			return
		}
		log.Printf("Error loading session for user %d: %v", userID, err)
		b.send(tgbotapi.NewMessage(chatID, tryAgainText))
		return
	}

	switch session.State {
	case models.StateAwaitingConfession, models.StateReviewingDraft:
		b.startDraftReview(userID, chatID, text)
	case models.StateAwaitingComment:
		b.submitComment(ctx, userID, chatID, session.TargetID, text)
	case models.StateAwaitingReply:
		b.submitReply(ctx, userID, chatID, session.TargetID, text)
	default:
		b.startDraftReview(userID, chatID, text)
	}
}

func (b *Bot) handleStart(ctx context.Context, m *tgbotapi.Message) {
	userID := m.From.ID
	if _, err := b.users.GetOrCreate(ctx, userID); err != nil {
		log.Printf("Error creating user %d: %v", userID, err)
	}

	if confessionID, ok := ParseStartPayload(m.CommandArguments()); ok {
		text, err := b.confessionView(ctx, confessionID)
		if err == nil {
			msg := tgbotapi.NewMessage(m.Chat.ID, text)
			msg.ReplyMarkup = confessionKeyboard(confessionID)
			b.send(msg)
			return
		}
	}

	msg := tgbotapi.NewMessage(m.Chat.ID, welcomeText)
	msg.ReplyMarkup = mainMenuKeyboard()
	b.send(msg)
}

// startDraftReview stores the draft and offers submit/edit/cancel.
func (b *Bot) startDraftReview(userID, chatID int64, text string) {
	err := b.sessions.Put(&models.Session{
		UserID: userID,
		State:  models.StateReviewingDraft,
		Draft:  text,
	})
	if err != nil {
		log.Printf("Error saving draft for user %d: %v", userID, err)
		b.send(tgbotapi.NewMessage(chatID, tryAgainText))
		return
	}

	msg := tgbotapi.NewMessage(chatID, "Here is your confession for review:\n\n"+text)
	msg.ReplyMarkup = reviewKeyboard()
	b.send(msg)
}

func (b *Bot) submitComment(ctx context.Context, userID, chatID, confessionID int64, text string) {
	_, err := b.svc.AddComment(ctx, confessionID, userID, text)
	if err != nil {
		b.send(tgbotapi.NewMessage(chatID, commentErrorText(err)))
		return
	}
	if err := b.sessions.Clear(userID); err != nil {
		log.Printf("Error clearing session for user %d: %v", userID, err)
	}

	b.updateChannelCount(ctx, confessionID)

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("✅ Your comment has been added to Confession #%d!", confessionID))
	msg.ReplyMarkup = afterCommentKeyboard(confessionID)
	b.send(msg)
}

func (b *Bot) submitReply(ctx context.Context, userID, chatID, parentCommentID int64, text string) {
	_, confessionID, err := b.svc.AddReply(ctx, parentCommentID, userID, text)
	if err != nil {
		b.send(tgbotapi.NewMessage(chatID, commentErrorText(err)))
		return
	}
	if err := b.sessions.Clear(userID); err != nil {
		log.Printf("Error clearing session for user %d: %v", userID, err)
	}

	b.updateChannelCount(ctx, confessionID)

	msg := tgbotapi.NewMessage(chatID, "✅ Your reply has been added!")
	msg.ReplyMarkup = afterCommentKeyboard(confessionID)
	b.send(msg)
}

func commentErrorText(err error) string {
	var vErrs validator.ValidationErrors
	switch {
	case errors.Is(err, repositories.ErrConfessionNotFound):
		return "Confession not found."
	case errors.Is(err, repositories.ErrParentNotFound):
		return "Comment not found."
	case errors.As(err, &vErrs):
		return "That text doesn't fit, please try a different length."
	default:
		return tryAgainText
	}
}

// handleCallback routes inline button presses.
func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Message == nil {
		b.answer(query, "")
		return
	}

	action, id := parseCallback(query.Data)
	userID := query.From.ID
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID

	switch action {
	case actionConfess:
		b.beginConfession(userID, chatID, messageID, query)

	case actionCancelConfess:
		if err := b.sessions.Clear(userID); err != nil {
			log.Printf("Error clearing session for user %d: %v", userID, err)
		}
		b.answer(query, "")
		b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID,
			"Confession canceled.\n\n"+welcomeText, mainMenuKeyboard()))

	case actionMainMenu:
		b.answer(query, "")
		b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, welcomeText, mainMenuKeyboard()))

	case actionEditConfess:
		if err := b.sessions.Put(&models.Session{UserID: userID, State: models.StateAwaitingConfession}); err != nil {
			log.Printf("Error saving session for user %d: %v", userID, err)
		}
		b.answer(query, "")
		b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID,
			"Please send the edited text of your confession.", cancelConfessKeyboard()))

	case actionSubmitConfess:
		b.finishConfession(ctx, userID, chatID, messageID, query)

	case actionMyConfessions:
		b.showMyConfessions(ctx, userID, chatID, messageID, query)

	case actionMyComments:
		b.showMyComments(ctx, userID, chatID, messageID, query)

	case actionViewConfession:
		text, err := b.confessionView(ctx, id)
		if err != nil {
			b.answer(query, "")
			b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, "Confession not found.", backToMainKeyboard()))
			return
		}
		b.answer(query, "")
		b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, confessionKeyboard(id)))

	case actionViewComments:
		b.showComments(ctx, chatID, messageID, id, query)

	case actionAddComment:
		if err := b.sessions.Put(&models.Session{UserID: userID, State: models.StateAwaitingComment, TargetID: id}); err != nil {
			log.Printf("Error saving session for user %d: %v", userID, err)
		}
		b.answer(query, "")
		b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, promptComment, backToConfessionKeyboard(id)))

	case actionReplyComment:
		b.beginReply(ctx, userID, chatID, messageID, id, query)

	case actionLikeComment:
		b.applyReaction(ctx, userID, chatID, messageID, id, reactions.Like, query)

	case actionDislikeComment:
		b.applyReaction(ctx, userID, chatID, messageID, id, reactions.Dislike, query)

	case actionApprove:
		b.approveConfession(ctx, chatID, messageID, id, query)

	case actionReject:
		b.rejectConfession(ctx, chatID, messageID, id, query)

	case actionDeleteConfess:
		b.answer(query, fmt.Sprintf("Deletion request for confession #%d sent to admins.", id))
		b.send(tgbotapi.NewMessage(b.cfg.AdminChatID,
			fmt.Sprintf("User %d requests deletion of confession #%d.", userID, id)))

	default:
		b.answer(query, "")
	}
}

func (b *Bot) beginConfession(userID, chatID int64, messageID int, query *tgbotapi.CallbackQuery) {
	if err := b.sessions.Put(&models.Session{UserID: userID, State: models.StateAwaitingConfession}); err != nil {
		log.Printf("Error saving session for user %d: %v", userID, err)
		b.answer(query, tryAgainText)
		return
	}
	b.answer(query, "")
	b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, promptConfess, cancelConfessKeyboard()))
}

func (b *Bot) finishConfession(ctx context.Context, userID, chatID int64, messageID int, query *tgbotapi.CallbackQuery) {
	session, err := b.sessions.Get(userID)
	if err != nil || session.State != models.StateReviewingDraft || session.Draft == "" {
		b.answer(query, "Nothing to submit, send your confession first.")
		return
	}

	confessionID, err := b.svc.Submit(ctx, userID, session.Draft)
	if err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			b.answer(query, "Confessions must be between 10 and 3500 characters.")
			return
		}
		b.answer(query, tryAgainText)
		return
	}

	adminMsg := tgbotapi.NewMessage(b.cfg.AdminChatID,
		fmt.Sprintf("New confession received (ID: #%d):\n\n%s", confessionID, session.Draft))
	adminMsg.ReplyMarkup = adminReviewKeyboard(confessionID)
	b.send(adminMsg)

	if err := b.sessions.Clear(userID); err != nil {
		log.Printf("Error clearing session for user %d: %v", userID, err)
	}
	b.answer(query, "")
	b.send(tgbotapi.NewEditMessageText(chatID, messageID, "Your confession has been sent to admins for approval."))
}

func (b *Bot) approveConfession(ctx context.Context, chatID int64, messageID int, confessionID int64, query *tgbotapi.CallbackQuery) {
	confession, err := b.svc.Approve(ctx, confessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrConfessionNotFound) {
			b.answer(query, "Confession already decided or missing.")
			return
		}
		b.answer(query, tryAgainText)
		return
	}

	post := tgbotapi.NewMessage(b.cfg.ChannelID,
		fmt.Sprintf("Confession #%d\n\n%s", confessionID, confession.Text))
	post.ReplyMarkup = channelKeyboard(b.cfg.BotUsername, confessionID, 0)
	sent := b.send(post)
	if sent != nil {
		if err := b.svc.SetChannelMessage(ctx, confessionID, sent.MessageID); err != nil {
			log.Printf("Error storing channel message for confession %d: %v", confessionID, err)
		}
	}

	b.answer(query, "")
	b.send(tgbotapi.NewEditMessageText(chatID, messageID,
		fmt.Sprintf("Confession #%d approved ✅", confessionID)))
}

func (b *Bot) rejectConfession(ctx context.Context, chatID int64, messageID int, confessionID int64, query *tgbotapi.CallbackQuery) {
	if err := b.svc.Reject(ctx, confessionID); err != nil {
		if errors.Is(err, repositories.ErrConfessionNotFound) {
			b.answer(query, "Confession already decided or missing.")
			return
		}
		b.answer(query, tryAgainText)
		return
	}
	b.answer(query, "")
	b.send(tgbotapi.NewEditMessageText(chatID, messageID,
		fmt.Sprintf("Confession #%d rejected ❌", confessionID)))
}

func (b *Bot) beginReply(ctx context.Context, userID, chatID int64, messageID int, commentID int64, query *tgbotapi.CallbackQuery) {
	comment, err := b.svc.GetComment(ctx, commentID)
	if err != nil {
		b.answer(query, "Comment not found.")
		return
	}
	if err := b.sessions.Put(&models.Session{UserID: userID, State: models.StateAwaitingReply, TargetID: commentID}); err != nil {
		log.Printf("Error saving session for user %d: %v", userID, err)
		b.answer(query, tryAgainText)
		return
	}

	display := b.renderComment(ctx, comment)
	b.answer(query, "")
	b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID,
		fmt.Sprintf("📝 Replying to:\n\n%s\n\n%s", display, promptReply),
		backToConfessionKeyboard(comment.ConfessionID)))
}

// applyReaction runs the engine and refreshes the comment message's
// buttons with the returned counts.
func (b *Bot) applyReaction(ctx context.Context, userID, chatID int64, messageID int, commentID int64, kind reactions.Kind, query *tgbotapi.CallbackQuery) {
	result, err := b.engine.Apply(ctx, commentID, userID, kind)
	if err != nil {
		if errors.Is(err, repositories.ErrCommentNotFound) {
			b.answer(query, "Comment not found.")
			return
		}
		b.answer(query, tryAgainText)
		return
	}

	comment, err := b.svc.GetComment(ctx, commentID)
	if err != nil {
		b.answer(query, "")
		return
	}

	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID,
		commentKeyboard(comment, result.Likes, result.Dislikes))
	if _, err := b.api.Request(edit); err != nil {
		log.Printf("Error refreshing reaction buttons: %v", err)
	}
	b.answer(query, "")
}

func (b *Bot) showComments(ctx context.Context, chatID int64, messageID int, confessionID int64, query *tgbotapi.CallbackQuery) {
	thread, err := b.svc.GetThread(ctx, confessionID)
	if err != nil {
		b.answer(query, tryAgainText)
		return
	}
	b.answer(query, "")

	if thread.Total == 0 {
		b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID,
			fmt.Sprintf("📝 Comments for Confession #%d\n\nNo comments yet. Be the first to comment!", confessionID),
			confessionKeyboard(confessionID)))
		return
	}

	b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID,
		fmt.Sprintf("📝 Comments for Confession #%d (oldest first):", confessionID),
		confessionKeyboard(confessionID)))

	// Each comment is its own message so its reaction buttons can be
	// edited independently; replies follow their parent.
	for i := range thread.TopLevel {
		comment := &thread.TopLevel[i]
		b.sendComment(ctx, chatID, comment, false)
		for j := range thread.Replies[comment.CommentID] {
			b.sendComment(ctx, chatID, &thread.Replies[comment.CommentID][j], true)
		}
	}
}

func (b *Bot) sendComment(ctx context.Context, chatID int64, comment *models.Comment, isReply bool) {
	display := b.renderComment(ctx, comment)
	if isReply {
		display = "↪️ " + display
	}
	msg := tgbotapi.NewMessage(chatID, display)
	msg.ReplyMarkup = commentKeyboard(comment, comment.Likes, comment.Dislikes)
	b.send(msg)
}

// renderComment shows the author line (nickname, emoji, aura) above the
// comment text.
func (b *Bot) renderComment(ctx context.Context, comment *models.Comment) string {
	author, err := b.users.GetOrCreate(ctx, comment.UserID)
	if err != nil {
		return comment.Text
	}
	return fmt.Sprintf("%s %s ⚡ %d\n💬 %s\n\n🕐 %s",
		author.ProfileEmoji, author.Nickname, author.Aura,
		comment.Text, comment.CreatedAt.Format("15:04"))
}

func (b *Bot) confessionView(ctx context.Context, confessionID int64) (string, error) {
	confession, err := b.svc.Get(ctx, confessionID)
	if err != nil {
		return "", err
	}
	count, err := b.svc.CountComments(ctx, confessionID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("📄 Confession #%d\n\n%s\n\n💬 Comments: %d", confessionID, confession.Text, count), nil
}

func (b *Bot) showMyConfessions(ctx context.Context, userID, chatID int64, messageID int, query *tgbotapi.CallbackQuery) {
	list, err := b.svc.ListByUser(ctx, userID)
	if err != nil {
		b.answer(query, tryAgainText)
		return
	}
	b.answer(query, "")

	if len(list) == 0 {
		b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID,
			"You haven't confessed yet.", myConfessionsKeyboard(nil)))
		return
	}

	var sb strings.Builder
	sb.WriteString("📜 Your Confessions:\n\n")
	var pending []int64
	for _, confession := range list {
		sb.WriteString(fmt.Sprintf("ID: #%d (%s)\n\"%s\"\n\n",
			confession.ConfessionID, statusLabel(confession.Status), preview(confession.Text)))
		if confession.Status == models.StatusPending {
			pending = append(pending, confession.ConfessionID)
		}
	}
	b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, sb.String(), myConfessionsKeyboard(pending)))
}

func (b *Bot) showMyComments(ctx context.Context, userID, chatID int64, messageID int, query *tgbotapi.CallbackQuery) {
	comments, err := b.svc.ListCommentsByUser(ctx, userID, 10)
	if err != nil {
		b.answer(query, tryAgainText)
		return
	}
	b.answer(query, "")

	if len(comments) == 0 {
		b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID,
			"You haven't commented on any confessions yet.", backToMainKeyboard()))
		return
	}

	var sb strings.Builder
	sb.WriteString("📝 Your Comments:\n\n")
	for _, comment := range comments {
		sb.WriteString(fmt.Sprintf("On Confession #%d:\n\"%s\"\n\n", comment.ConfessionID, preview(comment.Text)))
	}
	b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, sb.String(), backToMainKeyboard()))
}

// updateChannelCount refreshes the comment-count button on the channel
// post after a new comment or reply.
func (b *Bot) updateChannelCount(ctx context.Context, confessionID int64) {
	confession, err := b.svc.Get(ctx, confessionID)
	if err != nil || confession.ChannelMessageID == 0 {
		return
	}
	count, err := b.svc.CountComments(ctx, confessionID)
	if err != nil {
		return
	}

	edit := tgbotapi.NewEditMessageReplyMarkup(b.cfg.ChannelID, confession.ChannelMessageID,
		channelKeyboard(b.cfg.BotUsername, confessionID, count))
	if _, err := b.api.Request(edit); err != nil {
		log.Printf("Error updating channel post for confession %d: %v", confessionID, err)
	}
}

func statusLabel(status models.ConfessionStatus) string {
	switch status {
	case models.StatusApproved:
		return "✅ Approved"
	case models.StatusRejected:
		return "❌ Rejected"
	default:
		return "⏳ Pending"
	}
}

func preview(text string) string {
	if len(text) > textPreviewLen {
		return text[:textPreviewLen] + "..."
	}
	return text
}
