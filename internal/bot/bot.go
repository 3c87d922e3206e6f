// Package bot is the Telegram conversation controller: menus, the
// confession submission and approval flow, comment threads, and the
// reaction buttons that drive the reaction engine.
package bot

import (
	"context"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mehron-dev/confessio/internal/confessions"
	"github.com/mehron-dev/confessio/internal/reactions"
	"github.com/mehron-dev/confessio/internal/repositories"
)

// Config holds the chat identifiers the bot talks to.
type Config struct {
	AdminChatID int64
	ChannelID   int64
	BotUsername string
}

// Bot wires the Telegram API to the confession service, the reaction
// engine, and the session store.
type Bot struct {
	api      *tgbotapi.BotAPI
	cfg      Config
	users    repositories.UserRepository
	sessions repositories.SessionRepository
	svc      *confessions.Service
	engine   *reactions.Engine
}

// New creates a new Bot
func New(api *tgbotapi.BotAPI, cfg Config, users repositories.UserRepository, sessions repositories.SessionRepository, svc *confessions.Service, engine *reactions.Engine) *Bot {
	return &Bot{
		api:      api,
		cfg:      cfg,
		users:    users,
		sessions: sessions,
		svc:      svc,
		engine:   engine,
	}
}

// Run starts long polling and dispatches each update on its own
// goroutine. Returns when ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30

	updates := b.api.GetUpdatesChan(updateConfig)
	log.Printf("Bot %s polling for updates", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil && update.Message.Text != "":
		b.handleMessage(ctx, update.Message)
	}
}

// send delivers a message and logs delivery failures instead of
// propagating them; the bot has no channel to report them to anyway.
func (b *Bot) send(c tgbotapi.Chattable) *tgbotapi.Message {
	msg, err := b.api.Send(c)
	if err != nil {
		log.Printf("Error sending message: %v", err)
		return nil
	}
	return &msg
}

// answer acknowledges a callback query, optionally with an alert text.
func (b *Bot) answer(query *tgbotapi.CallbackQuery, text string) {
	cb := tgbotapi.NewCallback(query.ID, text)
	if _, err := b.api.Request(cb); err != nil {
		log.Printf("Error answering callback: %v", err)
	}
}
