package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/labstack/echo/v4"
	"github.com/mehron-dev/confessio/internal/bot"
	"github.com/mehron-dev/confessio/internal/confessions"
	"github.com/mehron-dev/confessio/internal/models"
	"github.com/mehron-dev/confessio/internal/reactions"
	"github.com/mehron-dev/confessio/internal/repositories"
	"github.com/mehron-dev/confessio/internal/router"
	"github.com/mehron-dev/confessio/pkg/config"
	"github.com/mehron-dev/confessio/validators"
)

const (
	sessionMaxIdle      = 30 * time.Minute
	sessionSweepEvery   = 5 * time.Minute
	shutdownGracePeriod = 10 * time.Second
)

func main() {
	// Initialize database connections (also loads .env)
	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.BotToken == "" || cfg.BotUsername == "" {
		log.Fatal("BOT_TOKEN and BOT_USERNAME environment variables must be set")
	}

	if err := db.Postgres.AutoMigrate(&models.Session{}); err != nil {
		log.Fatalf("Failed to migrate session table: %v", err)
	}

	mongoDB := db.Mongo.Database(cfg.MongoDBName)

	// Repositories
	counterRepo := repositories.NewMongoCounterRepository(mongoDB)
	userRepo := repositories.NewMongoUserRepository(mongoDB)
	confessionRepo := repositories.NewMongoConfessionRepository(mongoDB)
	commentRepo := repositories.NewMongoCommentRepository(mongoDB)
	sessionRepo := repositories.NewPostgresSessionRepository(db.Postgres)
	txnRunner := repositories.NewMongoTxnRunner(db.Mongo)

	// Core services
	engine := reactions.NewEngine(userRepo, commentRepo, txnRunner)
	svc := confessions.NewService(counterRepo, confessionRepo, commentRepo)

	// Telegram bot
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("Failed to connect to Telegram: %v", err)
	}
	confessionBot := bot.New(api, bot.Config{
		AdminChatID: cfg.AdminChatID,
		ChannelID:   cfg.ChannelID,
		BotUsername: cfg.BotUsername,
	}, userRepo, sessionRepo, svc, engine)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Sweep idle conversation sessions in the background
	go sweepSessions(ctx, sessionRepo)

	// HTTP server: health endpoint plus the read-only confession API
	e := echo.New()
	e.HideBanner = true
	router.SetupMiddleware(e)
	router.SetupRoutes(e, svc)
	e.Validator = validators.NewValidator()

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	if err := confessionBot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Bot stopped: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}
}

func sweepSessions(ctx context.Context, sessions repositories.SessionRepository) {
	ticker := time.NewTicker(sessionSweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			swept, err := sessions.DeleteInactive(sessionMaxIdle)
			if err != nil {
				log.Printf("Error sweeping sessions: %v", err)
				continue
			}
			if swept > 0 {
				log.Printf("Swept %d idle conversation sessions", swept)
			}
		}
	}
}
