package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port            string
	Env             string
	BotToken        string
	BotUsername     string
	AdminChatID     int64
	ChannelID       int64
	MongoURI        string
	MongoDBName     string
	PostgresConnStr string
}

// Load reads configuration from the environment. BotToken, AdminChatID
// and ChannelID have no sensible defaults and are validated by the
// caller.
func Load() (*Config, error) {
	adminChatID, err := getEnvInt64("ADMIN_CHAT_ID")
	if err != nil {
		return nil, err
	}
	channelID, err := getEnvInt64("CHANNEL_ID")
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		BotToken:        os.Getenv("BOT_TOKEN"),
		BotUsername:     os.Getenv("BOT_USERNAME"),
		AdminChatID:     adminChatID,
		ChannelID:       channelID,
		MongoURI:        os.Getenv("MONGO_URI"),
		MongoDBName:     getEnv("DB_NAME", "confessio"),
		PostgresConnStr: os.Getenv("POSTGRES_CONN_STR"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, fmt.Errorf("%s environment variable not set", key)
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer chat ID: %w", key, err)
	}
	return value, nil
}
