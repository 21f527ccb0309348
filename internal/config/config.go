package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	RedisURL   string
	DataDir    string
	QuizFile   string
	SessionTTL time.Duration

	EncounterThreshold int

	// Airtable settings are optional at startup. Requests to the subscribe
	// endpoint fail with a configuration error while key or base are empty.
	AirtableAPIKey    string
	AirtableBaseID    string
	AirtableTableName string
	AirtableBaseURL   string
	SubscribeSource   string
}

// Load reads configuration from the environment. Values from a .env file in
// the working directory are applied first without overriding variables that
// are already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	sessionTTL, err := time.ParseDuration(getEnv("SESSION_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	threshold, err := strconv.Atoi(getEnv("ENCOUNTER_THRESHOLD", "12"))
	if err != nil {
		return nil, fmt.Errorf("invalid ENCOUNTER_THRESHOLD: %w", err)
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),

		RedisURL:   getEnv("REDIS_URL", "localhost:6379"),
		DataDir:    getEnv("DATA_DIR", "./data"),
		QuizFile:   getEnv("QUIZ_FILE", "quizzes.json"),
		SessionTTL: sessionTTL,

		EncounterThreshold: threshold,

		AirtableAPIKey:    os.Getenv("AIRTABLE_API_KEY"),
		AirtableBaseID:    os.Getenv("AIRTABLE_BASE_ID"),
		AirtableTableName: getEnv("AIRTABLE_TABLE_NAME", "Leads"),
		AirtableBaseURL:   getEnv("AIRTABLE_BASE_URL", "https://api.airtable.com/v0"),
		SubscribeSource:   getEnv("SUBSCRIBE_SOURCE", "garlic-tiger-game"),
	}, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetEnv returns the value of the environment variable named by key, or
// defaultValue when it is unset or empty.
func GetEnv(key, defaultValue string) string {
	return getEnv(key, defaultValue)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
