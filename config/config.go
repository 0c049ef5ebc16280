package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"gitlab.com/MikeTTh/env"
)

// Config holds all the configuration for the application
type Config struct {
	BotToken     string
	ChannelID    string
	APIBaseURL   string
	DatabasePath string
	Timezone     string

	FetchTimeout time.Duration
	MaxAttempts  int
	BackoffBase  time.Duration
	HistoryLimit int
	BatchSize    int
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	botToken := env.String("TELEGRAM_TOKEN", "")
	if botToken == "" {
		return nil, errors.New("TELEGRAM_TOKEN environment variable is required")
	}

	channelID := env.String("CHANNEL_ID", "@BLACKHOUSE_CONCURSOS")
	if channelID == "" {
		return nil, errors.New("CHANNEL_ID environment variable is required")
	}

	cfg := &Config{
		BotToken:     botToken,
		ChannelID:    channelID,
		APIBaseURL:   env.String("QUESTIONS_API_URL", "https://blackhouse-api-production.up.railway.app/questoes"),
		DatabasePath: env.String("DB_PATH", "./data/concursobot.db"),
		Timezone:     env.String("TZ_NAME", "America/Sao_Paulo"),
	}

	var err error
	if cfg.FetchTimeout, err = durationVar("FETCH_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.MaxAttempts, err = intVar("FETCH_MAX_ATTEMPTS", 3); err != nil {
		return nil, err
	}
	if cfg.BackoffBase, err = durationVar("FETCH_BACKOFF_BASE", 700*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.HistoryLimit, err = intVar("HISTORY_LIMIT", 500); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = intVar("BATCH_SIZE", 10); err != nil {
		return nil, err
	}

	return cfg, nil
}

func intVar(key string, def int) (int, error) {
	raw := env.String(key, "")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return n, nil
}

func durationVar(key string, def time.Duration) (time.Duration, error) {
	raw := env.String(key, "")
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 10s or 700ms: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}
