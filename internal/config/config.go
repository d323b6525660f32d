package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application settings sourced from environment variables.
type Config struct {
	BotToken        string        `envconfig:"BOT_TOKEN" required:"true"`
	BaseURL         string        `envconfig:"BASE_URL" default:"http://localhost:8000"`
	Port            int           `envconfig:"PORT" default:"8000"`
	DownloadDir     string        `envconfig:"DOWNLOAD_DIR"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	QueueSize       int           `envconfig:"QUEUE_SIZE" default:"64"`
	DownloadTimeout time.Duration `envconfig:"DOWNLOAD_TIMEOUT" default:"5m"`
}

// Load reads configuration from the environment and prepares the download
// directory. Any error here is fatal to startup.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}

	cfg.BotToken = strings.TrimSpace(cfg.BotToken)
	if cfg.BotToken == "" {
		return Config{}, fmt.Errorf("BOT_TOKEN is not set")
	}

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return Config{}, fmt.Errorf("BASE_URL is empty")
	}

	if cfg.DownloadDir == "" {
		cfg.DownloadDir = os.TempDir()
	}
	if err := os.MkdirAll(cfg.DownloadDir, 0o755); err != nil {
		return Config{}, fmt.Errorf("create download dir: %w", err)
	}

	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = 5 * time.Minute
	}

	return cfg, nil
}

// ListenAddr renders the HTTP listen address.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// WebhookURL renders the token-authenticated endpoint Telegram should call.
func (c Config) WebhookURL() string {
	return c.BaseURL + "/" + c.BotToken
}
