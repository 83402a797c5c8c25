package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Lifecycle LifecycleConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Persist   PersistConfig
	Notify    NotifyConfig
	Displays  DisplaysConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8090"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// LifecycleConfig holds pause/stop scheduling configuration.
type LifecycleConfig struct {
	// PauseAckTimeout bounds how long a live process may take to
	// acknowledge a pause before the server proceeds without it.
	PauseAckTimeout time.Duration `envconfig:"PAUSE_ACK_TIMEOUT" default:"500ms"`
	// StopDelay is how long a paused, no-longer-visible unit lingers
	// before it is stopped.
	StopDelay time.Duration `envconfig:"STOP_DELAY" default:"10s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// PersistConfig holds task snapshot persistence configuration.
type PersistConfig struct {
	Dir     string `envconfig:"PERSIST_DIR" default:"/tmp/windowd-tasks"`
	Enabled bool   `envconfig:"PERSIST_ENABLED" default:"true"`
}

// NotifyConfig holds organizer webhook configuration.
type NotifyConfig struct {
	WebhookURL string `envconfig:"ORGANIZER_WEBHOOK_URL" default:""`
	RetryMax   int    `envconfig:"ORGANIZER_WEBHOOK_RETRIES" default:"3"`
}

// DisplaysConfig points at the optional display seed file.
type DisplaysConfig struct {
	SeedPath string `envconfig:"DISPLAY_SEED_PATH" default:""`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8090",
			Host: "0.0.0.0",
		},
		Lifecycle: LifecycleConfig{
			PauseAckTimeout: 500 * time.Millisecond,
			StopDelay:       10 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Persist: PersistConfig{
			Dir:     "/tmp/windowd-tasks",
			Enabled: true,
		},
		Notify: NotifyConfig{
			RetryMax: 3,
		},
	}
}
