// Package config loads the widget configuration from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration shared by the server and the terminal client.
type Config struct {
	Port         string             `yaml:"port" env:"CHATWIDGET_PORT"`
	ShowSources  bool               `yaml:"showSources" env:"CHATWIDGET_SHOW_SOURCES"`
	Backend      BackendConfig      `yaml:"backend"`
	Notification NotificationConfig `yaml:"notification"`
	Session      SessionConfig      `yaml:"session"`
	Log          LogConfig          `yaml:"log"`
}

// BackendConfig points at the chatbot backend.
type BackendConfig struct {
	BaseURL string `yaml:"baseURL" env:"CHATWIDGET_BACKEND_URL"`
	// Timeout bounds a whole backend request. Zero disables it.
	Timeout time.Duration `yaml:"timeout" env:"CHATWIDGET_BACKEND_TIMEOUT"`
}

// NotificationConfig controls the transient notification.
type NotificationConfig struct {
	TTL time.Duration `yaml:"ttl" env:"CHATWIDGET_NOTIFICATION_TTL"`
}

// SessionConfig controls how long idle web sessions are kept.
type SessionConfig struct {
	IdleTimeout   time.Duration `yaml:"idleTimeout" env:"CHATWIDGET_SESSION_IDLE_TIMEOUT"`
	EvictInterval time.Duration `yaml:"evictInterval" env:"CHATWIDGET_SESSION_EVICT_INTERVAL"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level    string `yaml:"level" env:"CHATWIDGET_LOG_LEVEL"`
	Format   string `yaml:"format" env:"CHATWIDGET_LOG_FORMAT"`
	Output   string `yaml:"output" env:"CHATWIDGET_LOG_OUTPUT"`
	FilePath string `yaml:"filePath" env:"CHATWIDGET_LOG_FILE_PATH"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Port:        "8080",
		ShowSources: true,
		Backend: BackendConfig{
			BaseURL: "http://localhost:8000",
		},
		Notification: NotificationConfig{
			TTL: 5 * time.Second,
		},
		Session: SessionConfig{
			IdleTimeout:   30 * time.Minute,
			EvictInterval: time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// DefaultPath returns <user config dir>/chatwidget/config.yaml.
func DefaultPath() (string, error) {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("error getting user config dir: %w", err)
	}
	return filepath.Join(cfgDir, "chatwidget", "config.yaml"), nil
}

// Load reads the YAML file at path on top of the defaults and then applies environment overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("error opening config file: %w", err)
		default:
			defer f.Close()
			if err := yaml.NewDecoder(f).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
				return Config{}, fmt.Errorf("error decoding config file: %w", err)
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("error parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.baseURL %q is not an absolute url", c.Backend.BaseURL)
	}
	if c.Backend.Timeout < 0 {
		return fmt.Errorf("backend.timeout must not be negative")
	}
	if c.Notification.TTL <= 0 {
		return fmt.Errorf("notification.ttl must be positive")
	}
	if c.Session.IdleTimeout <= 0 || c.Session.EvictInterval <= 0 {
		return fmt.Errorf("session.idleTimeout and session.evictInterval must be positive")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q is not one of text, json", c.Log.Format)
	}
	switch c.Log.Output {
	case "stdout", "stderr", "discard":
	case "file":
		if c.Log.FilePath == "" {
			return fmt.Errorf("log.filePath is required when log.output is file")
		}
	default:
		return fmt.Errorf("log.output %q is not one of stdout, stderr, file, discard", c.Log.Output)
	}
	return nil
}
