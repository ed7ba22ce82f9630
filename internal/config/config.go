// Package config loads runtime settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort       = "3000"
	defaultLogLevel   = "info"
	defaultMaxRetries = 3
	defaultBackoffMs  = 500
)

// ErrMissingCredentials is returned when the Spotify client id or secret is unset.
var ErrMissingCredentials = errors.New("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET environment variables are required")

// Config holds everything the API process needs at startup.
type Config struct {
	Port         string
	LogLevel     string
	ClientID     string
	ClientSecret string
	MaxRetries   int
	RetryBackoff time.Duration
}

// Load reads .env files (when present) and then the process environment.
// Variables already set in the environment win over the files.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:         getenv("PORT", defaultPort),
		LogLevel:     strings.ToLower(getenv("LOG_LEVEL", defaultLogLevel)),
		ClientID:     strings.TrimSpace(os.Getenv("SPOTIFY_CLIENT_ID")),
		ClientSecret: strings.TrimSpace(os.Getenv("SPOTIFY_CLIENT_SECRET")),
		MaxRetries:   positiveInt("SPOTIFY_MAX_RETRIES", defaultMaxRetries),
		RetryBackoff: time.Duration(positiveInt("SPOTIFY_RETRY_BACKOFF_MS", defaultBackoffMs)) * time.Millisecond,
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return cfg, ErrMissingCredentials
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// positiveInt falls back when the variable is unset, malformed or not positive.
func positiveInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
		return parsed
	}
	return fallback
}
