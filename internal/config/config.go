// Package config resolves runtime configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates client configuration.
type Config struct {
	GatewayURL         string
	LocalIdentity      string
	IdentityFile       string
	ResizeDebounce     time.Duration
	LocationRequestTTL time.Duration
	SubmitIndicatorTTL time.Duration
}

// Load reads .env when present, then resolves configuration from the
// environment with defaults.
func Load() (Config, error) {
	// Missing .env is fine; the environment may be set by the caller.
	_ = godotenv.Load()

	identityFile := strings.TrimSpace(os.Getenv("CONCIERGE_IDENTITY_FILE"))
	if identityFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolving home directory: %w", err)
		}
		identityFile = filepath.Join(home, ".config", "concierge", "user_info.json")
	}

	cfg := Config{
		GatewayURL:         envOrDefault("CONCIERGE_GATEWAY_URL", "ws://127.0.0.1:8000/session"),
		LocalIdentity:      envOrDefault("CONCIERGE_IDENTITY", "local-user"),
		IdentityFile:       identityFile,
		ResizeDebounce:     envDurationMs("CONCIERGE_RESIZE_DEBOUNCE_MS", time.Second),
		LocationRequestTTL: envDurationMs("CONCIERGE_LOCATION_REQUEST_TTL_MS", 30*time.Second),
		SubmitIndicatorTTL: envDurationMs("CONCIERGE_SUBMIT_INDICATOR_TTL_MS", 2*time.Second),
	}
	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envDurationMs(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
