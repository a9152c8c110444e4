// Package config provides configuration loading for the room relay.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values for the relay process.
type Config struct {
	// Server settings
	Port           int
	Host           string
	AllowedOrigins []string

	// HTTP server timeouts
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	// WebSocket settings
	WSReadBufferSize  int
	WSWriteBufferSize int

	// RPC settings (C3/C4)
	BrowserRPCTimeout time.Duration
	LocalRPCTimeout   time.Duration
	BashExecSlack     time.Duration

	// Keepalive settings (C9)
	KeepaliveInterval time.Duration

	// Room lifecycle settings (C10)
	RoomIdleGrace time.Duration

	// Auth settings (C2)
	AuthRateLimitPerMinute int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnvInt("ROOM_RELAY_PORT", 8787),
		Host:           getEnv("ROOM_RELAY_HOST", "0.0.0.0"),
		AllowedOrigins: getEnvStringSlice("ALLOWED_ORIGINS", []string{"*"}),

		HTTPReadTimeout:  getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		HTTPWriteTimeout: getEnvDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		HTTPIdleTimeout:  getEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),

		WSReadBufferSize:  getEnvInt("WS_READ_BUFFER_SIZE", 4096),
		WSWriteBufferSize: getEnvInt("WS_WRITE_BUFFER_SIZE", 4096),

		BrowserRPCTimeout: getEnvDuration("BROWSER_RPC_TIMEOUT", 30*time.Second),
		LocalRPCTimeout:   getEnvDuration("LOCAL_RPC_TIMEOUT", 30*time.Second),
		BashExecSlack:     getEnvDuration("BASH_EXEC_SLACK", 5*time.Second),

		KeepaliveInterval: getEnvDuration("KEEPALIVE_INTERVAL", 5*time.Second),

		RoomIdleGrace: getEnvDuration("ROOM_IDLE_GRACE", 30*time.Second),

		AuthRateLimitPerMinute: getEnvInt("AUTH_RATE_LIMIT_PER_MINUTE", 30),
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvStringSlice returns a slice from a comma-separated environment variable.
func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
