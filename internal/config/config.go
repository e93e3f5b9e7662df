package config

import (
	"os"
	"strconv"
	"time"
)

// EngineConfig holds the tunables for the recommendation engine.
// Defaults match the production constants; override via environment variables.
type EngineConfig struct {
	// ProfileTTL is how long a cached user profile stays valid.
	ProfileTTL time.Duration

	// PlayHistoryWindow bounds how many recent plays are read per user.
	PlayHistoryWindow int

	// DrainThreshold is the queued feedback count that triggers a batch drain.
	DrainThreshold int

	// DrainInterval is the cooperative timer for batch feedback drains.
	DrainInterval time.Duration

	// RefreshInterval forces a full profile cache invalidation for all users.
	RefreshInterval time.Duration

	// TrendingWindow is the rolling window for the popularity aggregate.
	TrendingWindow time.Duration
}

// Load reads engine configuration from the environment with defaults.
func Load() EngineConfig {
	return EngineConfig{
		ProfileTTL:        getDuration("PROFILE_TTL", 30*time.Minute),
		PlayHistoryWindow: getInt("PLAY_HISTORY_WINDOW", 500),
		DrainThreshold:    getInt("FEEDBACK_DRAIN_THRESHOLD", 100),
		DrainInterval:     getDuration("FEEDBACK_DRAIN_INTERVAL", 5*time.Minute),
		RefreshInterval:   getDuration("PROFILE_REFRESH_INTERVAL", time.Hour),
		TrendingWindow:    getDuration("TRENDING_WINDOW", 7*24*time.Hour),
	}
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     string
	LogLevel string
	LogFile  string
}

// LoadServer reads HTTP server configuration from the environment.
func LoadServer() ServerConfig {
	return ServerConfig{
		Port:     getEnvOrDefault("PORT", "8080"),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:  getEnvOrDefault("LOG_FILE", "engine.log"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
