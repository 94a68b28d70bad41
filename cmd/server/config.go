package main

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/championship"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/redis"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/store"
)

// Config holds all configuration values for the application.
type Config struct {
	StoreConfig store.Config
	RedisConfig redis.Config
	RedisEnable bool

	Championship championship.Config

	ServerPort  string
	Environment string

	JWTSecret         string
	AdminPasswordHash string
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() Config {
	// Load .env file if it exists
	godotenv.Load()

	return Config{
		StoreConfig: store.Config{
			Driver:   getEnv("DB_DRIVER", "sqlite"),
			Path:     getEnv("SQLITE_PATH", "championship.db"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "connect4_championship"),
		},
		RedisConfig: redis.Config{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		RedisEnable: getEnv("REDIS_HOST", "") != "",

		Championship: championship.Config{
			TurnCap:     getEnvDuration("TURN_TIMEOUT_SECONDS", 10*time.Second),
			MatchBank:   getEnvDuration("MATCH_BANK_SECONDS", 240*time.Second),
			SetupWindow: getEnvDuration("SETUP_WINDOW_SECONDS", 30*time.Second),
			MaxParallel: getEnvInt("MAX_PARALLEL_MATCHES", 5),
			MinTeams:    getEnvInt("MIN_TEAMS", 2),
			MaxTeams:    getEnvInt("MAX_TEAMS", 20),
		},

		ServerPort:  getEnv("SERVER_PORT", "8080"),
		Environment: getEnv("ENV", "development"),

		JWTSecret:         getEnv("JWT_SECRET", "secret"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
	}
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}
