package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServerAddr string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// JWT configuration. The secret and algorithm are always supplied from
	// the environment; the secret falls back to a random per-process value
	// so a missing variable never means a known signing key.
	JWTSecret      string
	JWTAlgorithm   string
	AccessTokenTTL time.Duration

	// RedisAddr enables the post cache when non-empty.
	RedisAddr string

	AllowedOrigins []string
	LogLevel       string
}

func Load() *Config {
	ttlMinutes, _ := strconv.Atoi(getEnvOrDefault("ACCESS_TOKEN_EXPIRE_MINUTES", "30"))
	if ttlMinutes <= 0 {
		ttlMinutes = 30
	}

	return &Config{
		ServerAddr:     getEnvOrDefault("SERVER_ADDR", ":8080"),
		DBHost:         getEnvOrDefault("DB_HOST", "localhost"),
		DBPort:         getEnvOrDefault("DB_PORT", "5432"),
		DBUser:         getEnvOrDefault("DB_USER", "pulseboard"),
		DBPassword:     getEnvOrDefault("DB_PASSWORD", "pulseboard_dev_password"),
		DBName:         getEnvOrDefault("DB_NAME", "pulseboard"),
		JWTSecret:      getEnvOrDefault("JWT_SECRET", generateDefaultSecret()),
		JWTAlgorithm:   getEnvOrDefault("JWT_ALGORITHM", "HS256"),
		AccessTokenTTL: time.Duration(ttlMinutes) * time.Minute,
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		AllowedOrigins: splitOrigins(getEnvOrDefault("ALLOWED_ORIGINS", "*")),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func generateDefaultSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "dev-secret-change-in-production"
	}
	return hex.EncodeToString(bytes)
}
