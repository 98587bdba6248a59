package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingJWTSecret is returned when no signing secret is configured.
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort   string
	MySQLDSN     string
	ResetDB      bool
	RedisAddr    string
	RedisDB      int
	RedisPass    string
	JWTSecret    string
	JWTIssuer    string
	TokenTTL     time.Duration
	UserCacheTTL time.Duration
	RabbitMQURL  string
	EventsQueue  string
	LogLevel     string
	LogEncoding  string
	SwaggerHost  string

	AdminEmail    string
	AdminPassword string
}

// Load builds Config from environment with sensible defaults. A .env file in the
// working directory is read first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		MySQLDSN:      getEnv("MYSQL_DSN", "forum:forum@tcp(localhost:3306)/forumhub?charset=utf8mb4&parseTime=True&loc=UTC"),
		ResetDB:       getEnvBool("RESET_DB", false),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisPass:     os.Getenv("REDIS_PASSWORD"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTIssuer:     getEnv("JWT_ISSUER", "forumhub"),
		TokenTTL:      getEnvDuration("TOKEN_TTL", 24*time.Hour),
		UserCacheTTL:  getEnvDuration("USER_CACHE_TTL", 5*time.Minute),
		RabbitMQURL:   os.Getenv("RABBITMQ_URL"),
		EventsQueue:   getEnv("EVENTS_QUEUE", "forum.events"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogEncoding:   getEnv("LOG_ENCODING", "json"),
		SwaggerHost:   os.Getenv("SWAGGER_HOST"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return def
}
