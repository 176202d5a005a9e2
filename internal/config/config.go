package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv        string
	GinMode       string
	ServerHost    string
	ServerPort    string
	APIBaseURL    string
	APITimeout    time.Duration
	SessionSecret string
	SessionStore  string
	SessionMaxAge int
	RedisHost     string
	RedisPort     string
	CacheRedisURL string
	CacheUserTTL  time.Duration
	BoardIdleTTL  time.Duration
	LogLevel      string
	LogEncoding   string
	OpenAIAPIKey  string
	OpenAIBaseURL string
}

// Load reads the environment, after loading .env when one exists.
func Load() *Config {
	_ = godotenv.Load(".env")

	return &Config{
		AppEnv:        getEnv("APP_ENV", "development"),
		GinMode:       getEnv("GIN_MODE", "debug"),
		ServerHost:    getEnv("SERVER_HOST", "0.0.0.0"),
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		APIBaseURL:    strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:5000/api"), "/"),
		APITimeout:    getDuration("API_TIMEOUT", 10*time.Second),
		SessionSecret: getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		SessionStore:  getEnv("SESSION_STORE", "cookie"),
		SessionMaxAge: getInt("SESSION_MAX_AGE", 86400*7),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		CacheRedisURL: getEnv("CACHE_REDIS_URL", ""),
		CacheUserTTL:  getDuration("CACHE_USER_TTL", time.Minute),
		BoardIdleTTL:  getDuration("BOARD_IDLE_TTL", 30*time.Minute),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogEncoding:   getEnv("LOG_ENCODING", "json"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
	}
}

// Address returns the listen address of the HTTP server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.ServerHost, c.ServerPort)
}

// IsProduction reports whether cookies should be marked secure.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release" || c.AppEnv == "production"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
