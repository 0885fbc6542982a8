package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
// Values come from the environment (optionally via a .env file) with
// simple defaults for local development.
type Config struct {
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis配置（仅当 CacheBackend 为 redis 时需要）
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// 歌曲解析缓存配置
	CacheBackend  string // "memory" 或 "redis"
	CacheTTL      time.Duration
	CacheMaxSongs int

	// 上游流媒体源（RapidAPI风格：key + host 两个凭证）
	UpstreamBaseURL string
	UpstreamAPIKey  string
	UpstreamAPIHost string
	UpstreamRegion  string

	// 上游请求重试策略
	FetchMaxAttempts int
	FetchBaseDelay   time.Duration
	FetchTimeout     time.Duration

	JWTSecret string

	LogLevel string
	LogPath  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// Attempt to load .env file. godotenv.Load() will not override existing env vars.
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		Port: getEnv("PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // no hardcoded default for passwords
		DBName:     getEnv("DB_NAME", "streamvibe"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		CacheBackend:  getEnv("SONG_CACHE_BACKEND", "memory"),
		CacheTTL:      time.Duration(getEnvInt("SONG_CACHE_TTL_SECONDS", 600)) * time.Second,
		CacheMaxSongs: getEnvInt("SONG_CACHE_MAX_ENTRIES", 1024),

		UpstreamBaseURL: getEnv("RAPID_API_BASE_URL", ""),
		UpstreamAPIKey:  os.Getenv("RAPID_API_KEY"),
		UpstreamAPIHost: os.Getenv("RAPID_API_HOST"),
		UpstreamRegion:  getEnv("RAPID_API_CGEO", "IN"),

		FetchMaxAttempts: getEnvInt("FETCH_MAX_ATTEMPTS", 3),
		FetchBaseDelay:   time.Duration(getEnvInt("FETCH_BASE_DELAY_MS", 1000)) * time.Millisecond,
		FetchTimeout:     time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 15)) * time.Second,

		JWTSecret: getEnv("JWT_SECRET", "streamvibe-dev-secret"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogPath:  getEnv("LOG_PATH", ""),
	}
}
