package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string
	DBMaxConns  int
	DBMinConns  int

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Gemini AI
	GeminiAPIKey         string
	GeminiModel          string
	GeminiConcurrentReqs int
	GenerationTimeout    time.Duration

	// Enrichment (all optional; a missing key degrades that lookup only)
	NewsAPIKey         string
	YouTubeAPIKey      string
	GoogleSearchAPIKey string
	GoogleSearchCX     string
	EnrichmentTimeout  time.Duration
	EnrichmentCacheTTL time.Duration

	// Course generation rate limit per IP
	GenerateRequestsPerMin int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                   getEnvOrDefault("PORT", "8080"),
		Env:                    getEnvOrDefault("ENV", "development"),
		DatabaseURL:            mustGetEnv("DATABASE_URL"),
		DBMaxConns:             getEnvAsIntOrDefault("DB_MAX_CONNS", 20),
		DBMinConns:             getEnvAsIntOrDefault("DB_MIN_CONNS", 2),
		RedisURL:               mustGetEnv("REDIS_URL"),
		JWTSecret:              mustGetEnv("JWT_SECRET"),
		GeminiAPIKey:           mustGetEnv("GEMINI_API_KEY"),
		GeminiModel:            getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiConcurrentReqs:   getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),
		GenerationTimeout:      time.Duration(getEnvAsIntOrDefault("GENERATION_TIMEOUT_SECONDS", 90)) * time.Second,
		NewsAPIKey:             getEnvOrDefault("NEWS_API_KEY", ""),
		YouTubeAPIKey:          getEnvOrDefault("YOUTUBE_API_KEY", ""),
		GoogleSearchAPIKey:     getEnvOrDefault("GOOGLE_SEARCH_API_KEY", ""),
		GoogleSearchCX:         getEnvOrDefault("GOOGLE_SEARCH_CX", ""),
		EnrichmentTimeout:      time.Duration(getEnvAsIntOrDefault("ENRICHMENT_TIMEOUT_SECONDS", 5)) * time.Second,
		EnrichmentCacheTTL:     time.Duration(getEnvAsIntOrDefault("ENRICHMENT_CACHE_TTL_MINUTES", 360)) * time.Minute,
		GenerateRequestsPerMin: getEnvAsIntOrDefault("GENERATE_REQUESTS_PER_MINUTE", 10),
		FrontendURL:            getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

// ImageSearchEnabled reports whether both halves of the Custom Search credentials are set.
func (c *Config) ImageSearchEnabled() bool {
	return c.GoogleSearchAPIKey != "" && c.GoogleSearchCX != ""
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}
