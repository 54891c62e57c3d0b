package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	Port        string

	AIAPIKey   string
	EmbedModel string
	EmbedDim   int
	GenModel   string

	TranscriptAPIURL string
	WatchPageURL     string

	AwsAccessKey  string
	AwsSecretKey  string
	AwsRegion     string
	ArchiveBucket string

	MaxChunkChars  int
	OverlapChars   int
	EmbedBatchSize int
	EmbedCacheCap  int

	RetrieveWorkers int
	DefaultTopK     int
	ContextTokens   int
	QueryTimeout    time.Duration

	ReindexWorkers int
	JWTSecret      string
}

// LoadConfig loads the environment variables and returns the config.
func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Port:        getEnv("PORT", "8080"),

		AIAPIKey:   getEnv("GEMINI_API_KEY", ""),
		EmbedModel: getEnv("EMBED_MODEL", "text-embedding-004"),
		EmbedDim:   getEnvInt("EMBED_DIM", 768),
		GenModel:   getEnv("GEN_MODEL", "gemini-1.5-flash"),

		TranscriptAPIURL: getEnv("TRANSCRIPT_API_URL", ""),
		WatchPageURL:     getEnv("WATCH_PAGE_URL", ""),

		AwsAccessKey:  getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey:  getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:     getEnv("AWS_REGION", "us-east-2"),
		ArchiveBucket: getEnv("ARCHIVE_BUCKET", ""),

		MaxChunkChars:  getEnvInt("MAX_CHUNK_CHARS", 1000),
		OverlapChars:   getEnvInt("OVERLAP_CHARS", 200),
		EmbedBatchSize: getEnvInt("EMBED_BATCH_SIZE", 32),
		EmbedCacheCap:  getEnvInt("EMBED_CACHE_CAP", 4096),

		RetrieveWorkers: getEnvInt("RETRIEVE_WORKERS", 8),
		DefaultTopK:     getEnvInt("DEFAULT_TOP_K", 5),
		ContextTokens:   getEnvInt("CONTEXT_TOKENS", 3000),
		QueryTimeout:    getEnvDur("QUERY_TIMEOUT", 45*time.Second),

		ReindexWorkers: getEnvInt("REINDEX_WORKERS", 2),
		JWTSecret:      getEnv("JWT_SECRET", ""),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET not set")
	}
	if cfg.TranscriptAPIURL == "" && cfg.WatchPageURL == "" {
		log.Fatal("no transcript source configured: set TRANSCRIPT_API_URL or WATCH_PAGE_URL")
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvDur(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a duration, using default %s", key, v, def)
		return def
	}
	return d
}
