package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI   string
	DBName     string
	Collection string
	Port       string
	GinMode    string

	CORSOrigins []string
	MaxFileSize int64

	// Chunking policy
	MaxChunkSize int
	ChunkOverlap int

	// Embeddings configuration
	EmbeddingsProvider   string // "openai" (default), "voyage", "google"
	OpenAIAPIKey         string
	OpenAIEmbeddingModel string // e.g. "text-embedding-3-small"
	VoyageAPIKey         string
	VoyageEmbeddingModel string // e.g. "voyage-3"
	GeminiAPIKey         string
	GoogleEmbeddingModel string // e.g. "text-embedding-004"
	EmbeddingConcurrency int
	EmbeddingTimeout     int // seconds, per provider call

	// Completion configuration
	CompletionProvider  string // "gemini" (default), "openai"
	CompletionModel     string
	CompletionMaxTokens int
	CompletionTimeout   int // seconds

	// Vector search
	VectorIndexName string

	// Async ingestion
	RedisURL            string
	RedisPassword       string
	RedisDB             int
	AsyncEnabled        bool
	SyncProcessingLimit int64
	WorkerConcurrency   int
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI:   getEnv("MONGO_URI", "mongodb://localhost:27017/rag_docs"),
		DBName:     getEnv("DB_NAME", "rag_docs"),
		Collection: getEnv("COLLECTION_NAME", "documents"),
		Port:       getEnv("PORT", "8080"),
		GinMode:    getEnv("GIN_MODE", "debug"),

		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),
		MaxFileSize: getEnvInt64("MAX_FILE_SIZE", 104857600), // 100MB

		MaxChunkSize: getEnvInt("MAX_CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),

		EmbeddingsProvider:   getEnv("EMBEDDINGS_PROVIDER", "openai"),
		OpenAIAPIKey:         getEnv("OPENAI_API_KEY", ""),
		OpenAIEmbeddingModel: getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		VoyageAPIKey:         getEnv("VOYAGE_API_KEY", ""),
		VoyageEmbeddingModel: getEnv("VOYAGE_EMBEDDING_MODEL", "voyage-3"),
		GeminiAPIKey:         getEnv("GEMINI_API_KEY", ""),
		GoogleEmbeddingModel: getEnv("GOOGLE_EMBEDDING_MODEL", "text-embedding-004"),
		EmbeddingConcurrency: getEnvInt("EMBEDDING_CONCURRENCY", 5),
		EmbeddingTimeout:     getEnvInt("EMBEDDING_TIMEOUT", 30),

		CompletionProvider:  getEnv("COMPLETION_PROVIDER", "gemini"),
		CompletionModel:     getEnv("COMPLETION_MODEL", ""),
		CompletionMaxTokens: getEnvInt("COMPLETION_MAX_TOKENS", 1024),
		CompletionTimeout:   getEnvInt("COMPLETION_TIMEOUT", 60),

		VectorIndexName: getEnv("VECTOR_INDEX_NAME", "vector_index"),

		RedisURL:            getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		AsyncEnabled:        getEnvBool("ASYNC_INGEST_ENABLED", false),
		SyncProcessingLimit: getEnvInt64("SYNC_PROCESSING_LIMIT", 20971520), // 20MB
		WorkerConcurrency:   getEnvInt("WORKER_CONCURRENCY", 4),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the keys required by the active providers are
// present before any remote call is attempted.
func (cfg *Config) Validate() error {
	if cfg.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required - set it in .env file")
	}

	switch cfg.EmbeddingsProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for openai embeddings")
		}
	case "voyage":
		if cfg.VoyageAPIKey == "" {
			return fmt.Errorf("VOYAGE_API_KEY is required for voyage embeddings")
		}
	case "google":
		if cfg.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for google embeddings")
		}
	default:
		return fmt.Errorf("unknown embeddings provider: %s", cfg.EmbeddingsProvider)
	}

	switch cfg.CompletionProvider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for gemini completions")
		}
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for openai completions")
		}
	default:
		return fmt.Errorf("unknown completion provider: %s", cfg.CompletionProvider)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
