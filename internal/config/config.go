package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Keys      APIKeys
	Retrieval RetrievalConfig
	Ai        AIConfig
	Stream    StreamConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	ExchangeTopic      string // Watermill topic for completed chat exchanges
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	Voyage     string
	Cohere     string
	OpenRouter string
}

// RetrievalConfig carries the tuning knobs for the fan-out search engine.
type RetrievalConfig struct {
	MatchCount          int     // Oversampling count per track
	TitleMatchCount     int     // Extra title-boosted rows for track B
	SimilarityThreshold float64 // Lower bound for both tracks
	RerankTopN          int     // Per-query rerank cut
	FallbackTopK        int     // Similarity-sort cut when rerank fails
	FusionTopN          int     // Cross-query rerank cut
	FusionFallbackTopK  int     // Insertion-order cut when fusion rerank fails
	SingleQueryTopK     int     // Cut when only one sub-query was issued
	CallTimeout         time.Duration
}

type AIConfig struct {
	EmbeddingProvider string // "voyage" or "ollama"
	EmbeddingModel    string
	OllamaBaseURL     string
	LLMProvider       string // "openrouter" or "ollama"
	LLMModel          string
	RerankModel       string
}

type StreamConfig struct {
	AnswerMarker string        // Boundary that gates token forwarding
	PollTimeout  time.Duration // Consumer loop receive timeout
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			ExchangeTopic:      getEnv("CHAT_EXCHANGE_TOPIC_NAME", "CHAT_EXCHANGE_COMPLETED"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			Voyage:     getEnv("VOYAGE_API_KEY", ""),
			Cohere:     getEnv("COHERE_API_KEY", ""),
			OpenRouter: getEnv("OPENROUTER_API_KEY", ""),
		},
		Retrieval: RetrievalConfig{
			MatchCount:          getEnvAsInt("RETRIEVAL_MATCH_COUNT", 30),
			TitleMatchCount:     getEnvAsInt("RETRIEVAL_TITLE_MATCH_COUNT", 10),
			SimilarityThreshold: getEnvAsFloat("RETRIEVAL_SIMILARITY_THRESHOLD", 0.40),
			RerankTopN:          getEnvAsInt("RERANK_TOP_N", 10),
			FallbackTopK:        getEnvAsInt("RERANK_FALLBACK_TOP_K", 8),
			FusionTopN:          getEnvAsInt("FUSION_TOP_N", 10),
			FusionFallbackTopK:  getEnvAsInt("FUSION_FALLBACK_TOP_K", 12),
			SingleQueryTopK:     getEnvAsInt("SINGLE_QUERY_TOP_K", 8),
			CallTimeout:         time.Duration(getEnvAsInt("RETRIEVAL_CALL_TIMEOUT_SECONDS", 15)) * time.Second,
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "voyage"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "voyage-3-large"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			LLMProvider:       getEnv("LLM_PROVIDER", "openrouter"),
			LLMModel:          getEnv("LLM_MODEL", "mistralai/mistral-small-3.2-24b-instruct"),
			RerankModel:       getEnv("RERANK_MODEL", "rerank-english-v3.0"),
		},
		Stream: StreamConfig{
			AnswerMarker: getEnv("ANSWER_START_MARKER", "Final Answer:"),
			PollTimeout:  time.Duration(getEnvAsInt("STREAM_POLL_TIMEOUT_MS", 50)) * time.Millisecond,
		},
	}
}

// MustValidate terminates the process when a credential required by the
// selected providers is missing. Nothing else is allowed to be fatal.
func (c *Config) MustValidate() {
	if c.Database.Connection == "" {
		log.Fatal("[FATAL] DB_CONNECTION_STRING is required")
	}
	if c.Ai.EmbeddingProvider == "voyage" && c.Keys.Voyage == "" {
		log.Fatal("[FATAL] VOYAGE_API_KEY is required when EMBEDDING_PROVIDER=voyage")
	}
	if c.Keys.Cohere == "" {
		log.Fatal("[FATAL] COHERE_API_KEY is required")
	}
	if c.Ai.LLMProvider == "openrouter" && c.Keys.OpenRouter == "" {
		log.Fatal("[FATAL] OPENROUTER_API_KEY is required when LLM_PROVIDER=openrouter")
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
