// Package config provides environment configuration for the API server.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// MongoDB settings
	MongoURI      string
	MongoDatabase string

	// Redis settings
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	LookupCacheTTL time.Duration

	// NATS settings
	NATSEnabled  bool
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// JWT settings
	JWTSecret string

	// CORS settings
	CORSOrigins []string

	// LLM settings
	AnthropicAPIKey string
	OpenAIAPIKey    string
	DefaultLLM      string
	LLMModel        string
	VisionAPIKey    string
	VisionBaseURL   string
	VisionModel     string
	PromptsFile     string
	GatewayRetries  int
	GatewayTimeout  time.Duration

	// Lookup services
	TavilyAPIKey     string
	SerpAPIKey       string
	DictionaryAPIKey string

	// Consultation pipeline
	Language            string
	ConsultationIdleTTL time.Duration

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 180*time.Second),

		// MongoDB
		MongoURI:      getEnv("MONGO_URI", ""),
		MongoDatabase: getEnv("MONGO_DATABASE", "niramoy"),

		// Redis
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getIntEnv("REDIS_DB", 0),
		LookupCacheTTL: getDurationEnv("LOOKUP_CACHE_TTL", 6*time.Hour),

		// NATS
		NATSEnabled:  getBoolEnv("NATS_ENABLED", false),
		NATSURL:      getEnv("NATS_URL", "nats://localhost:4222"),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "development-secret-change-in-production"),

		// CORS
		CORSOrigins: getListEnv("CORS_ORIGINS"),

		// LLM
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		DefaultLLM:      getEnv("DEFAULT_LLM", "openai"),
		LLMModel:        getEnv("LLM_MODEL", ""),
		VisionAPIKey:    getEnv("OPENROUTER_API_KEY", ""),
		VisionBaseURL:   getEnv("VISION_BASE_URL", "https://openrouter.ai/api/v1"),
		VisionModel:     getEnv("VISION_MODEL", "meta-llama/llama-3.2-11b-vision-instruct:free"),
		PromptsFile:     getEnv("PROMPTS_FILE", ""),
		GatewayRetries:  getIntEnv("GATEWAY_RETRIES", 2),
		GatewayTimeout:  getDurationEnv("GATEWAY_TIMEOUT", 90*time.Second),

		// Lookup services
		TavilyAPIKey:     getEnv("TAVILY_API_KEY", ""),
		SerpAPIKey:       getEnv("SERPAPI_API_KEY", ""),
		DictionaryAPIKey: getEnv("MEDICAL_DICTIONARY_API_KEY", ""),

		// Consultation pipeline
		Language:            getEnv("LANGUAGE", "bn"),
		ConsultationIdleTTL: getDurationEnv("CONSULTATION_IDLE_TTL", 2*time.Hour),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getListEnv(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
