package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	DatabaseURL        string
	RedisAddr          string
	RedisPassword      string
	CORSAllowedOrigins []string

	// Z-API (WhatsApp provider) configuration
	ZAPIBaseURL     string
	ZAPIInstanceID  string
	ZAPIToken       string
	ZAPIClientToken string

	// Model gateway (OpenAI wire format) configuration
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	LLMTimeout    time.Duration

	HistoryWindow int
	DedupeTTL     time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		ZAPIBaseURL:     getEnv("ZAPI_BASE_URL", "https://api.z-api.io"),
		ZAPIInstanceID:  getEnv("ZAPI_INSTANCE_ID", ""),
		ZAPIToken:       getEnv("ZAPI_TOKEN", ""),
		ZAPIClientToken: getEnv("ZAPI_CLIENT_TOKEN", ""),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		LLMTimeout:    getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),

		HistoryWindow: getEnvAsInt("HISTORY_WINDOW", 20),
		DedupeTTL:     getEnvAsDuration("DEDUPE_TTL", 10*time.Minute),
	}
}

// ValidateProvider checks the credentials the WhatsApp channel cannot run without.
// The model gateway key is intentionally not checked here: its absence only
// matters once a reply has to be generated.
func (c *Config) ValidateProvider() error {
	if strings.TrimSpace(c.ZAPIInstanceID) == "" {
		return errors.New("config: ZAPI_INSTANCE_ID is required")
	}
	if strings.TrimSpace(c.ZAPIToken) == "" {
		return errors.New("config: ZAPI_TOKEN is required")
	}
	return nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
