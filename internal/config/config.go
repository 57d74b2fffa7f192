package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration
type Config struct {
	Port        string
	Env         string
	LogLevel    string
	DatabaseURL string

	OpenAIAPIKey   string
	GPTModel       string
	GPTTemperature float64
	EmbeddingModel string
	GPTPriceIn     float64
	GPTPriceOut    float64

	DialogWindow   int
	DailyLimit     int
	UnlimitedUsers []string
	SupportGroupID string

	SystemPromptPath string

	TransportSendURL string

	SheetsSpreadsheetID  string
	SheetsCredentialFile string
	TranscriptQueueSize  int

	RetrievalTopK int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		GPTModel:       getEnv("GPT_MODEL", "gpt-4o-mini"),
		GPTTemperature: getEnvAsFloat("GPT_TEMPERATURE", 0.5),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		GPTPriceIn:     getEnvAsFloat("GPT_PRICE_IN", 0),
		GPTPriceOut:    getEnvAsFloat("GPT_PRICE_OUT", 0),

		DialogWindow:   getEnvAsInt("DIALOG_SAVE", 5),
		DailyLimit:     getEnvAsInt("DAILY_LIMIT", 20),
		UnlimitedUsers: getEnvAsList("UNLIMITED_USERS"),
		SupportGroupID: getEnv("SUPPORT_GROUP_ID", ""),

		SystemPromptPath: getEnv("SYSTEM_PROMPT_PATH", "base/system.md"),

		TransportSendURL: getEnv("TRANSPORT_SEND_URL", ""),

		SheetsSpreadsheetID:  getEnv("SHEETS_SPREADSHEET_ID", ""),
		SheetsCredentialFile: getEnv("SHEETS_CREDENTIALS_FILE", ""),
		TranscriptQueueSize:  getEnvAsInt("TRANSCRIPT_QUEUE_SIZE", 256),

		RetrievalTopK: getEnvAsInt("RETRIEVAL_TOP_K", 5),
	}
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated environment variable, dropping empty entries.
func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
