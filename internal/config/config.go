// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	DBPath      string
	LogLevel    string
	LogFormat   string
	MissingRisk string // risk tier assumed when a chat reply carries no marker

	// AllowedOrigins are websocket origin patterns. Empty allows any origin.
	AllowedOrigins []string
	BackupKeep     int

	Gemini   GeminiConfig
	MockUser MockUserConfig
	S3       S3Config
}

// GeminiConfig selects the remote model endpoint and model names.
type GeminiConfig struct {
	APIKey      string
	BaseURL     string
	ChatModel   string
	FastModel   string
	SpeechModel string
	Timeout     time.Duration
}

// MockUserConfig is the identity handed out by the mock login.
type MockUserConfig struct {
	ID    string
	Name  string
	Email string
}

// S3Config holds S3-compatible storage configuration for backups.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	apiKey := getEnv("GEMINI_API_KEY", "")
	if apiKey == "" {
		apiKey = getEnv("API_KEY", "")
	}

	cfg := &Config{
		Port:           getEnv("CLARUS_PORT", "8080"),
		DBPath:         getEnv("CLARUS_DB_PATH", "clarus.db"),
		LogLevel:       getEnv("CLARUS_LOG_LEVEL", "info"),
		LogFormat:      getEnv("CLARUS_LOG_FORMAT", "text"),
		MissingRisk:    strings.ToLower(getEnv("CLARUS_MISSING_RISK", "low")),
		AllowedOrigins: getEnvList("CLARUS_ALLOWED_ORIGINS"),
		BackupKeep:     getEnvInt("CLARUS_BACKUP_KEEP", 7),
		Gemini: GeminiConfig{
			APIKey:      apiKey,
			BaseURL:     getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			ChatModel:   getEnv("CLARUS_CHAT_MODEL", "gemini-3-pro-preview"),
			FastModel:   getEnv("CLARUS_FAST_MODEL", "gemini-2.5-flash"),
			SpeechModel: getEnv("CLARUS_SPEECH_MODEL", "gemini-2.5-flash-preview-tts"),
			Timeout:     getEnvDuration("GEMINI_TIMEOUT", 60*time.Second),
		},
		MockUser: MockUserConfig{
			ID:    getEnv("CLARUS_MOCK_USER_ID", "google_1029384756"),
			Name:  getEnv("CLARUS_MOCK_USER_NAME", "Jane Doe"),
			Email: getEnv("CLARUS_MOCK_USER_EMAIL", "jane.doe@gmail.com"),
		},
		S3: S3Config{
			Endpoint:  getEnv("CLARUS_S3_ENDPOINT", ""),
			Bucket:    getEnv("CLARUS_S3_BUCKET", ""),
			Region:    getEnv("CLARUS_S3_REGION", "us-east-1"),
			AccessKey: getEnv("CLARUS_S3_ACCESS_KEY", ""),
			SecretKey: getEnv("CLARUS_S3_SECRET_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that required fields are set and enumerations are known.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("CLARUS_PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("CLARUS_DB_PATH cannot be empty")
	}
	switch c.MissingRisk {
	case "low", "moderate", "high":
	default:
		return fmt.Errorf("CLARUS_MISSING_RISK must be low, moderate, or high (got %q)", c.MissingRisk)
	}
	if c.Gemini.BaseURL == "" {
		return fmt.Errorf("GEMINI_BASE_URL cannot be empty")
	}
	if c.MockUser.ID == "" {
		return fmt.Errorf("CLARUS_MOCK_USER_ID cannot be empty")
	}
	if c.BackupKeep < 0 {
		return fmt.Errorf("CLARUS_BACKUP_KEEP cannot be negative")
	}
	if c.Gemini.Timeout <= 0 {
		return fmt.Errorf("GEMINI_TIMEOUT must be > 0")
	}
	return nil
}

// BackupEnabled reports whether S3 credentials are complete.
func (c *Config) BackupEnabled() bool {
	return c.S3.Bucket != "" && c.S3.AccessKey != "" && c.S3.SecretKey != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvList splits a comma-separated variable, dropping empty entries.
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(getEnv(key, ""), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
