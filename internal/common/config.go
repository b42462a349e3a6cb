package common

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/deal-analyzer/constants"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	OCR      OCRConfig
	LLM      LLMConfig
	Ingest   IngestConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string // "sqlite" | "pgx"
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr    string
	GRPCAddr    string
	MaxUploadMB int
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	HeicConverter       string
	TessdataDir         string
	TesseractLang       string
	ArtifactCacheDir    string
	EnableTSVConfidence bool
}

// LLMConfig holds narrative model configuration
type LLMConfig struct {
	Provider        string // "openai" | "gemini"
	Model           string
	APIKey          string
	BaseURL         string
	Temperature     float32
	Timeout         time.Duration
	PromptTextLimit int
}

// IngestConfig holds inbox watcher configuration
type IngestConfig struct {
	InboxDir    string
	Workers     int
	QueueSize   int
	Debounce    time.Duration
	InitialScan bool
	DefaultGoal string
}

// LoadConfig loads configuration from environment variables. A .env file in the
// working directory is read first when present; real environment values win.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("config.dotenv_load_failed", "error", err)
	}

	provider := strings.ToLower(getEnv("LLM_PROVIDER", "openai"))
	llmCfg := LLMConfig{
		Provider:        provider,
		Temperature:     getEnvAsFloat32("LLM_TEMPERATURE", 0.0),
		Timeout:         getEnvAsDuration("LLM_TIMEOUT", 90*time.Second),
		PromptTextLimit: getEnvAsInt("PROMPT_TEXT_LIMIT", constants.DefaultPromptTextLimit),
	}
	switch provider {
	case "gemini":
		llmCfg.Model = getEnv("GEMINI_MODEL", "gemini-2.0-flash")
		llmCfg.APIKey = getEnv("GEMINI_API_KEY", "")
	default:
		llmCfg.Model = getEnv("OPENAI_MODEL", "gpt-4")
		llmCfg.APIKey = getEnv("OPENAI_API_KEY", "")
		llmCfg.BaseURL = getEnv("OPENAI_BASE_URL", "")
	}

	return &Config{
		Database: DatabaseConfig{
			Driver:           getEnv("DB_DRIVER", "sqlite"),
			DSN:              getEnv("DB_URL", "file:deal-analyzer.db?_pragma=busy_timeout(5000)"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
			GRPCAddr:    getEnv("GRPC_ADDR", ":9090"),
			MaxUploadMB: getEnvAsInt("MAX_UPLOAD_MB", constants.MaxUploadMBDefault),
		},
		OCR: OCRConfig{
			HeicConverter:       getEnv("HEIC_CONVERTER", "magick"),
			TessdataDir:         getEnv("TESSDATA_PREFIX", ""),
			TesseractLang:       getEnv("TESSERACT_LANG", "eng"),
			ArtifactCacheDir:    getEnv("ARTIFACT_CACHE_DIR", "./tmp"),
			EnableTSVConfidence: getEnvAsBool("OCR_TSV_CONFIDENCE", true),
		},
		LLM: llmCfg,
		Ingest: IngestConfig{
			InboxDir:    getEnv("INBOX_DIR", ""),
			Workers:     getEnvAsInt("INGEST_WORKERS", 2),
			QueueSize:   getEnvAsInt("INGEST_QUEUE_SIZE", 64),
			Debounce:    getEnvAsDuration("INGEST_DEBOUNCE", 750*time.Millisecond),
			InitialScan: getEnvAsBool("INGEST_INITIAL_SCAN", true),
			DefaultGoal: getEnv("INGEST_DEFAULT_GOAL", constants.DefaultGoal),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration. requireLLM is false for
// metrics-only runs, which never call the model.
func (c *Config) Validate(requireLLM bool) error {
	switch c.Database.Driver {
	case "sqlite", "pgx":
	default:
		return NewAppError("CONFIG_ERROR", "DB_DRIVER must be sqlite or pgx", ErrInvalidInput)
	}
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.LLM.PromptTextLimit <= 0 {
		return NewAppError("CONFIG_ERROR", "PROMPT_TEXT_LIMIT must be positive", ErrInvalidInput)
	}
	if !requireLLM {
		return nil
	}
	switch c.LLM.Provider {
	case "openai":
		if c.LLM.APIKey == "" {
			return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
		}
	case "gemini":
		if c.LLM.APIKey == "" {
			return NewAppError("CONFIG_ERROR", "GEMINI_API_KEY is required", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "LLM_PROVIDER must be openai or gemini", ErrInvalidInput)
	}
	return nil
}
