package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration. It is built once at process
// start and passed into each component's constructor.
type Config struct {
	OCR      OCRConfig
	Proposer ProposerConfig
	Export   ExportConfig
	History  HistoryConfig
}

// OCRConfig holds recognition-related configuration
type OCRConfig struct {
	Tesseract   string // binary name or absolute path; if empty -> "tesseract"
	Languages   string // tesseract language set, default "eng"
	TessdataDir string
	DPI         int // rasterization DPI for scanned PDFs, default 300
	PSM         int // page segmentation mode; 6 = single uniform block of text
}

// ProposerConfig holds event-proposer (LLM) configuration
type ProposerConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// ExportConfig holds export-related configuration
type ExportConfig struct {
	Dir string
}

// HistoryConfig holds the optional processing-run history store configuration
type HistoryConfig struct {
	Path string // sqlite file path; empty disables history
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		OCR: OCRConfig{
			Tesseract:   getEnv("TESSERACT_PATH", "tesseract"),
			Languages:   getEnv("OCR_LANGUAGES", "eng"),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
			DPI:         getEnvAsInt("OCR_DPI", 300),
			PSM:         getEnvAsInt("OCR_PSM", 6),
		},
		Proposer: ProposerConfig{
			APIKey:      getEnv("OPENROUTER_API_KEY", ""),
			BaseURL:     getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			Model:       getEnv("OPENROUTER_MODEL", "anthropic/claude-3.5-sonnet"),
			MaxTokens:   getEnvAsInt("PROPOSER_MAX_TOKENS", 8000),
			Temperature: getEnvAsFloat32("PROPOSER_TEMPERATURE", 0.1),
			Timeout:     getEnvAsDuration("PROPOSER_TIMEOUT", 120*time.Second),
		},
		Export: ExportConfig{
			Dir: getEnv("EXPORT_DIR", "exports"),
		},
		History: HistoryConfig{
			Path: getEnv("SOF_HISTORY_DB", ""),
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

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
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

// ValidateForAccuracyMode checks the configuration needed when the external
// event proposer is in use. Cost-saving mode has no external requirements.
func (c *Config) ValidateForAccuracyMode() error {
	if c.Proposer.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENROUTER_API_KEY is required for accuracy mode", ErrProposer)
	}
	return nil
}
