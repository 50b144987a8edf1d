package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config carries every tunable of the document pipeline. Values resolve in
// three layers: compiled defaults, then an optional YAML file, then
// environment variables. Empty PostgresDSN and NATSURL are meaningful: they
// switch the CLI into inline-only mode with no datastore or broker.
type Config struct {
	LogLevel string `yaml:"log_level"`

	PostgresDSN string `yaml:"postgres_dsn"`

	NATSURL     string `yaml:"nats_url"`
	NATSSubject string `yaml:"nats_subject"`

	GeminiAPIKey  string `yaml:"gemini_api_key"`
	GeminiModel   string `yaml:"gemini_model"`
	GeminiBaseURL string `yaml:"gemini_base_url"`

	OCRLanguages string `yaml:"ocr_languages"`

	StoragePath string `yaml:"storage_path"`

	WorkerMetricsPort string  `yaml:"worker_metrics_port"`
	WorkerRateLimit   float64 `yaml:"worker_rate_limit"`
	WorkerRateBurst   int     `yaml:"worker_rate_burst"`
}

func defaults() Config {
	return Config{
		LogLevel: "info",

		NATSSubject: "documents.submitted",

		GeminiModel: "gemini-2.5-flash",

		StoragePath: "./data/storage",

		WorkerMetricsPort: "9090",
		WorkerRateLimit:   1,
		WorkerRateBurst:   2,
	}
}

// Load resolves configuration from defaults and environment only.
func Load() Config {
	cfg := defaults()
	cfg.applyEnv()
	return cfg
}

// LoadFile resolves configuration from defaults, then the YAML file at path
// (skipped when path is empty), then environment overrides.
func LoadFile(path string) (Config, error) {
	cfg := defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.LogLevel = envOr("LOG_LEVEL", c.LogLevel)

	c.PostgresDSN = envOr("POSTGRES_DSN", c.PostgresDSN)

	c.NATSURL = envOr("NATS_URL", c.NATSURL)
	c.NATSSubject = envOr("NATS_SUBJECT", c.NATSSubject)

	c.GeminiAPIKey = envOr("GEMINI_API_KEY", c.GeminiAPIKey)
	c.GeminiModel = envOr("GEMINI_MODEL", c.GeminiModel)
	c.GeminiBaseURL = envOr("GEMINI_BASE_URL", c.GeminiBaseURL)

	c.OCRLanguages = envOr("OCR_LANGUAGES", c.OCRLanguages)

	c.StoragePath = envOr("STORAGE_PATH", c.StoragePath)

	c.WorkerMetricsPort = envOr("WORKER_METRICS_PORT", c.WorkerMetricsPort)
	c.WorkerRateLimit = envOrFloat("WORKER_RATE_LIMIT", c.WorkerRateLimit)
	c.WorkerRateBurst = envOrInt("WORKER_RATE_BURST", c.WorkerRateBurst)
}

func envOr(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envOrInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envOrFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
