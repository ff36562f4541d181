package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Pipeline PipelineConfig
	LLM      LLMConfig
	Log      LogConfig
	S3       S3Config
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// PipelineConfig holds defaults for a pipeline run
type PipelineConfig struct {
	MaxMessages       int
	MailFetchTimeout  time.Duration
	ArtifactsDir      string
	DefaultSource     string
}

// LLMConfig holds LLM transport configuration
type LLMConfig struct {
	Disabled    bool
	Model       string
	APIKey      string
	Concurrency int
	Timeout     time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// S3Config holds S3 artifact-store configuration
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Prefix    string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Pipeline: PipelineConfig{
			MaxMessages:      getEnvAsInt("PIPELINE_MAX_MESSAGES", 5000),
			MailFetchTimeout: getEnvAsDuration("PIPELINE_MAIL_FETCH_TIMEOUT", 20*time.Second),
			ArtifactsDir:     getEnv("PIPELINE_ARTIFACTS_DIR", "./artifacts"),
			DefaultSource:    getEnv("PIPELINE_DEFAULT_SOURCE", "sample"),
		},
		LLM: LLMConfig{
			Disabled:    getEnv("LLM_DISABLED", "false") == "true",
			Model:       getEnv("LLM_MODEL", "claude-3-5-haiku-latest"),
			APIKey:      getEnv("ANTHROPIC_API_KEY", ""),
			Concurrency: getEnvAsInt("LLM_CONCURRENCY", 8),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		S3: S3Config{
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			Bucket:    getEnv("S3_BUCKET", ""),
			Region:    getEnv("S3_REGION", "eu-central"),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			Prefix:    getEnv("S3_PREFIX", ""),
		},
	}

	if cfg.Pipeline.MaxMessages <= 0 || cfg.Pipeline.MaxMessages > 5000 {
		return nil, fmt.Errorf("PIPELINE_MAX_MESSAGES must be in (0, 5000]")
	}

	return cfg, nil
}

// UsesS3 reports whether the S3 artifact store is configured.
func (c *S3Config) UsesS3() bool {
	return c.Bucket != ""
}

// Helper functions

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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
