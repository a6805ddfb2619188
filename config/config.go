package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Session  SessionConfig  `mapstructure:"session"`
	AI       AIConfig       `mapstructure:"ai"`
	Vector   VectorConfig   `mapstructure:"vector"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AppConfig holds application settings.
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// DatabaseConfig holds database settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// DispatchConfig tunes the routing engine. The threshold is a starting
// calibration validated by the dispatcher's tests, not a hard contract.
type DispatchConfig struct {
	ConfidenceThreshold float64       `mapstructure:"confidence_threshold"`
	EventDuration       time.Duration `mapstructure:"event_duration"`
}

// SessionConfig bounds the in-memory session store.
type SessionConfig struct {
	MaxHistory    int           `mapstructure:"max_history"`
	MaxSessions   int           `mapstructure:"max_sessions"`
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// AIConfig holds AI provider settings for the knowledge and dealflow agents.
type AIConfig struct {
	OpenAI ProviderConfig `mapstructure:"openai"`
}

// ProviderConfig holds provider-specific settings.
type ProviderConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// VectorConfig holds vector database settings for the citation retriever.
type VectorConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Collection string `mapstructure:"collection"`
	Dimension  int    `mapstructure:"dimension"`
}

// IngestConfig holds document ingestion settings.
type IngestConfig struct {
	DocsDir    string `mapstructure:"docs_dir"`
	ChunkSize  int    `mapstructure:"chunk_size"`
	Extensions string `mapstructure:"extensions"` // comma-separated
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	LogDir string `mapstructure:"log_dir"`
}

// Load loads configuration from defaults, an optional config.yaml, and the
// environment.
func Load() (*Config, error) {
	viper.SetDefault("app.name", "Revenue Copilot")
	viper.SetDefault("app.version", "1.0.0")

	viper.SetDefault("database.path", "data/copilot.db")

	viper.SetDefault("dispatch.confidence_threshold", 0.35)
	viper.SetDefault("dispatch.event_duration", "1h")

	viper.SetDefault("session.max_history", 50)
	viper.SetDefault("session.max_sessions", 10000)
	viper.SetDefault("session.ttl", "24h")
	viper.SetDefault("session.sweep_interval", "10m")

	viper.SetDefault("ai.openai.model", "gpt-4-turbo-preview")
	viper.SetDefault("ai.openai.max_tokens", 1024)
	viper.SetDefault("ai.openai.temperature", 0.2)

	viper.SetDefault("vector.host", "localhost")
	viper.SetDefault("vector.port", 6334)
	viper.SetDefault("vector.collection", "copilot_docs")
	viper.SetDefault("vector.dimension", 1536)

	viper.SetDefault("ingest.docs_dir", "docs")
	viper.SetDefault("ingest.chunk_size", 1000)
	viper.SetDefault("ingest.extensions", ".txt,.md")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.log_dir", "logs")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		viper.Set("ai.openai.api_key", apiKey)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine, defaults apply.
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}
