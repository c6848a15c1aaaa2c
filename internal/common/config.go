package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment" yaml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server" yaml:"server"`
	Logging     LoggingConfig   `toml:"logging" yaml:"logging"`
	Documents   DocumentsConfig `toml:"documents" yaml:"documents"`
	Chunking    ChunkingConfig  `toml:"chunking" yaml:"chunking"`
	VectorDB    VectorDBConfig  `toml:"vector_db" yaml:"vector_db"`
	Embedding   EmbeddingConfig `toml:"embedding" yaml:"embedding"`
	Reasoning   ReasoningConfig `toml:"reasoning" yaml:"reasoning"`
	Response    ResponseConfig  `toml:"response" yaml:"response"`
	Ingestion   IngestionConfig `toml:"ingestion" yaml:"ingestion"`
	Watcher     WatcherConfig   `toml:"watcher" yaml:"watcher"`
}

type ServerConfig struct {
	Port           int     `toml:"port" yaml:"port" validate:"min=1,max=65535"`
	Host           string  `toml:"host" yaml:"host"`
	QueryRateLimit float64 `toml:"query_rate_limit" yaml:"query_rate_limit" validate:"gte=0"` // requests per second on /query, 0 disables
	QueryBurst     int     `toml:"query_burst" yaml:"query_burst" validate:"gte=0"`
}

type LoggingConfig struct {
	Level      string   `toml:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Output     []string `toml:"output" yaml:"output"`           // "stdout", "file"
	TimeFormat string   `toml:"time_format" yaml:"time_format"` // default "15:04:05"
}

// DocumentsConfig is the directory the loader and watcher operate on
type DocumentsConfig struct {
	Dir string `toml:"dir" yaml:"dir" validate:"required"`
}

// ChunkingConfig controls token-bounded splitting
type ChunkingConfig struct {
	Size    int `toml:"size" yaml:"size" validate:"gt=0"`
	Overlap int `toml:"overlap" yaml:"overlap" validate:"gte=0,ltfield=Size"`
}

// VectorDBConfig selects and configures the vector index backend
type VectorDBConfig struct {
	Backend    string `toml:"backend" yaml:"backend" validate:"oneof=qdrant badger"`
	URL        string `toml:"url" yaml:"url" validate:"required_if=Backend qdrant"`
	APIKey     string `toml:"api_key" yaml:"api_key"`
	Collection string `toml:"collection" yaml:"collection" validate:"required"`
	Timeout    string `toml:"timeout" yaml:"timeout"`
	BadgerPath string `toml:"badger_path" yaml:"badger_path" validate:"required_if=Backend badger"`
}

// EmbeddingConfig configures the embedding provider
type EmbeddingConfig struct {
	Provider  string `toml:"provider" yaml:"provider" validate:"oneof=openai gemini"`
	Model     string `toml:"model" yaml:"model"` // empty selects the provider default
	APIKey    string `toml:"api_key" yaml:"api_key"`
	BaseURL   string `toml:"base_url" yaml:"base_url"`
	Dimension int    `toml:"dimension" yaml:"dimension" validate:"gte=0"` // 0 keeps the model default
	BatchSize int    `toml:"batch_size" yaml:"batch_size" validate:"gt=0"`
	Timeout   string `toml:"timeout" yaml:"timeout"`
}

// ReasoningConfig configures the local Ollama reasoning model
type ReasoningConfig struct {
	BaseURL      string  `toml:"base_url" yaml:"base_url" validate:"required"`
	DefaultModel string  `toml:"default_model" yaml:"default_model" validate:"required"`
	ModelFilter  string  `toml:"model_filter" yaml:"model_filter"` // substring selecting reasoning models from the catalog
	Temperature  float64 `toml:"temperature" yaml:"temperature"`
	TopP         float64 `toml:"top_p" yaml:"top_p"`
	MaxTokens    int     `toml:"max_tokens" yaml:"max_tokens"`
	MaxRetries   int     `toml:"max_retries" yaml:"max_retries" validate:"gte=0"`
	RetryDelay   string  `toml:"retry_delay" yaml:"retry_delay"`
	Timeout      string  `toml:"timeout" yaml:"timeout"`
}

// ResponseConfig configures the response model provider
type ResponseConfig struct {
	Provider    string  `toml:"provider" yaml:"provider" validate:"oneof=openai claude gemini"`
	Model       string  `toml:"model" yaml:"model"` // empty selects the provider default
	APIKey      string  `toml:"api_key" yaml:"api_key"`
	BaseURL     string  `toml:"base_url" yaml:"base_url"`
	Temperature float64 `toml:"temperature" yaml:"temperature"`
	MaxTokens   int     `toml:"max_tokens" yaml:"max_tokens" validate:"gte=0"`
	Timeout     string  `toml:"timeout" yaml:"timeout"`
}

type IngestionConfig struct {
	OnStartup bool `toml:"on_startup" yaml:"on_startup"` // run one ingestion when the service starts
}

type WatcherConfig struct {
	Enabled        bool   `toml:"enabled" yaml:"enabled"`
	QueueSize      int    `toml:"queue_size" yaml:"queue_size" validate:"gte=1"`
	ResyncSchedule string `toml:"resync_schedule" yaml:"resync_schedule"` // cron with seconds, empty disables
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port:           8000,
			Host:           "localhost",
			QueryRateLimit: 0,
			QueryBurst:     5,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Documents: DocumentsConfig{
			Dir: "./data",
		},
		Chunking: ChunkingConfig{
			Size:    1000,
			Overlap: 100,
		},
		VectorDB: VectorDBConfig{
			Backend:    "qdrant",
			URL:        "http://localhost:6333",
			Collection: "DEEPSEEK_COLLECTION",
			Timeout:    "30s",
			BadgerPath: "./index",
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			BatchSize: 512,
			Timeout:   "60s",
		},
		Reasoning: ReasoningConfig{
			BaseURL:      "http://localhost:11434",
			DefaultModel: "deepseek",
			ModelFilter:  "deepseek",
			Temperature:  0.7,
			TopP:         0.9,
			MaxTokens:    2048,
			MaxRetries:   3,
			RetryDelay:   "2s",
			Timeout:      "5m",
		},
		Response: ResponseConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			MaxTokens:   2048,
			Timeout:     "2m",
		},
		Ingestion: IngestionConfig{
			OnStartup: true,
		},
		Watcher: WatcherConfig{
			Enabled:   true,
			QueueSize: 1,
		},
	}
}

// LoadFromFiles loads configuration with priority: default -> file1 -> file2 -> ... -> env
// Later files override earlier files. Files ending in .yaml or .yml are read as YAML,
// everything else as TOML.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, config)
		default:
			err = toml.Unmarshal(data, config)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadEnvFile loads KEY=VALUE pairs from a dotenv file into the process
// environment without overriding variables that are already set. A missing
// file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// firstEnv returns the first non-empty environment variable among names
func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// applyEnvOverrides applies environment variable overrides to config.
// RAGCHAIN_* names take priority over the provider-standard names.
func applyEnvOverrides(config *Config) {
	if env := firstEnv("RAGCHAIN_ENV", "GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server
	if port := os.Getenv("RAGCHAIN_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("RAGCHAIN_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if limit := os.Getenv("RAGCHAIN_QUERY_RATE_LIMIT"); limit != "" {
		if l, err := strconv.ParseFloat(limit, 64); err == nil {
			config.Server.QueryRateLimit = l
		}
	}

	// Logging
	if level := os.Getenv("RAGCHAIN_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("RAGCHAIN_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if o = strings.TrimSpace(o); o != "" {
				outputs = append(outputs, o)
			}
		}
		config.Logging.Output = outputs
	}

	// Documents
	if dir := os.Getenv("RAGCHAIN_DATA_DIR"); dir != "" {
		config.Documents.Dir = dir
	}

	// Chunking
	if size := os.Getenv("RAGCHAIN_CHUNK_SIZE"); size != "" {
		if s, err := strconv.Atoi(size); err == nil {
			config.Chunking.Size = s
		}
	}
	if overlap := os.Getenv("RAGCHAIN_CHUNK_OVERLAP"); overlap != "" {
		if o, err := strconv.Atoi(overlap); err == nil {
			config.Chunking.Overlap = o
		}
	}

	// Vector database
	if backend := os.Getenv("RAGCHAIN_VECTOR_DB_BACKEND"); backend != "" {
		config.VectorDB.Backend = backend
	}
	if url := firstEnv("RAGCHAIN_VECTOR_DB_URL", "QDRANT_URL"); url != "" {
		config.VectorDB.URL = url
	}
	if apiKey := firstEnv("RAGCHAIN_VECTOR_DB_API_KEY", "QDRANT_API_KEY"); apiKey != "" {
		config.VectorDB.APIKey = apiKey
	}
	if collection := os.Getenv("RAGCHAIN_COLLECTION_NAME"); collection != "" {
		config.VectorDB.Collection = collection
	}
	if path := os.Getenv("RAGCHAIN_BADGER_PATH"); path != "" {
		config.VectorDB.BadgerPath = path
	}

	// Reasoning model (Ollama)
	if baseURL := firstEnv("RAGCHAIN_OLLAMA_URL", "OLLAMA_HOST"); baseURL != "" {
		if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
			baseURL = "http://" + baseURL
		}
		config.Reasoning.BaseURL = baseURL
	}
	if model := os.Getenv("RAGCHAIN_REASONING_MODEL"); model != "" {
		config.Reasoning.DefaultModel = model
	}
	if retries := os.Getenv("RAGCHAIN_MAX_RETRIES"); retries != "" {
		if r, err := strconv.Atoi(retries); err == nil {
			config.Reasoning.MaxRetries = r
		}
	}
	if delay := os.Getenv("RAGCHAIN_RETRY_DELAY"); delay != "" {
		// Bare numbers are seconds
		if _, err := strconv.ParseFloat(delay, 64); err == nil {
			delay += "s"
		}
		config.Reasoning.RetryDelay = delay
	}

	// Embedding and response providers
	if provider := os.Getenv("RAGCHAIN_EMBEDDING_PROVIDER"); provider != "" {
		config.Embedding.Provider = provider
	}
	if model := os.Getenv("RAGCHAIN_EMBEDDING_MODEL"); model != "" {
		config.Embedding.Model = model
	}
	if provider := os.Getenv("RAGCHAIN_RESPONSE_PROVIDER"); provider != "" {
		config.Response.Provider = provider
	}
	if model := os.Getenv("RAGCHAIN_RESPONSE_MODEL"); model != "" {
		config.Response.Model = model
	}

	// API keys resolve per provider so one variable can serve both the
	// embedding and the response model
	if key := providerAPIKey(config.Embedding.Provider); key != "" {
		config.Embedding.APIKey = key
	}
	if key := providerAPIKey(config.Response.Provider); key != "" {
		config.Response.APIKey = key
	}
}

// providerAPIKey resolves the API key of a provider from the environment
func providerAPIKey(provider string) string {
	switch provider {
	case "openai":
		return firstEnv("RAGCHAIN_OPENAI_API_KEY", "OPENAI_API_KEY")
	case "claude":
		return firstEnv("RAGCHAIN_CLAUDE_API_KEY", "ANTHROPIC_API_KEY")
	case "gemini":
		return firstEnv("RAGCHAIN_GEMINI_API_KEY", "GOOGLE_API_KEY")
	}
	return ""
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks field constraints and that every duration and schedule parses
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	durations := map[string]string{
		"vector_db.timeout":     c.VectorDB.Timeout,
		"embedding.timeout":     c.Embedding.Timeout,
		"reasoning.retry_delay": c.Reasoning.RetryDelay,
		"reasoning.timeout":     c.Reasoning.Timeout,
		"response.timeout":      c.Response.Timeout,
	}
	for name, value := range durations {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid duration for %s '%s': %w", name, value, err)
		}
	}

	if c.Watcher.ResyncSchedule != "" {
		parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(c.Watcher.ResyncSchedule); err != nil {
			return fmt.Errorf("invalid watcher.resync_schedule: %w", err)
		}
	}

	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ParseDuration parses value, returning fallback when it is empty or invalid
func ParseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
