package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"docqa/internal/models"
)

const DefaultPath = "./configs/config.yaml"

// LLMConfig configures the generation backend.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	BaseURL     string  `yaml:"base_url"`
	Key         string  `yaml:"api_key"`
	KeyEnv      string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	Streaming   bool    `yaml:"streaming"`
	// Dispatch is "local" or "remote"; remote sends generation to RemoteURL.
	Dispatch    string `yaml:"dispatch"`
	RemoteURL   string `yaml:"remote_url"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbeddingConfig configures the embedding backend.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	BaseURL    string `yaml:"base_url"`
	Key        string `yaml:"api_key"`
	KeyEnv     string `yaml:"api_key_env"`
	Model      string `yaml:"model"`
	BatchSize  int    `yaml:"batch_size"`
	Dimensions int    `yaml:"dimensions"`
}

type RAGConfig struct {
	ChunkSize    int      `yaml:"chunk_size"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
	Separators   []string `yaml:"separators"`
	TopK         int      `yaml:"top_k"`
}

// IndexConfig selects where chunk vectors live: "memory" (chromem) or "pgvector".
type IndexConfig struct {
	Backend string `yaml:"backend"`
}

type DatabaseConfig struct {
	DSN    string `yaml:"dsn"`
	Driver string `yaml:"driver"`
	Debug  bool   `yaml:"debug"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MaxUploadMB int64  `yaml:"max_upload_mb"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	RAG       RAGConfig       `yaml:"rag"`
	Index     IndexConfig     `yaml:"index"`
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// DefaultSeparators is the recursive splitting order, coarsest first.
var DefaultSeparators = []string{"\n\n", "\n", ".", "!", "?", ",", " ", ""}

// LoadConfig reads a YAML config. A missing file yields defaults. A .env file
// next to the working directory is loaded first so api_key_env lookups see it.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.resolveKeys()
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	applyDefaults(cfg)
	cfg.resolveKeys()
	return cfg, nil
}

// Save writes the config to path, creating directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.Model == "" {
		switch cfg.LLM.Provider {
		case "ollama":
			cfg.LLM.Model = "llama3.2"
		case "gemini":
			cfg.LLM.Model = "gemini-2.0-flash"
		default:
			cfg.LLM.Model = "gpt-3.5-turbo"
		}
	}
	if cfg.LLM.KeyEnv == "" {
		cfg.LLM.KeyEnv = defaultKeyEnv(cfg.LLM.Provider)
	}
	if cfg.LLM.Dispatch == "" {
		cfg.LLM.Dispatch = "local"
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 120
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "openai"
	}
	if cfg.Embedding.Model == "" {
		switch cfg.Embedding.Provider {
		case "ollama":
			cfg.Embedding.Model = "nomic-embed-text"
		case "gemini":
			cfg.Embedding.Model = "text-embedding-004"
		case "hash":
			cfg.Embedding.Model = "fnv"
		default:
			cfg.Embedding.Model = "text-embedding-ada-002"
		}
	}
	if cfg.Embedding.KeyEnv == "" {
		cfg.Embedding.KeyEnv = defaultKeyEnv(cfg.Embedding.Provider)
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 512
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 1024
	}

	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = 1000
	}
	if len(cfg.RAG.Separators) == 0 {
		cfg.RAG.Separators = append([]string(nil), DefaultSeparators...)
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = 5
	}

	if cfg.Index.Backend == "" {
		cfg.Index.Backend = "memory"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "pgdriver"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 32
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func defaultKeyEnv(provider string) string {
	switch provider {
	case "openai":
		return "OPENAI_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	}
	return ""
}

// resolveKeys fills empty keys from the environment and lets DOCQA_DATABASE_DSN
// override the configured DSN.
func (c *Config) resolveKeys() {
	if c.LLM.Key == "" && c.LLM.KeyEnv != "" {
		c.LLM.Key = os.Getenv(c.LLM.KeyEnv)
	}
	if c.Embedding.Key == "" && c.Embedding.KeyEnv != "" {
		c.Embedding.Key = os.Getenv(c.Embedding.KeyEnv)
	}
	if dsn := os.Getenv("DOCQA_DATABASE_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
}

func (c *LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// ValidateAPIKey rejects credentials that cannot possibly be accepted before
// any network call is made.
func ValidateAPIKey(provider, key string) error {
	key = strings.TrimPrefix(strings.TrimSpace(key), "Bearer ")
	switch provider {
	case "openai":
		if key == "" {
			return fmt.Errorf("%w: missing OpenAI API key", models.ErrAuthentication)
		}
		if !strings.HasPrefix(key, "sk-") || len(key) < 20 {
			return fmt.Errorf("%w: malformed OpenAI API key", models.ErrAuthentication)
		}
	case "gemini":
		if key == "" {
			return fmt.Errorf("%w: missing Gemini API key", models.ErrAuthentication)
		}
	}
	return nil
}
