package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/models"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.RAG.ChunkSize)
	assert.Equal(t, 0, cfg.RAG.ChunkOverlap)
	assert.Equal(t, DefaultSeparators, cfg.RAG.Separators)
	assert.Equal(t, 5, cfg.RAG.TopK)
	assert.Equal(t, "memory", cfg.Index.Backend)
	assert.Equal(t, "local", cfg.LLM.Dispatch)
	assert.Equal(t, "OPENAI_API_KEY", cfg.LLM.KeyEnv)
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
llm:
  provider: ollama
  base_url: http://localhost:11434
embedding:
  provider: hash
  dimensions: 256
rag:
  chunk_size: 400
  chunk_overlap: 40
index:
  backend: pgvector
database:
  dsn: postgres://u:p@localhost:5432/docqa
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "llama3.2", cfg.LLM.Model)
	assert.Equal(t, "hash", cfg.Embedding.Provider)
	assert.Equal(t, 256, cfg.Embedding.Dimensions)
	assert.Equal(t, 400, cfg.RAG.ChunkSize)
	assert.Equal(t, 40, cfg.RAG.ChunkOverlap)
	assert.Equal(t, "pgvector", cfg.Index.Backend)
	assert.Equal(t, "pgdriver", cfg.Database.Driver)
}

func TestLoadConfigKeyFromEnv(t *testing.T) {
	t.Setenv("DOCQA_TEST_KEY", "sk-0123456789abcdefghij")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  api_key_env: DOCQA_TEST_KEY\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-0123456789abcdefghij", cfg.LLM.Key)
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rag: [unclosed"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.RAG.TopK = 9
	require.NoError(t, Save(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9, loaded.RAG.TopK)
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		key      string
		wantErr  bool
	}{
		{"valid openai", "openai", "sk-0123456789abcdefghij", false},
		{"bearer prefix", "openai", "Bearer sk-0123456789abcdefghij", false},
		{"missing openai", "openai", "", true},
		{"wrong prefix", "openai", "pk-0123456789abcdefghij", true},
		{"too short", "openai", "sk-short", true},
		{"gemini present", "gemini", "AIza-something", false},
		{"gemini missing", "gemini", "", true},
		{"ollama needs nothing", "ollama", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAPIKey(tt.provider, tt.key)
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrAuthentication)
				return
			}
			assert.NoError(t, err)
		})
	}
}
