package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig_IsValid(t *testing.T) {
	config := NewDefaultConfig()

	require.NoError(t, config.Validate())
	assert.Equal(t, "DEEPSEEK_COLLECTION", config.VectorDB.Collection)
	assert.Equal(t, 1000, config.Chunking.Size)
	assert.Equal(t, 100, config.Chunking.Overlap)
	assert.Equal(t, 3, config.Reasoning.MaxRetries)
	assert.Equal(t, "2s", config.Reasoning.RetryDelay)
	assert.Equal(t, "gpt-4o-mini", config.Response.Model)
	assert.Equal(t, "http://localhost:11434", config.Reasoning.BaseURL)
}

func TestLoadFromFiles_TOMLThenYAML(t *testing.T) {
	dir := t.TempDir()

	tomlPath := filepath.Join(dir, "base.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(`
[chunking]
size = 500
overlap = 50

[vector_db]
collection = "FROM_TOML"
`), 0644))

	yamlPath := filepath.Join(dir, "override.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
vector_db:
  collection: FROM_YAML
response:
  provider: claude
  model: claude-haiku-4-5
`), 0644))

	config, err := LoadFromFiles(tomlPath, yamlPath)
	require.NoError(t, err)

	assert.Equal(t, 500, config.Chunking.Size)
	assert.Equal(t, 50, config.Chunking.Overlap)
	assert.Equal(t, "FROM_YAML", config.VectorDB.Collection)
	assert.Equal(t, "claude", config.Response.Provider)
	assert.Equal(t, "claude-haiku-4-5", config.Response.Model)
	// Untouched sections keep defaults
	assert.Equal(t, "http://localhost:6333", config.VectorDB.URL)
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("QDRANT_URL", "http://qdrant:6333")
	t.Setenv("RAGCHAIN_VECTOR_DB_API_KEY", "vdb-key")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OLLAMA_HOST", "ollama:11434")
	t.Setenv("RAGCHAIN_COLLECTION_NAME", "DOCS")
	t.Setenv("RAGCHAIN_RESPONSE_MODEL", "gpt-4.1-mini")
	t.Setenv("RAGCHAIN_CHUNK_SIZE", "256")
	t.Setenv("RAGCHAIN_CHUNK_OVERLAP", "32")
	t.Setenv("RAGCHAIN_MAX_RETRIES", "5")
	t.Setenv("RAGCHAIN_RETRY_DELAY", "1")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "http://qdrant:6333", config.VectorDB.URL)
	assert.Equal(t, "vdb-key", config.VectorDB.APIKey)
	assert.Equal(t, "sk-test", config.Embedding.APIKey)
	assert.Equal(t, "sk-test", config.Response.APIKey)
	assert.Equal(t, "http://ollama:11434", config.Reasoning.BaseURL)
	assert.Equal(t, "DOCS", config.VectorDB.Collection)
	assert.Equal(t, "gpt-4.1-mini", config.Response.Model)
	assert.Equal(t, 256, config.Chunking.Size)
	assert.Equal(t, 32, config.Chunking.Overlap)
	assert.Equal(t, 5, config.Reasoning.MaxRetries)
	assert.Equal(t, "1s", config.Reasoning.RetryDelay)
	assert.NoError(t, config.Validate())
}

func TestApplyEnvOverrides_PrefixedNameWins(t *testing.T) {
	t.Setenv("QDRANT_URL", "http://standard:6333")
	t.Setenv("RAGCHAIN_VECTOR_DB_URL", "http://prefixed:6333")

	config, err := LoadFromFiles()
	require.NoError(t, err)
	assert.Equal(t, "http://prefixed:6333", config.VectorDB.URL)
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()
	ApplyFlagOverrides(config, 9090, "0.0.0.0")
	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)

	ApplyFlagOverrides(config, 0, "")
	assert.Equal(t, 9090, config.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"overlap equal to size", func(c *Config) { c.Chunking.Overlap = c.Chunking.Size }, true},
		{"zero chunk size", func(c *Config) { c.Chunking.Size = 0 }, true},
		{"unknown backend", func(c *Config) { c.VectorDB.Backend = "pinecone" }, true},
		{"qdrant without url", func(c *Config) { c.VectorDB.URL = "" }, true},
		{"badger without url", func(c *Config) { c.VectorDB.Backend = "badger"; c.VectorDB.URL = "" }, false},
		{"unknown response provider", func(c *Config) { c.Response.Provider = "mistral" }, true},
		{"negative retries", func(c *Config) { c.Reasoning.MaxRetries = -1 }, true},
		{"bad retry delay", func(c *Config) { c.Reasoning.RetryDelay = "soon" }, true},
		{"bad resync schedule", func(c *Config) { c.Watcher.ResyncSchedule = "every day" }, true},
		{"good resync schedule", func(c *Config) { c.Watcher.ResyncSchedule = "0 */10 * * * *" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewDefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("RAGCHAIN_TEST_ENV_FILE=loaded\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("RAGCHAIN_TEST_ENV_FILE") })

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "loaded", os.Getenv("RAGCHAIN_TEST_ENV_FILE"))
}
