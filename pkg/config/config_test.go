package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
llm:
  openai_model: "gpt-4o"
  ollama_base_url: "http://localhost:11434"
  ollama_model: "mistral"
  temperature: 0.5
  requests_per_minute: 30

index:
  chunk_size: 1000
  chunk_overlap: 200

cache:
  backend: "dir"
  dir: "/tmp/tier0_cache"

database:
  url: "postgres://localhost:5432/test"
  table_name: "access_logs"

mongo:
  url: "mongodb://localhost:27017"

docs:
  dir: "/srv/reports"

server:
  host: "127.0.0.1"
  port: 9000
`
	err := os.WriteFile(configPath, []byte(configData), 0644)
	require.NoError(t, err)

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", config.LLM.OpenAIModel)
	assert.Equal(t, "http://localhost:11434", config.LLM.OllamaBaseURL)
	assert.Equal(t, 0.5, config.LLM.Temperature)
	assert.Equal(t, 30.0, config.LLM.RequestsPerMinute)
	assert.Equal(t, 1000, config.Index.ChunkSize)
	assert.Equal(t, 200, config.Index.Overlap)
	assert.Equal(t, "access_logs", config.Database.TableName)
	assert.Equal(t, "/srv/reports", config.Docs.Dir)
	assert.Equal(t, 9000, config.Server.Port)
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("llm: {}\n"), 0644))

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", config.LLM.OpenAIModel)
	assert.Equal(t, "text-embedding-3-large", config.LLM.OpenAIEmbeddingModel)
	assert.Equal(t, 1500, config.Index.ChunkSize)
	assert.Equal(t, 300, config.Index.Overlap)
	assert.Equal(t, "dir", config.Cache.Backend)
	assert.Equal(t, "system_logs", config.Database.TableName)
	assert.Equal(t, "tier0_images", config.Mongo.Database)
	assert.Equal(t, 8000, config.Server.Port)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DATABASE_URL", "postgres://env-host:5432/logs")
	t.Setenv("REDIS_ADDR", "redis:6379")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("cache:\n  backend: dir\n"), 0644))

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "sk-test", config.LLM.OpenAIAPIKey)
	assert.Equal(t, "postgres://env-host:5432/logs", config.Database.URL)
	// REDIS_ADDR switches the cache backend over.
	assert.Equal(t, "redis", config.Cache.Backend)
	assert.Equal(t, "redis:6379", config.Cache.RedisAddr)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(*Config)
		expectedErrs int
	}{
		{
			name:         "valid defaults",
			mutate:       func(c *Config) {},
			expectedErrs: 0,
		},
		{
			name: "overlap not below chunk size",
			mutate: func(c *Config) {
				c.Index.ChunkSize = 100
				c.Index.Overlap = 100
			},
			expectedErrs: 1,
		},
		{
			name: "unknown cache backend",
			mutate: func(c *Config) {
				c.Cache.Backend = "memcached"
			},
			expectedErrs: 1,
		},
		{
			name: "redis backend needs an address",
			mutate: func(c *Config) {
				c.Cache.Backend = "redis"
				c.Cache.RedisAddr = ""
			},
			expectedErrs: 1,
		},
		{
			name: "temperature and port out of range",
			mutate: func(c *Config) {
				c.LLM.Temperature = 3.0
				c.Server.Port = 70000
			},
			expectedErrs: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}
			applyDefaults(config)
			tt.mutate(config)

			errs := config.Validate()
			assert.Len(t, errs, tt.expectedErrs)
		})
	}
}
