package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM struct {
		OpenAIAPIKey         string  `yaml:"openai_api_key"`
		OpenAIModel          string  `yaml:"openai_model"`
		OpenAIEmbeddingModel string  `yaml:"openai_embedding_model"`
		OllamaBaseURL        string  `yaml:"ollama_base_url"`
		OllamaModel          string  `yaml:"ollama_model"`
		OllamaEmbedding      string  `yaml:"ollama_embedding_model"`
		Temperature          float64 `yaml:"temperature"`
		RequestsPerMinute    float64 `yaml:"requests_per_minute"`
	} `yaml:"llm"`

	Index struct {
		ChunkSize int `yaml:"chunk_size"`
		Overlap   int `yaml:"chunk_overlap"`
	} `yaml:"index"`

	Cache struct {
		Backend   string `yaml:"backend"` // "dir" or "redis"
		Dir       string `yaml:"dir"`
		RedisAddr string `yaml:"redis_addr"`
		RedisDB   int    `yaml:"redis_db"`
		Prefix    string `yaml:"prefix"`
	} `yaml:"cache"`

	Database struct {
		URL       string `yaml:"url"`
		TableName string `yaml:"table_name"`
	} `yaml:"database"`

	Mongo struct {
		URL        string `yaml:"url"`
		Database   string `yaml:"database"`
		Collection string `yaml:"collection"`
	} `yaml:"mongo"`

	Docs struct {
		Dir string `yaml:"dir"`
	} `yaml:"docs"`

	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/tier0/config.yaml"),
			"/etc/tier0/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.OpenAIModel == "" {
		config.LLM.OpenAIModel = "gpt-4o"
	}
	if config.LLM.OpenAIEmbeddingModel == "" {
		config.LLM.OpenAIEmbeddingModel = "text-embedding-3-large"
	}
	if config.LLM.OllamaModel == "" {
		config.LLM.OllamaModel = "mistral"
	}
	if config.LLM.OllamaEmbedding == "" {
		config.LLM.OllamaEmbedding = "nomic-embed-text:latest"
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.3
	}
	if config.LLM.RequestsPerMinute == 0 {
		config.LLM.RequestsPerMinute = 60
	}

	if config.Index.ChunkSize == 0 {
		config.Index.ChunkSize = 1500
	}
	if config.Index.Overlap == 0 {
		config.Index.Overlap = 300
	}

	if config.Cache.Backend == "" {
		config.Cache.Backend = "dir"
	}
	if config.Cache.Dir == "" {
		config.Cache.Dir = "index_cache"
	}
	if config.Cache.Prefix == "" {
		config.Cache.Prefix = "tier0:index"
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "system_logs"
	}

	if config.Mongo.Database == "" {
		config.Mongo.Database = "tier0_images"
	}
	if config.Mongo.Collection == "" {
		config.Mongo.Collection = "images"
	}

	if config.Docs.Dir == "" {
		config.Docs.Dir = "documents"
	}

	if config.Server.Host == "" {
		config.Server.Host = "0.0.0.0"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8000
	}
}

func mergeWithEnv(config *Config) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		config.LLM.OpenAIAPIKey = key
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.OllamaBaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if mongoURL := os.Getenv("MONGODB_URL"); mongoURL != "" {
		config.Mongo.URL = mongoURL
	}
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		config.Cache.RedisAddr = redisAddr
		config.Cache.Backend = "redis"
	}
}
