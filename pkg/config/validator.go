package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate LLM config
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if c.LLM.RequestsPerMinute <= 0 {
		errors = append(errors, ValidationError{
			Field:   "llm.requests_per_minute",
			Message: "requests_per_minute must be positive",
		})
	}

	if c.LLM.OllamaBaseURL != "" {
		if _, err := url.Parse(c.LLM.OllamaBaseURL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "llm.ollama_base_url",
				Message: "invalid Ollama base URL",
			})
		}
	}

	// Validate Index config
	if c.Index.ChunkSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "index.chunk_size",
			Message: "chunk_size must be positive",
		})
	}

	if c.Index.Overlap < 0 || c.Index.Overlap >= c.Index.ChunkSize {
		errors = append(errors, ValidationError{
			Field:   "index.chunk_overlap",
			Message: "chunk_overlap must be non-negative and less than chunk_size",
		})
	}

	// Validate Cache config
	switch c.Cache.Backend {
	case "dir":
		if c.Cache.Dir == "" {
			errors = append(errors, ValidationError{
				Field:   "cache.dir",
				Message: "cache dir is required for the dir backend",
			})
		}
	case "redis":
		if c.Cache.RedisAddr == "" {
			errors = append(errors, ValidationError{
				Field:   "cache.redis_addr",
				Message: "redis_addr is required for the redis backend",
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   "cache.backend",
			Message: fmt.Sprintf("unknown cache backend: %s", c.Cache.Backend),
		})
	}

	// Validate Database config
	if c.Database.URL != "" {
		if _, err := url.Parse(c.Database.URL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "database.url",
				Message: "invalid database URL",
			})
		}
	}

	// Validate Server config
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "server.port",
			Message: "port must be between 1 and 65535",
		})
	}

	return errors
}
