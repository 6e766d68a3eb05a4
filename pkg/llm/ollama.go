package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/xhad/tier0/internal/types"
)

type OllamaConfig struct {
	BaseURL           string
	Model             string
	EmbeddingModel    string
	Dimension         int
	Temperature       float64
	RequestsPerMinute float64
}

// Ollama is the self-hosted provider. It embeds and completes but has no
// tool selection, so routing degrades to the keyword rule table.
type Ollama struct {
	config   OllamaConfig
	chat     *ollama.LLM
	embedder *ollama.LLM
	throttle throttle
}

func NewOllama(config OllamaConfig) (*Ollama, error) {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.Model == "" {
		config.Model = "mistral"
	}
	if config.EmbeddingModel == "" {
		config.EmbeddingModel = "nomic-embed-text:latest"
	}
	if config.Dimension == 0 {
		config.Dimension = 768 // nomic-embed-text
	}
	if config.Temperature == 0 {
		config.Temperature = 0.3
	}

	chat, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ollama chat model: %w", err)
	}
	embedder, err := ollama.New(
		ollama.WithModel(config.EmbeddingModel),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ollama embedding model: %w", err)
	}

	return &Ollama{
		config:   config,
		chat:     chat,
		embedder: embedder,
		throttle: newThrottle(config.RequestsPerMinute),
	}, nil
}

func (o *Ollama) Name() string   { return "Ollama" }
func (o *Ollama) Dimension() int { return o.config.Dimension }

func (o *Ollama) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := o.throttle.wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	vectors, err := o.embedder.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: empty embedding response", ErrProviderUnavailable)
	}
	return vectors[0], nil
}

func (o *Ollama) Chat(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	if system == "" {
		system = synthesisSystemPrompt
	}
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	resp, err := o.chat.GenerateContent(ctx, content,
		llms.WithTemperature(o.config.Temperature),
		llms.WithMaxTokens(maxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", ErrProviderUnavailable)
	}
	return resp.Choices[0].Content, nil
}

func (o *Ollama) SelectTools(_ context.Context, _ string, _ []types.Tool) ([]types.ToolCall, error) {
	return nil, ErrToolsUnsupported
}
