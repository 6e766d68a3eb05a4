package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/xhad/tier0/internal/types"
)

type OpenAIConfig struct {
	Token             string
	Model             string
	EmbeddingModel    string
	Dimension         int
	Temperature       float64
	RequestsPerMinute float64
}

// OpenAI is the preferred provider: large embeddings plus native
// function calling for query routing.
type OpenAI struct {
	config   OpenAIConfig
	llm      *openai.LLM
	throttle throttle
}

func NewOpenAI(config OpenAIConfig) (*OpenAI, error) {
	if config.Token == "" {
		return nil, fmt.Errorf("openai token is required")
	}
	if config.Model == "" {
		config.Model = "gpt-4o"
	}
	if config.EmbeddingModel == "" {
		config.EmbeddingModel = "text-embedding-3-large"
	}
	if config.Dimension == 0 {
		config.Dimension = 3072 // text-embedding-3-large
	}
	if config.Temperature == 0 {
		config.Temperature = 0.3
	}

	client, err := openai.New(
		openai.WithToken(config.Token),
		openai.WithModel(config.Model),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize openai client: %w", err)
	}

	return &OpenAI{
		config:   config,
		llm:      client,
		throttle: newThrottle(config.RequestsPerMinute),
	}, nil
}

func (o *OpenAI) Name() string   { return "OpenAI" }
func (o *OpenAI) Dimension() int { return o.config.Dimension }

func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := o.throttle.wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	vectors, err := o.llm.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: empty embedding response", ErrProviderUnavailable)
	}
	return vectors[0], nil
}

func (o *OpenAI) Chat(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	if system == "" {
		system = synthesisSystemPrompt
	}
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	resp, err := o.llm.GenerateContent(ctx, content,
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

func (o *OpenAI) SelectTools(ctx context.Context, question string, tools []types.Tool) ([]types.ToolCall, error) {
	defs := make([]llms.Tool, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{
							"type":        "string",
							"description": "The question to search this data source for",
						},
					},
					"required": []string{"question"},
				},
			},
		})
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, routerSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, question),
	}

	resp, err := o.llm.GenerateContent(ctx, content,
		llms.WithTools(defs),
		llms.WithTemperature(0.1),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, nil
	}

	var calls []types.ToolCall
	for _, tc := range resp.Choices[0].ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		var args struct {
			Question string `json:"question"`
		}
		if err := json.Unmarshal([]byte(tc.FunctionCall.Arguments), &args); err != nil || args.Question == "" {
			args.Question = question
		}
		calls = append(calls, types.ToolCall{Name: tc.FunctionCall.Name, Question: args.Question})
	}
	return calls, nil
}
