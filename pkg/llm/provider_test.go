package llm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/tier0/pkg/llm"
)

func TestNewOpenAI_RequiresToken(t *testing.T) {
	_, err := llm.NewOpenAI(llm.OpenAIConfig{})
	assert.Error(t, err)
}

func TestNewOpenAI_Defaults(t *testing.T) {
	p, err := llm.NewOpenAI(llm.OpenAIConfig{Token: "test-token"})
	require.NoError(t, err)

	assert.Equal(t, "OpenAI", p.Name())
	assert.Equal(t, 3072, p.Dimension())
}

func TestNewOllama_Defaults(t *testing.T) {
	p, err := llm.NewOllama(llm.OllamaConfig{})
	require.NoError(t, err)

	assert.Equal(t, "Ollama", p.Name())
	assert.Equal(t, 768, p.Dimension())
}

func TestOllama_ToolSelectionUnsupported(t *testing.T) {
	p, err := llm.NewOllama(llm.OllamaConfig{})
	require.NoError(t, err)

	_, err = p.SelectTools(context.Background(), "any question", nil)
	assert.ErrorIs(t, err, llm.ErrToolsUnsupported)
}
