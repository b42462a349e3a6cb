package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/deal-analyzer/internal/common"
	"github.com/joseph-ayodele/deal-analyzer/internal/llm/gemini"
	"github.com/joseph-ayodele/deal-analyzer/internal/llm/openai"
)

func TestNew(t *testing.T) {
	g, err := New(context.Background(), common.LLMConfig{Provider: "OpenAI", APIKey: "k"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &openai.Client{}, g)

	g, err = New(context.Background(), common.LLMConfig{Provider: "gemini", APIKey: "k"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &gemini.Client{}, g)

	_, err = New(context.Background(), common.LLMConfig{Provider: "claude"}, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
