package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/deal-analyzer/internal/common"
	"github.com/joseph-ayodele/deal-analyzer/internal/llm"
	"github.com/joseph-ayodele/deal-analyzer/internal/metrics"
)

func TestGenerate_OK(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"model":"gpt-4-0613","choices":[{"message":{"content":"` +
			"```markdown\\n## Deal summary\\nSolid.\\n```" + `"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL}, nil)
	n, err := c.Generate(context.Background(), llm.AnalysisRequest{
		Goal:         "find red flags",
		DocumentText: "Asking price: $1,200,000. NOI: $84,000.",
		Metrics:      metrics.Extract("Asking price: $1,200,000. NOI: $84,000."),
	})
	require.NoError(t, err)

	assert.Equal(t, "## Deal summary\nSolid.", n.Text)
	assert.Equal(t, "gpt-4-0613", n.Model)
	assert.Equal(t, llm.ProviderOpenAI, n.Provider)

	assert.Equal(t, "gpt-4", got.Model)
	assert.Equal(t, 0.0, got.Temperature)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, `The user asked: "find red flags"`)
	assert.Contains(t, got.Messages[0].Content, "- Estimated Cap Rate: 7.00%")
}

func TestGenerate_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	_, err := c.Generate(context.Background(), llm.AnalysisRequest{Goal: "underwrite"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNarrative))
	assert.Contains(t, err.Error(), "rate limited")

	var apiErr *llm.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	assert.Equal(t, llm.ProviderOpenAI, apiErr.Provider)
}

func TestGenerate_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>gateway</html>`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	_, err := c.Generate(context.Background(), llm.AnalysisRequest{Goal: "underwrite"})
	assert.ErrorIs(t, err, common.ErrNarrative)
	assert.Contains(t, err.Error(), "decode openai response")
}

func TestGenerate_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	_, err := c.Generate(context.Background(), llm.AnalysisRequest{Goal: "underwrite"})
	assert.ErrorIs(t, err, common.ErrNarrative)
}

func TestGenerate_RequiresGoal(t *testing.T) {
	c := NewClient(Config{APIKey: "k", BaseURL: "http://127.0.0.1:1"}, nil)
	_, err := c.Generate(context.Background(), llm.AnalysisRequest{Goal: "  "})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
