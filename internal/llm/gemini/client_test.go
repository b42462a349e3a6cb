package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/deal-analyzer/internal/common"
	"github.com/joseph-ayodele/deal-analyzer/internal/llm"
)

func TestNewClient_RequiresKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	_, err := NewClient(context.Background(), Config{}, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestGenerate_OK(t *testing.T) {
	var prompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-2.0-flash:generateContent"), r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		require.NoError(t, json.Unmarshal(body, &req))
		if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			prompt = req.Contents[0].Parts[0].Text
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Deal looks fair."}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), Config{APIKey: "test", BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	n, err := c.Generate(context.Background(), llm.AnalysisRequest{Goal: "underwrite", DocumentText: "24 units"})
	require.NoError(t, err)
	assert.Equal(t, "Deal looks fair.", n.Text)
	assert.Equal(t, "gemini-2.0-flash", n.Model)
	assert.Equal(t, llm.ProviderGemini, n.Provider)
	assert.Contains(t, prompt, `The user asked: "underwrite"`)
}

func TestGenerate_RequiresGoal(t *testing.T) {
	c, err := NewClient(context.Background(), Config{APIKey: "test", BaseURL: "http://127.0.0.1:1"}, nil)
	require.NoError(t, err)
	_, err = c.Generate(context.Background(), llm.AnalysisRequest{})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
