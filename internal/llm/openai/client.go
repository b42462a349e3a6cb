package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/deal-analyzer/internal/common"
	"github.com/joseph-ayodele/deal-analyzer/internal/llm"
)

var _ llm.NarrativeGenerator = (*Client)(nil)

type chatCompletion struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Generate implements llm.NarrativeGenerator using text-only chat/completions.
func (c *Client) Generate(ctx context.Context, req llm.AnalysisRequest) (llm.Narrative, error) {
	if err := req.Validate(); err != nil {
		return llm.Narrative{}, err
	}
	ctx, rid := common.EnsureRequestID(ctx)
	log := common.Logger(ctx, c.log)
	start := time.Now()

	prompt := llm.BuildRequestPrompt(req, c.cfg.PromptTextLimit)
	log.Info("llm.narrative.start",
		"provider", llm.ProviderOpenAI,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.DocumentText),
		"metrics", req.Metrics.Len(),
		"prompt_len", len(prompt),
	)

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
	}
	ep := llm.Endpoint{
		Provider: llm.ProviderOpenAI,
		URL:      strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions",
		Headers:  map[string]string{"Authorization": "Bearer " + c.cfg.APIKey},
		Client:   c.httpClient,
	}
	var cc chatCompletion
	if err := llm.PostJSON(ctx, ep, body, &cc, log); err != nil {
		attrs := []any{"req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds()}
		var apiErr *llm.APIError
		if errors.As(err, &apiErr) {
			attrs = append(attrs, "status", apiErr.Status)
		}
		log.Error("llm.narrative.http_error", attrs...)
		return llm.Narrative{}, err
	}
	if len(cc.Choices) == 0 {
		log.Error("llm.narrative.no_choices", "elapsed_ms", time.Since(start).Milliseconds())
		return llm.Narrative{}, fmt.Errorf("%w: no choices in openai response", common.ErrNarrative)
	}
	text := llm.CleanNarrative(cc.Choices[0].Message.Content)
	if text == "" {
		log.Error("llm.narrative.empty", "finish_reason", cc.Choices[0].FinishReason)
		return llm.Narrative{}, fmt.Errorf("%w: empty openai response", common.ErrNarrative)
	}

	model := cc.Model
	if model == "" {
		model = c.cfg.Model
	}
	log.Info("llm.narrative.ok",
		"model", model,
		"chars", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return llm.Narrative{Text: text, Model: model, Provider: llm.ProviderOpenAI}, nil
}
