// Package providers builds the configured llm.NarrativeGenerator.
package providers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/deal-analyzer/internal/common"
	"github.com/joseph-ayodele/deal-analyzer/internal/llm"
	"github.com/joseph-ayodele/deal-analyzer/internal/llm/gemini"
	"github.com/joseph-ayodele/deal-analyzer/internal/llm/openai"
)

// New returns the generator named by cfg.Provider.
func New(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (llm.NarrativeGenerator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", llm.ProviderOpenAI:
		return openai.NewClient(openai.Config{
			APIKey:          cfg.APIKey,
			BaseURL:         cfg.BaseURL,
			Model:           cfg.Model,
			Temperature:     cfg.Temperature,
			Timeout:         cfg.Timeout,
			PromptTextLimit: cfg.PromptTextLimit,
		}, logger), nil
	case llm.ProviderGemini:
		return gemini.NewClient(ctx, gemini.Config{
			APIKey:          cfg.APIKey,
			BaseURL:         cfg.BaseURL,
			Model:           cfg.Model,
			Temperature:     cfg.Temperature,
			Timeout:         cfg.Timeout,
			PromptTextLimit: cfg.PromptTextLimit,
		}, logger)
	default:
		return nil, fmt.Errorf("%w: unknown LLM provider %q", common.ErrInvalidInput, cfg.Provider)
	}
}
