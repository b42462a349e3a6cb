// Package gemini generates deal narratives with Google's Gemini models.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"google.golang.org/genai"

	"github.com/joseph-ayodele/deal-analyzer/constants"
	"github.com/joseph-ayodele/deal-analyzer/internal/common"
	"github.com/joseph-ayodele/deal-analyzer/internal/llm"
)

type Config struct {
	APIKey          string // if empty, falls back to env GEMINI_API_KEY
	BaseURL         string // optional endpoint override
	Model           string // default "gemini-2.0-flash"
	Temperature     float32
	Timeout         time.Duration
	PromptTextLimit int
}

type Client struct {
	cfg    Config
	client *genai.Client
	log    *slog.Logger
}

var _ llm.NarrativeGenerator = (*Client)(nil)

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, common.NewAppError("INVALID_ARGUMENT", "GEMINI_API_KEY is not set", common.ErrInvalidInput)
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if cfg.PromptTextLimit <= 0 {
		cfg.PromptTextLimit = constants.DefaultPromptTextLimit
	}
	if logger == nil {
		logger = slog.Default()
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{cfg: cfg, client: client, log: logger}, nil
}

// Generate implements llm.NarrativeGenerator.
func (c *Client) Generate(ctx context.Context, req llm.AnalysisRequest) (llm.Narrative, error) {
	if err := req.Validate(); err != nil {
		return llm.Narrative{}, err
	}
	ctx, _ = common.EnsureRequestID(ctx)
	log := common.Logger(ctx, c.log)
	start := time.Now()

	prompt := llm.BuildRequestPrompt(req, c.cfg.PromptTextLimit)
	log.Info("llm.narrative.start",
		"provider", llm.ProviderGemini,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.DocumentText),
		"metrics", req.Metrics.Len(),
		"prompt_len", len(prompt),
	)

	result, err := c.client.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.cfg.Temperature),
	})
	if err != nil {
		log.Error("llm.narrative.http_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return llm.Narrative{}, fmt.Errorf("%w: gemini: %v", common.ErrNarrative, err)
	}

	text := llm.CleanNarrative(result.Text())
	if text == "" {
		log.Error("llm.narrative.empty", "candidates", len(result.Candidates))
		return llm.Narrative{}, fmt.Errorf("%w: empty gemini response", common.ErrNarrative)
	}

	model := result.ModelVersion
	if model == "" {
		model = c.cfg.Model
	}
	log.Info("llm.narrative.ok",
		"model", model,
		"chars", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return llm.Narrative{Text: text, Model: model, Provider: llm.ProviderGemini}, nil
}
