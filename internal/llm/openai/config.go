package openai

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joseph-ayodele/deal-analyzer/constants"
)

// Config for the OpenAI client.
type Config struct {
	APIKey          string        // if empty, falls back to env OPENAI_API_KEY
	BaseURL         string        // default https://api.openai.com/v1
	Model           string        // default "gpt-4"
	Temperature     float32       // 0..2
	Timeout         time.Duration // http client timeout
	PromptTextLimit int           // runes of document text sent; default 1500
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4"
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
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}
}

// Model reports the configured model name.
func (c *Client) Model() string { return c.cfg.Model }
