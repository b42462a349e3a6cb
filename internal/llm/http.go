package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/joseph-ayodele/deal-analyzer/internal/common"
)

// maxResponseBytes bounds how much of a model reply is read.
const maxResponseBytes = 8 << 20

// Endpoint is one JSON-over-HTTP model API.
type Endpoint struct {
	Provider string
	URL      string
	Headers  map[string]string
	Client   *http.Client // nil uses a 45s-timeout client
}

// APIError is a non-2xx reply from a model endpoint. It unwraps to
// common.ErrNarrative so the pipeline records a narrative failure.
type APIError struct {
	Provider string
	Status   int
	Message  string // the API's own message, or the start of the body
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%v: %s: status %d", common.ErrNarrative, e.Provider, e.Status)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *APIError) Unwrap() error { return common.ErrNarrative }

// PostJSON posts body to ep and decodes a 2xx reply into out. Every failure
// wraps common.ErrNarrative; non-2xx replies come back as *APIError.
func PostJSON(ctx context.Context, ep Endpoint, body, out any, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	client := ep.Client
	if client == nil {
		client = &http.Client{Timeout: 45 * time.Second}
	}

	ctx, reqID := common.EnsureRequestID(ctx)
	start := time.Now()

	bs, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: %s: encode request: %v", common.ErrNarrative, ep.Provider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(bs))
	if err != nil {
		return fmt.Errorf("%w: %s: build request: %v", common.ErrNarrative, ep.Provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range ep.Headers {
		req.Header.Set(k, v)
	}

	logger.Info("llm.http.request", "req_id", reqID, "provider", ep.Provider, "url", ep.URL, "content_length", len(bs))

	resp, err := client.Do(req)
	if err != nil {
		logger.Error("llm.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return fmt.Errorf("%w: %s: %v", common.ErrNarrative, ep.Provider, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	logger.Info("llm.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("%w: %s: read response: %v", common.ErrNarrative, ep.Provider, err)
	}

	if resp.StatusCode/100 != 2 {
		return &APIError{Provider: ep.Provider, Status: resp.StatusCode, Message: apiMessage(raw)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		logger.Error("llm.http.decode_error", "req_id", reqID, "error", err, "raw_bytes", len(raw))
		return fmt.Errorf("%w: decode %s response: %v", common.ErrNarrative, ep.Provider, err)
	}
	return nil
}

// apiMessage pulls {"error":{"message":...}} out of an error body, falling
// back to the first line of whatever the server sent.
func apiMessage(raw []byte) string {
	var body struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != nil && body.Error.Message != "" {
		return body.Error.Message
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(raw)), "\n")
	return truncateRunes(line, 200)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
