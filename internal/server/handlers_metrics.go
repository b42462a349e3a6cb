package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/joseph-ayodele/deal-analyzer/constants"
	"github.com/joseph-ayodele/deal-analyzer/internal/common"
	"github.com/joseph-ayodele/deal-analyzer/internal/metrics"
)

const maxMetricsBody = 4 << 20

var extractMetricsSchema = common.MustCompileSchema("extract_metrics.json", map[string]any{
	"$schema":              "http://json-schema.org/draft-07/schema#",
	"type":                 "object",
	"additionalProperties": false,
	"required":             []any{"text"},
	"properties": map[string]any{
		"text": map[string]any{"type": "string"},
		"labels": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string", "minLength": 1},
		},
	},
})

type extractMetricsRequest struct {
	Text   string   `json:"text"`
	Labels []string `json:"labels,omitempty"`
}

type extractMetricsResponse struct {
	Metrics metrics.MetricSet `json:"metrics"`
	Count   int               `json:"count"`
}

// handleExtractMetrics runs the rule-based extractor over raw text.
func (s *HTTPServer) handleExtractMetrics(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMetricsBody))
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	if err := extractMetricsSchema.Validate(body); err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	var req extractMetricsRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", common.ErrValidation, err), nil)
		return
	}

	keep, err := canonicalLabels(req.Labels)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	ms := metrics.Extract(req.Text)
	if len(keep) > 0 {
		ms = ms.Only(keep...)
	}
	s.inst.ObserveMetrics(ms)
	writeJSON(w, http.StatusOK, extractMetricsResponse{Metrics: ms, Count: ms.Len()})
}

// canonicalLabels resolves user-supplied label names, rejecting unknown ones.
func canonicalLabels(in []string) ([]constants.Label, error) {
	out := make([]constants.Label, 0, len(in))
	for _, raw := range in {
		l, ok := constants.Canonicalize(raw)
		if !ok {
			return nil, fmt.Errorf("%w: unknown metric label %q", common.ErrInvalidInput, raw)
		}
		out = append(out, l)
	}
	return out, nil
}
