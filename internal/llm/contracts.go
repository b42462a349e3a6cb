package llm

import (
	"context"
	"strings"

	"github.com/joseph-ayodele/deal-analyzer/internal/common"
	"github.com/joseph-ayodele/deal-analyzer/internal/metrics"
)

// Provider names accepted by NewGenerator.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// AnalysisRequest is everything the model sees about one deal.
type AnalysisRequest struct {
	Goal         string
	DocumentText string
	Metrics      metrics.MetricSet
}

// Validate rejects requests without a goal.
func (r AnalysisRequest) Validate() error {
	if strings.TrimSpace(r.Goal) == "" {
		return common.NewAppError("INVALID_ARGUMENT", "analysis goal is required", common.ErrInvalidInput)
	}
	return nil
}

// Narrative is the free-text analysis returned by the model.
type Narrative struct {
	Text     string `json:"text"`
	Model    string `json:"model"`
	Provider string `json:"provider"`
}

// NarrativeGenerator is stage 3: text + goal + metrics -> narrative.
type NarrativeGenerator interface {
	Generate(ctx context.Context, req AnalysisRequest) (Narrative, error)
}
