package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/deal-analyzer/constants"
	"github.com/joseph-ayodele/deal-analyzer/internal/llm"
	"github.com/joseph-ayodele/deal-analyzer/internal/repository"
)

// NarrativeStage asks the model for the written analysis.
type NarrativeStage struct {
	Repo      repository.AnalysisRepository
	Generator llm.NarrativeGenerator
	Logger    *slog.Logger
}

func NewNarrativeStage(repo repository.AnalysisRepository, gen llm.NarrativeGenerator, logger *slog.Logger) *NarrativeStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &NarrativeStage{Repo: repo, Generator: gen, Logger: logger}
}

// Run generates and stores the narrative. A model failure marks the analysis
// NARRATIVE_FAILED; the stored metrics stay untouched.
func (s *NarrativeStage) Run(ctx context.Context, id uuid.UUID, req llm.AnalysisRequest) (llm.Narrative, error) {
	n, err := s.Generator.Generate(ctx, req)
	if err != nil {
		s.Logger.Warn("pipeline.narrative.failed", "analysis_id", id, "error", err)
		if ferr := s.Repo.FinishFailure(ctx, id, constants.JobStatusNarrativeFailed, err.Error()); ferr != nil {
			s.Logger.Error("pipeline.narrative.record_failure_failed", "analysis_id", id, "error", ferr)
		}
		return n, err
	}
	s.Logger.Debug("pipeline.narrative.generated", "analysis_id", id, "provider", n.Provider, "model", n.Model, "chars", len(n.Text))
	if err := s.Repo.FinishNarrative(ctx, id, n.Text, n.Model); err != nil {
		return n, err
	}
	return n, nil
}
