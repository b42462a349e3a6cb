package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/deal-analyzer/constants"
	"github.com/joseph-ayodele/deal-analyzer/internal/extract"
	"github.com/joseph-ayodele/deal-analyzer/internal/repository"
)

// TextStage runs the document text extractor and records the outcome.
type TextStage struct {
	Repo          repository.AnalysisRepository
	TextExtractor extract.TextExtractor
	PreviewChars  int
	Logger        *slog.Logger
}

func NewTextStage(repo repository.AnalysisRepository, tx extract.TextExtractor, previewChars int, logger *slog.Logger) *TextStage {
	if logger == nil {
		logger = slog.Default()
	}
	if previewChars <= 0 {
		previewChars = constants.DefaultPromptTextLimit
	}
	return &TextStage{Repo: repo, TextExtractor: tx, PreviewChars: previewChars, Logger: logger}
}

// Run extracts text from path. On failure the analysis is marked FAILED.
func (s *TextStage) Run(ctx context.Context, id uuid.UUID, path string) (extract.TextExtractionResult, error) {
	res, err := s.TextExtractor.Extract(ctx, path)
	if err != nil {
		if ferr := s.Repo.FinishFailure(ctx, id, constants.JobStatusFailed, err.Error()); ferr != nil {
			s.Logger.Error("pipeline.text.record_failure_failed", "analysis_id", id, "error", ferr)
		}
		return res, fmt.Errorf("extract text: %w", err)
	}
	for _, w := range res.Warnings {
		if w != "" {
			s.Logger.Debug("pipeline.text.warning", "analysis_id", id, "warning", w)
		}
	}
	if err := s.Repo.FinishText(ctx, id, res.Method, res.Preview(s.PreviewChars), res.Confidence); err != nil {
		return res, err
	}
	return res, nil
}
