package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/deal-analyzer/internal/metrics"
	"github.com/joseph-ayodele/deal-analyzer/internal/repository"
)

// MetricsStage derives the deal metrics from extracted text and stores them.
type MetricsStage struct {
	Repo   repository.AnalysisRepository
	Logger *slog.Logger
}

func NewMetricsStage(repo repository.AnalysisRepository, logger *slog.Logger) *MetricsStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &MetricsStage{Repo: repo, Logger: logger}
}

func (s *MetricsStage) Run(ctx context.Context, id uuid.UUID, text string) (metrics.MetricSet, error) {
	ms := metrics.Extract(text)
	s.Logger.Debug("pipeline.metrics.extracted", "analysis_id", id, "chars", len(text), "labels", ms.Labels())
	if err := s.Repo.FinishMetrics(ctx, id, ms); err != nil {
		return ms, err
	}
	return ms, nil
}
