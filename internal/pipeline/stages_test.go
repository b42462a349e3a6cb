package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/deal-analyzer/constants"
	"github.com/joseph-ayodele/deal-analyzer/internal/common"
	"github.com/joseph-ayodele/deal-analyzer/internal/llm"
	"github.com/joseph-ayodele/deal-analyzer/internal/repository"
)

// brokenRepo fails every status write.
type brokenRepo struct {
	repository.AnalysisRepository
	failures []constants.JobStatus
}

func (r *brokenRepo) FinishFailure(_ context.Context, _ uuid.UUID, status constants.JobStatus, _ string) error {
	r.failures = append(r.failures, status)
	return fmt.Errorf("%w: database is locked", common.ErrDatabase)
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestTextStage_LogsUnrecordedFailure(t *testing.T) {
	logger, logs := bufferLogger()
	repo := &brokenRepo{}
	stage := NewTextStage(repo, fakeExtractor{err: fmt.Errorf("%w: unreadable", common.ErrExtraction)}, 0, logger)

	_, err := stage.Run(context.Background(), uuid.New(), "scan.png")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrExtraction))
	assert.Equal(t, []constants.JobStatus{constants.JobStatusFailed}, repo.failures)
	assert.Contains(t, logs.String(), `"msg":"pipeline.text.record_failure_failed"`)
	assert.Contains(t, logs.String(), "database is locked")
}

func TestNarrativeStage_LogsUnrecordedFailure(t *testing.T) {
	logger, logs := bufferLogger()
	repo := &brokenRepo{}
	gen := &fakeGenerator{err: fmt.Errorf("%w: openai: 503", common.ErrNarrative)}
	stage := NewNarrativeStage(repo, gen, logger)

	_, err := stage.Run(context.Background(), uuid.New(), llm.AnalysisRequest{Goal: "underwrite"})
	assert.ErrorIs(t, err, common.ErrNarrative)
	assert.Equal(t, []constants.JobStatus{constants.JobStatusNarrativeFailed}, repo.failures)
	assert.Contains(t, logs.String(), `"msg":"pipeline.narrative.failed"`)
	assert.Contains(t, logs.String(), `"msg":"pipeline.narrative.record_failure_failed"`)
}
