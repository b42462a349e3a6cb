package repository

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/deal-analyzer/constants"
	"github.com/joseph-ayodele/deal-analyzer/internal/common"
	"github.com/joseph-ayodele/deal-analyzer/internal/entity"
	"github.com/joseph-ayodele/deal-analyzer/internal/metrics"
)

func newTestRepo(t *testing.T) AnalysisRepository {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: ":memory:"}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(logger) })
	require.NoError(t, Migrate(context.Background(), db, logger))
	// running twice must be harmless
	require.NoError(t, Migrate(context.Background(), db, logger))
	return NewAnalysisRepository(db, logger)
}

func TestAnalysisLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	a := &entity.Analysis{FileName: "om.pdf", FileExt: "pdf", ContentHash: "h1", Goal: "underwrite"}
	require.NoError(t, repo.Create(ctx, a))
	require.NotEqual(t, uuid.Nil, a.ID)
	assert.Equal(t, constants.JobStatusRunning, a.Status)

	require.NoError(t, repo.FinishText(ctx, a.ID, "pdf-text", "Asking price", 0.75))
	ms := metrics.Extract("Asking price: $1,200,000. NOI: $84,000.")
	require.NoError(t, repo.FinishMetrics(ctx, a.ID, ms))
	require.NoError(t, repo.FinishNarrative(ctx, a.ID, "Looks fine.", "gpt-4"))

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusNarrativeOK, got.Status)
	assert.Equal(t, "om.pdf", got.FileName)
	require.NotNil(t, got.TextMethod)
	assert.Equal(t, "pdf-text", *got.TextMethod)
	require.NotNil(t, got.TextConfidence)
	assert.InDelta(t, 0.75, *got.TextConfidence, 1e-6)
	assert.Equal(t, ms.Labels(), got.Metrics.Labels())
	assert.Equal(t, "Looks fine.", got.NarrativeText())
	require.NotNil(t, got.Model)
	assert.Equal(t, "gpt-4", *got.Model)
	require.NotNil(t, got.FinishedAt)
	assert.Nil(t, got.ErrorMessage)
	assert.WithinDuration(t, a.CreatedAt, got.CreatedAt, time.Second)
}

func TestFinishFailure(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	a := &entity.Analysis{FileName: "scan.png", FileExt: "png"}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.FinishMetrics(ctx, a.ID, metrics.MetricSet{}))
	require.NoError(t, repo.FinishFailure(ctx, a.ID, constants.JobStatusNarrativeFailed, "openai: 429"))

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusNarrativeFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "openai: 429", *got.ErrorMessage)
	assert.True(t, got.Metrics.Empty())

	require.NoError(t, repo.FinishFailure(ctx, a.ID, "", "boom"))
	got, err = repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusFailed, got.Status)
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)

	err = repo.FinishText(ctx, uuid.New(), "plain-text", "", 1)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = repo.FindByHash(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = repo.FindByHash(ctx, " ")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestListAndFindByHash(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		a := &entity.Analysis{FileName: name, FileExt: "pdf", ContentHash: "same", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, repo.Create(ctx, a))
	}

	list, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c.pdf", list[0].FileName)
	assert.Equal(t, "b.pdf", list[1].FileName)

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	huge, err := repo.List(ctx, math.MaxInt)
	require.NoError(t, err)
	assert.Len(t, huge, 3)

	latest, err := repo.FindByHash(ctx, "same")
	require.NoError(t, err)
	assert.Equal(t, "c.pdf", latest.FileName)
}
