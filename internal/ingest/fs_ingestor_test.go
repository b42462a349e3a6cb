package ingest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/deal-analyzer/constants"
	"github.com/joseph-ayodele/deal-analyzer/internal/async"
	"github.com/joseph-ayodele/deal-analyzer/internal/common"
	"github.com/joseph-ayodele/deal-analyzer/internal/entity"
	"github.com/joseph-ayodele/deal-analyzer/internal/pipeline"
	"github.com/joseph-ayodele/deal-analyzer/internal/repository"
)

// recordingProcessor stores a row per call so dedupe can find it.
type recordingProcessor struct {
	repo   repository.AnalysisRepository
	status constants.JobStatus

	mu      sync.Mutex
	uploads []pipeline.Upload
}

func (p *recordingProcessor) Process(ctx context.Context, u pipeline.Upload) (*entity.Analysis, error) {
	p.mu.Lock()
	p.uploads = append(p.uploads, u)
	p.mu.Unlock()
	a := &entity.Analysis{FileName: filepath.Base(u.Path), FileExt: "txt", ContentHash: u.ContentHash, Goal: u.Goal}
	if err := p.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	if p.status == constants.JobStatusFailed {
		_ = p.repo.FinishFailure(ctx, a.ID, constants.JobStatusFailed, "boom")
	} else {
		_ = p.repo.FinishMetrics(ctx, a.ID, a.Metrics)
	}
	return p.repo.GetByID(ctx, a.ID)
}

func (p *recordingProcessor) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.uploads)
}

func newIngestor(t *testing.T) (*FSIngestor, *recordingProcessor) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := repository.Open(context.Background(), repository.Config{DSN: ":memory:"}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(logger) })
	require.NoError(t, repository.Migrate(context.Background(), db, logger))
	repo := repository.NewAnalysisRepository(db, logger)
	proc := &recordingProcessor{repo: repo}
	return NewFSIngestor(repo, proc, "default goal", logger), proc
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestIngestPath_Dedupes(t *testing.T) {
	ing, proc := newIngestor(t)
	dir := t.TempDir()
	p1 := write(t, dir, "a.txt", "24 units")
	p2 := write(t, dir, "copy.txt", "24 units")

	r1, err := ing.IngestPath(context.Background(), p1, "", false)
	require.NoError(t, err)
	assert.False(t, r1.Deduplicated)
	assert.Len(t, r1.HashHex, 64)
	_, err = uuid.Parse(r1.AnalysisID)
	assert.NoError(t, err)

	r2, err := ing.IngestPath(context.Background(), p2, "", false)
	require.NoError(t, err)
	assert.True(t, r2.Deduplicated)
	assert.Equal(t, r1.AnalysisID, r2.AnalysisID)
	assert.Equal(t, 1, proc.count())
	assert.Equal(t, "default goal", proc.uploads[0].Goal)

	r3, err := ing.IngestPath(context.Background(), p2, "custom", true)
	require.NoError(t, err)
	assert.False(t, r3.Deduplicated)
	assert.Equal(t, 2, proc.count())
	assert.Equal(t, "custom", proc.uploads[1].Goal)
}

func TestIngestPath_RetriesFailed(t *testing.T) {
	ing, proc := newIngestor(t)
	proc.status = constants.JobStatusFailed
	p := write(t, t.TempDir(), "a.txt", "NOI: $1")

	_, err := ing.IngestPath(context.Background(), p, "", false)
	require.NoError(t, err)
	r, err := ing.IngestPath(context.Background(), p, "", false)
	require.NoError(t, err)
	assert.False(t, r.Deduplicated)
	assert.Equal(t, 2, proc.count())
}

func TestIngestPath_Unsupported(t *testing.T) {
	ing, _ := newIngestor(t)
	p := write(t, t.TempDir(), "model.xlsx", "x")
	_, err := ing.IngestPath(context.Background(), p, "", false)
	assert.ErrorIs(t, err, common.ErrUnsupportedFormat)
}

func TestIngestDirectory(t *testing.T) {
	ing, proc := newIngestor(t)
	root := t.TempDir()
	write(t, root, "a.txt", "one")
	write(t, root, "nested/b.txt", "two")
	write(t, root, "nested/dup.txt", "one")
	write(t, root, ".hidden/c.txt", "three")
	write(t, root, "notes.xlsx", "ignored")
	write(t, root, "d.txt.part", "partial")

	results, stats, err := ing.IngestDirectory(context.Background(), root, "", true, false)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, uint32(3), stats.Matched)
	assert.Equal(t, uint32(3), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Deduplicated)
	assert.Zero(t, stats.Failed)
	assert.Equal(t, 2, proc.count())

	_, _, err = ing.IngestDirectory(context.Background(), " ", "", true, false)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestWatchFeedsQueue(t *testing.T) {
	ing, proc := newIngestor(t)
	root := t.TempDir()
	write(t, root, "existing.txt", "24 units")

	q := async.NewProcessorQueue(ing.Handle, nil, async.WithWorkers(1))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, Debounce: 20 * time.Millisecond}, q, "")
	}()

	require.Eventually(t, func() bool { return proc.count() == 1 }, 5*time.Second, 10*time.Millisecond)

	write(t, root, "new.txt", "NOI: $100,000")
	require.Eventually(t, func() bool { return proc.count() == 2 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	q.Shutdown(context.Background())
}

func TestWanted(t *testing.T) {
	assert.True(t, wanted("/in/deal.PDF", nil))
	assert.True(t, wanted("/in/memo.docx", nil))
	assert.False(t, wanted("/in/.deal.pdf", nil))
	assert.False(t, wanted("/in/deal.pdf.part", nil))
	assert.False(t, wanted("/in/~$memo.docx", nil))
	assert.False(t, wanted("/in/model.xlsx", nil))
	assert.False(t, wanted("/in/deal.pdf", map[string]struct{}{"txt": {}}))
}
