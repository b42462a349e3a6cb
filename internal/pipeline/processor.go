// Package pipeline runs a deal document through text extraction, metrics
// extraction and narrative generation, persisting each stage.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/deal-analyzer/constants"
	"github.com/joseph-ayodele/deal-analyzer/internal/common"
	"github.com/joseph-ayodele/deal-analyzer/internal/entity"
	"github.com/joseph-ayodele/deal-analyzer/internal/llm"
	"github.com/joseph-ayodele/deal-analyzer/internal/repository"
)

// Upload is one document to analyse.
type Upload struct {
	Path        string // local file to read
	FileName    string // display name; defaults to base(Path)
	Goal        string // empty -> metrics-only run
	ContentHash string // hex SHA-256; computed from Path when empty
}

// Processor coordinates text extraction, then metrics, then the narrative.
type Processor struct {
	Logger    *slog.Logger
	Repo      repository.AnalysisRepository
	Text      *TextStage
	Metrics   *MetricsStage
	Narrative *NarrativeStage // nil -> metrics-only
}

func NewProcessor(logger *slog.Logger, repo repository.AnalysisRepository, text *TextStage, m *MetricsStage, narrative *NarrativeStage) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Repo: repo, Text: text, Metrics: m, Narrative: narrative}
}

// Process runs every stage for u and returns the stored analysis.
//
// A text extraction failure ends the run as FAILED and is returned as an error
// alongside the record. A narrative failure is not an error: the record comes
// back as NARRATIVE_FAILED with its metrics intact.
func (p *Processor) Process(ctx context.Context, u Upload) (*entity.Analysis, error) {
	start := time.Now()
	if strings.TrimSpace(u.Path) == "" {
		return nil, fmt.Errorf("%w: path is required", common.ErrInvalidInput)
	}
	if u.FileName == "" {
		u.FileName = filepath.Base(u.Path)
	}
	ext := constants.NormalizeExt(filepath.Ext(u.FileName))
	if constants.MapExtToFormat(ext) == "" {
		return nil, fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, ext)
	}
	if u.ContentHash == "" {
		h, err := HashFile(u.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
		}
		u.ContentHash = h
	}

	a := &entity.Analysis{
		FileName:    u.FileName,
		FileExt:     ext,
		ContentHash: u.ContentHash,
		Goal:        strings.TrimSpace(u.Goal),
		Status:      constants.JobStatusRunning,
	}
	if err := p.Repo.Create(ctx, a); err != nil {
		return nil, err
	}

	ctx, _ = common.EnsureRequestID(ctx)
	ctx = common.WithAnalysisID(ctx, a.ID)
	ctx = common.WithContentHash(ctx, u.ContentHash)
	log := common.Logger(ctx, p.Logger)

	// 1) text
	res, err := p.Text.Run(ctx, a.ID, u.Path)
	if err != nil {
		log.Error("pipeline.text.failed", "file", u.FileName, "error", err)
		return p.reload(ctx, a.ID, err)
	}
	log.Info("pipeline.text.ok",
		"file", u.FileName,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"confidence", res.Confidence,
	)

	// 2) metrics
	ms, err := p.Metrics.Run(ctx, a.ID, res.Text)
	if err != nil {
		log.Error("pipeline.metrics.failed", "error", err)
		return p.reload(ctx, a.ID, err)
	}
	log.Info("pipeline.metrics.ok", "metrics", ms.Len(), "labels", ms.Labels())

	// 3) narrative
	if a.Goal == "" || p.Narrative == nil || p.Narrative.Generator == nil {
		log.Info("pipeline.narrative.skipped", "has_goal", a.Goal != "", "elapsed_ms", time.Since(start).Milliseconds())
		return p.reload(ctx, a.ID, nil)
	}
	n, err := p.Narrative.Run(ctx, a.ID, llm.AnalysisRequest{Goal: a.Goal, DocumentText: res.Text, Metrics: ms})
	if err != nil {
		log.Warn("pipeline.narrative.failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		if errors.Is(err, common.ErrDatabase) {
			return p.reload(ctx, a.ID, err)
		}
		return p.reload(ctx, a.ID, nil)
	}
	log.Info("pipeline.narrative.ok",
		"provider", n.Provider,
		"model", n.Model,
		"chars", len(n.Text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return p.reload(ctx, a.ID, nil)
}

// reload returns the stored record together with cause.
func (p *Processor) reload(ctx context.Context, id uuid.UUID, cause error) (*entity.Analysis, error) {
	a, err := p.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Join(cause, err)
	}
	return a, cause
}

// HashFile returns the hex SHA-256 of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
