package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/deal-analyzer/constants"
	"github.com/joseph-ayodele/deal-analyzer/internal/async"
	"github.com/joseph-ayodele/deal-analyzer/internal/common"
	"github.com/joseph-ayodele/deal-analyzer/internal/entity"
	"github.com/joseph-ayodele/deal-analyzer/internal/pipeline"
	"github.com/joseph-ayodele/deal-analyzer/internal/repository"
)

// AnalysisProcessor runs the analysis pipeline for one document.
type AnalysisProcessor interface {
	Process(ctx context.Context, u pipeline.Upload) (*entity.Analysis, error)
}

// FSIngestor reads deal documents from the local filesystem.
type FSIngestor struct {
	Repo        repository.AnalysisRepository
	Processor   AnalysisProcessor
	AllowedExts map[string]struct{} // lowercased sans '.'; nil -> constants.AllowedExtensions
	DefaultGoal string
	Logger      *slog.Logger
}

func NewFSIngestor(repo repository.AnalysisRepository, proc AnalysisProcessor, defaultGoal string, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{Repo: repo, Processor: proc, DefaultGoal: defaultGoal, Logger: logger}
}

var _ Ingestor = (*FSIngestor)(nil)

// IngestPath hashes path and analyses it unless a non-failed analysis of the same
// content already exists and force is false.
func (i *FSIngestor) IngestPath(ctx context.Context, path, goal string, force bool) (IngestionResult, error) {
	var out IngestionResult

	abs, err := filepath.Abs(path)
	if err != nil {
		i.Logger.Error("ingest.abs_path_failed", "path", path, "error", err)
		return out, err
	}
	out.SourcePath = abs

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !allowedIn(ext, i.AllowedExts) {
		i.Logger.Warn("ingest.unsupported_extension", "path", abs, "ext", ext)
		return out, fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, ext)
	}
	out.FileExt = ext

	sum, err := pipeline.HashFile(abs)
	if err != nil {
		i.Logger.Error("ingest.hash_failed", "path", abs, "error", err)
		return out, err
	}
	out.HashHex = sum
	out.IngestedAt = time.Now().UTC()

	if !force {
		prev, err := i.Repo.FindByHash(ctx, sum)
		switch {
		case err == nil && prev.Status != constants.JobStatusFailed:
			i.Logger.Info("ingest.deduplicated", "path", abs, "analysis_id", prev.ID, "status", prev.Status)
			out.AnalysisID = prev.ID.String()
			out.Status = prev.Status
			out.Deduplicated = true
			return out, nil
		case err != nil && !errors.Is(err, common.ErrNotFound):
			return out, err
		}
	}

	if strings.TrimSpace(goal) == "" {
		goal = i.DefaultGoal
	}
	a, err := i.Processor.Process(ctx, pipeline.Upload{Path: abs, Goal: goal, ContentHash: sum})
	if a != nil {
		out.AnalysisID = a.ID.String()
		out.Status = a.Status
	}
	if err != nil {
		return out, err
	}
	return out, nil
}

// IngestDirectory walks root, skips hidden if requested,
// and calls IngestPath for each file. Returns per-file results + aggregate stats.
func (i *FSIngestor) IngestDirectory(ctx context.Context, root, goal string, skipHidden, force bool) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, fmt.Errorf("%w: root path is required", common.ErrInvalidInput)
	}

	var results []IngestionResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		if !allowedIn(filepath.Ext(path), i.AllowedExts) || isTransient(path) {
			return nil
		}
		stats.Matched++

		r, err := i.IngestPath(ctx, path, goal, force)
		if err != nil {
			r.SourcePath = path
			r.Err = err.Error()
			results = append(results, r)
			stats.Failed++
			return nil
		}

		results = append(results, r)
		stats.Succeeded++
		if r.Deduplicated {
			stats.Deduplicated++
		}
		return nil
	})

	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}

// Handle adapts IngestPath to async.Handler for the inbox queue.
func (i *FSIngestor) Handle(ctx context.Context, job async.Job) error {
	r, err := i.IngestPath(ctx, job.Path, job.Goal, job.Force)
	if err != nil {
		return err
	}
	i.Logger.Info("ingest.done",
		"path", job.Path,
		"analysis_id", r.AnalysisID,
		"status", r.Status,
		"deduplicated", r.Deduplicated,
	)
	return nil
}
