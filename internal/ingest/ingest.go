package ingest

import (
	"context"
	"time"

	"github.com/joseph-ayodele/deal-analyzer/constants"
)

// IngestionResult is the per-file ingest outcome.
type IngestionResult struct {
	SourcePath   string
	AnalysisID   string
	Deduplicated bool
	HashHex      string
	FileExt      string
	Status       constants.JobStatus
	IngestedAt   time.Time
	Err          string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Ingestor is the behavior the CLI and the inbox watcher depend on.
type Ingestor interface {
	// IngestPath analyses a single file.
	IngestPath(ctx context.Context, path, goal string, force bool) (IngestionResult, error)
	// IngestDirectory analyses all matching files under root.
	IngestDirectory(ctx context.Context, root, goal string, skipHidden, force bool) ([]IngestionResult, DirStats, error)
}
