// Package app wires configuration into the components both binaries share.
package app

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/deal-analyzer/internal/common"
	"github.com/joseph-ayodele/deal-analyzer/internal/export"
	"github.com/joseph-ayodele/deal-analyzer/internal/extract"
	"github.com/joseph-ayodele/deal-analyzer/internal/ingest"
	"github.com/joseph-ayodele/deal-analyzer/internal/llm"
	"github.com/joseph-ayodele/deal-analyzer/internal/llm/providers"
	"github.com/joseph-ayodele/deal-analyzer/internal/ocr"
	"github.com/joseph-ayodele/deal-analyzer/internal/pipeline"
	"github.com/joseph-ayodele/deal-analyzer/internal/repository"
	"github.com/joseph-ayodele/deal-analyzer/internal/server"
)

// Options tweak Init for a particular binary.
type Options struct {
	InMemory bool // use a throwaway SQLite database
	// MetricsOnly skips building a narrative generator even when a key is configured.
	MetricsOnly bool
}

// App holds the wired components.
type App struct {
	Config    *common.Config
	DB        *repository.DB
	Repo      repository.AnalysisRepository
	Text      extract.TextExtractor
	Generator llm.NarrativeGenerator // nil when no model is configured
	Processor *pipeline.Processor
	Exports   *export.Service
	Ingestor  *ingest.FSIngestor

	logger *slog.Logger
}

// Init opens the database and builds the pipeline. A missing model API key is
// not fatal: the pipeline then runs metrics-only.
func Init(ctx context.Context, cfg *common.Config, opts Options, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dbCfg := cfg.Database
	if opts.InMemory {
		dbCfg.Driver = repository.DriverSQLite
		dbCfg.DSN = ":memory:"
	}
	db, err := server.ConnectDB(ctx, dbCfg, logger)
	if err != nil {
		return nil, common.WrapError(err, "open database")
	}
	repo := repository.NewAnalysisRepository(db, logger)

	tx := NewTextExtractor(cfg.OCR, logger)

	var gen llm.NarrativeGenerator
	switch {
	case opts.MetricsOnly:
	case cfg.LLM.APIKey == "":
		logger.Warn("llm.not_configured", "provider", cfg.LLM.Provider, "detail", "narratives will be skipped")
	default:
		gen, err = providers.New(ctx, cfg.LLM, logger)
		if err != nil {
			server.CloseDB(db, logger)
			return nil, common.WrapError(err, "build narrative generator")
		}
		logger.Info("llm.configured", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)
	}

	var narrative *pipeline.NarrativeStage
	if gen != nil {
		narrative = pipeline.NewNarrativeStage(repo, gen, logger)
	}
	proc := pipeline.NewProcessor(logger, repo,
		pipeline.NewTextStage(repo, tx, cfg.LLM.PromptTextLimit, logger),
		pipeline.NewMetricsStage(repo, logger),
		narrative,
	)

	return &App{
		Config:    cfg,
		DB:        db,
		Repo:      repo,
		Text:      tx,
		Generator: gen,
		Processor: proc,
		Exports:   export.NewService(repo, logger),
		Ingestor:  ingest.NewFSIngestor(repo, proc, cfg.Ingest.DefaultGoal, logger),
		logger:    logger,
	}, nil
}

// NewTextExtractor builds the OCR-backed extractor without touching the database.
func NewTextExtractor(cfg common.OCRConfig, logger *slog.Logger) extract.TextExtractor {
	x := ocr.NewExtractor(ocr.Config{
		HeicConverter:       cfg.HeicConverter,
		TessdataDir:         cfg.TessdataDir,
		TesseractLang:       cfg.TesseractLang,
		ArtifactCacheDir:    cfg.ArtifactCacheDir,
		EnableTSVConfidence: cfg.EnableTSVConfidence,
	}, logger)
	return extract.NewOCRAdapter(x, logger)
}

// Close releases the database.
func (a *App) Close() {
	server.CloseDB(a.DB, a.logger)
}
