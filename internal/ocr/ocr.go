// Package ocr turns deal documents (PDF, scans, photos, Word files, plain text) into text.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/deal-analyzer/constants"
	"github.com/joseph-ayodele/deal-analyzer/internal/common"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit

	// MinPDFTextChars is the non-space character count below which a PDF text
	// layer is treated as missing and the pages are OCR'd instead. Default 32.
	MinPDFTextChars int

	TessdataDir         string
	HeicConverter       string
	EnableTSVConfidence bool

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default

	ArtifactCacheDir string
}

type ExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // constants.PDF | IMAGE | DOCX | TXT
	Method     string // "pdf-text" | "pdf-native" | "pdf-ocr" | "image-ocr" | "docx-xml" | "plain-text"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return NewExtractorWithRunner(cfg, execRunner{logger: logger}, logger)
}

// NewExtractorWithRunner is NewExtractor with an injected command runner.
func NewExtractorWithRunner(cfg Config, runner Runner, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MinPDFTextChars <= 0 {
		cfg.MinPDFTextChars = 32
	}
	if cfg.ArtifactCacheDir == "" {
		cfg.ArtifactCacheDir = "./tmp"
	}
	return &Extractor{cfg: cfg, runner: runner, logger: logger}
}

// Extract picks a strategy based on file extension.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("ocr.extract.start", "path", path, "ext", ext)

	var (
		res ExtractionResult
		err error
	)
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err = e.extractPDF(ctx, path)
	case constants.IMAGE:
		res, err = e.extractImageFile(ctx, path, ext)
	case constants.DOCX:
		res, err = e.extractDOCX(path)
	case constants.TXT:
		res, err = e.extractPlainText(path)
	default:
		e.logger.Error("ocr.extract.unsupported", "extension", ext)
		return ExtractionResult{}, fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, ext)
	}
	res.Duration = time.Since(start)
	if err != nil {
		return res, fmt.Errorf("%w: %v", common.ErrExtraction, err)
	}
	e.logger.Info("ocr.extract.ok",
		"path", filepath.Base(path),
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"confidence", res.Confidence,
		"warnings", len(res.Warnings),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (e *Extractor) extractImageFile(ctx context.Context, path, ext string) (ExtractionResult, error) {
	var warns []string
	if constants.IsHEICExt(ext) {
		hashHex, _ := common.ContentHashFromContext(ctx)
		out, w, cleanup, err := convertHEICtoPNG(ctx, e.runner, e.logger, e.cfg.HeicConverter, path, e.cfg.ArtifactCacheDir, hashHex)
		warns = append(warns, w...)
		if cleanup != nil {
			defer cleanup()
		}
		if err != nil {
			e.logger.Error("ocr.heic.failed", "path", path, "error", err)
			return ExtractionResult{SourceType: constants.IMAGE, Warnings: warns}, err
		}
		path = out
	}
	res, err := e.extractImage(ctx, path)
	res.Warnings = append(res.Warnings, warns...)
	return res, err
}
