package extract

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/deal-analyzer/internal/ocr"
)

// OCRAdapter exposes *ocr.Extractor as a TextExtractor.
type OCRAdapter struct {
	e      *ocr.Extractor
	logger *slog.Logger
}

func NewOCRAdapter(e *ocr.Extractor, logger *slog.Logger) *OCRAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRAdapter{e: e, logger: logger}
}

func (a *OCRAdapter) Extract(ctx context.Context, path string) (TextExtractionResult, error) {
	r, err := a.e.Extract(ctx, path)
	if err == nil && r.Confidence > 0 && r.Confidence < ocr.ImageConfidenceThreshold {
		a.logger.Warn("extract.low_confidence", "path", path, "method", r.Method, "confidence", r.Confidence)
	}
	return TextExtractionResult{
		Text:       r.Text,
		Pages:      r.Pages,
		SourceType: r.SourceType,
		Method:     r.Method,
		Language:   r.Language,
		Duration:   r.Duration,
		Warnings:   r.Warnings,
		Confidence: r.Confidence,
	}, err
}
