package extract

import (
	"context"
	"time"
)

// TextExtractor is stage 1: document file -> text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // "PDF" | "IMAGE" | "DOCX" | "TXT"
	Method     string // "pdf-text" | "pdf-native" | "pdf-ocr" | "image-ocr" | "docx-xml" | "plain-text"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

// Preview returns at most n runes of the extracted text.
func (r TextExtractionResult) Preview(n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(r.Text)
	if len(runes) <= n {
		return r.Text
	}
	return string(runes[:n])
}
