package ocr

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/deal-analyzer/constants"
)

func (e *Extractor) extractPlainText(path string) (ExtractionResult, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return ExtractionResult{SourceType: constants.TXT}, fmt.Errorf("read text: %w", err)
	}
	var warns []string
	s := string(b)
	if !utf8.ValidString(s) {
		warns = append(warns, "invalid UTF-8 replaced")
		s = strings.ToValidUTF8(s, "�")
	}
	s = Normalize(s)
	return ExtractionResult{
		Text:       s,
		Pages:      1,
		SourceType: constants.TXT,
		Method:     "plain-text",
		Warnings:   warns,
		Confidence: 1,
	}, nil
}
