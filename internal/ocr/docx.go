package ocr

import (
	"archive/zip"
	"fmt"
	"os"

	"code.sajari.com/docconv/v2"

	"github.com/joseph-ayodele/deal-analyzer/constants"
)

// ConvertDocx panics without [Content_Types].xml and yields no body without the main part.
var docxRequiredParts = []string{"[Content_Types].xml", "word/document.xml"}

// extractDOCX flattens a .docx archive (headers, body and footers) to text.
func (e *Extractor) extractDOCX(path string) (ExtractionResult, error) {
	res := ExtractionResult{SourceType: constants.DOCX}
	if err := checkDocxParts(path); err != nil {
		return res, err
	}

	f, err := os.Open(path)
	if err != nil {
		return res, fmt.Errorf("open docx: %w", err)
	}
	defer func() { _ = f.Close() }()

	raw, meta, err := docconv.ConvertDocx(f)
	if err != nil {
		return res, fmt.Errorf("docx: %w", err)
	}
	if title := meta["title"]; title != "" {
		e.logger.Debug("ocr.docx.meta", "path", path, "title", title)
	}

	res.Text = Normalize(raw)
	res.Pages = 1
	res.Method = "docx-xml"
	res.Confidence = heuristicConfidence(res.Text)
	return res, nil
}

func checkDocxParts(path string) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("open docx: %w", err)
	}
	defer func() { _ = zr.Close() }()

	have := make(map[string]bool, len(zr.File))
	for _, f := range zr.File {
		have[f.Name] = true
	}
	for _, part := range docxRequiredParts {
		if !have[part] {
			return fmt.Errorf("docx: missing %s", part)
		}
	}
	return nil
}
