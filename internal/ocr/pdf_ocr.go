package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/deal-analyzer/constants"
)

// extractPDF prefers the embedded text layer (pdftotext, then the in-process
// reader) and only rasterises + OCRs when that layer is too thin to be useful.
func (e *Extractor) extractPDF(ctx context.Context, path string) (ExtractionResult, error) {
	res := ExtractionResult{SourceType: constants.PDF, Method: "pdf-text"}

	text, pages, warns, err := e.pdfToText(ctx, path)
	res.Warnings = append(res.Warnings, warns...)
	if err != nil {
		e.logger.Warn("ocr.pdftotext.failed", "path", path, "error", err)
		res.Warnings = append(res.Warnings, "pdftotext: "+err.Error())
		text, pages, err = readPDFNative(path)
		res.Method = "pdf-native"
		if err != nil {
			e.logger.Warn("ocr.pdf_native.failed", "path", path, "error", err)
			res.Warnings = append(res.Warnings, "pdf reader: "+err.Error())
			text = ""
		}
	}

	if visibleChars(text) < e.cfg.MinPDFTextChars {
		ocrText, ocrPages, w, oerr := e.pdfToOCR(ctx, path)
		res.Warnings = append(res.Warnings, w...)
		switch {
		case oerr == nil && visibleChars(ocrText) > visibleChars(text):
			text, pages, res.Method = ocrText, ocrPages, "pdf-ocr"
			res.Language = e.cfg.TesseractLang
		case oerr != nil && visibleChars(text) == 0:
			return res, fmt.Errorf("pdf has no text layer and OCR failed: %w", oerr)
		case oerr != nil:
			res.Warnings = append(res.Warnings, "pdf ocr: "+oerr.Error())
		}
	}

	res.Text = Normalize(text)
	res.Pages = pages
	res.Confidence = heuristicConfidence(res.Text)
	return res, nil
}

func (e *Extractor) pdfToText(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}
	text = string(out)
	// A form-feed \f is used as page separator by default
	pages = 1 + strings.Count(strings.TrimRight(text, "\f"), "\f")
	return text, pages, nil, nil
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	tmpDir, err := os.MkdirTemp("", "da-pp-*")
	if err != nil {
		return "", 0, nil, err
	}
	defer func(path string) {
		if err := os.RemoveAll(path); err != nil {
			e.logger.Warn("ocr.tmpdir_cleanup_failed", "dir", path, "error", err)
		}
	}(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", strconv.Itoa(e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", 0, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}

	var b strings.Builder
	var warns []string
	for _, img := range matches {
		txt, w, err := e.tesseractOCR(ctx, img)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n") // keep a clear page break marker
		}
		b.WriteString(txt)
		warns = append(warns, w...)
	}
	return b.String(), len(matches), warns, nil
}

// readPDFNative reads the text layer in-process; used when poppler is not installed.
func readPDFNative(path string) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer func() { _ = f.Close() }()

	rd, err := r.GetPlainText()
	if err != nil {
		return "", 0, err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rd); err != nil {
		return "", 0, err
	}
	return buf.String(), r.NumPage(), nil
}

func visibleChars(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
