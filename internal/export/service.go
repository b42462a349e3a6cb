package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/deal-analyzer/internal/common"
	"github.com/joseph-ayodele/deal-analyzer/internal/repository"
)

// Formats accepted by Service.Export.
const (
	FormatTXT  = "txt"
	FormatHTML = "html"
	FormatXLSX = "xlsx"
)

// File is a rendered export ready to be written or served.
type File struct {
	Name        string
	ContentType string
	Body        []byte
}

// Service is a tiny façade over the analysis repository that renders exports.
type Service struct {
	repo   repository.AnalysisRepository
	logger *slog.Logger
}

func NewService(repo repository.AnalysisRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Export renders one analysis in the requested format.
func (s *Service) Export(ctx context.Context, id uuid.UUID, format string) (File, error) {
	start := time.Now()
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return File{}, err
	}

	var f File
	switch format {
	case FormatTXT:
		f = File{Name: "deal_analysis.txt", ContentType: "text/plain; charset=utf-8", Body: AnalysisTXT(a)}
	case FormatHTML:
		body, err := AnalysisHTML(a)
		if err != nil {
			return File{}, err
		}
		f = File{Name: "deal_analysis.html", ContentType: "text/html; charset=utf-8", Body: body}
	case FormatXLSX:
		body, err := AnalysisXLSX(a)
		if err != nil {
			return File{}, err
		}
		f = File{Name: "deal_analysis_" + shortID(a.ID) + ".xlsx", ContentType: XLSXContentType, Body: body}
	default:
		return File{}, fmt.Errorf("%w: unsupported export format %q", common.ErrInvalidInput, format)
	}

	s.logger.Info("export.ok",
		"analysis_id", id.String(),
		"format", format,
		"bytes", len(f.Body),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return f, nil
}

// ExportList renders the newest limit analyses as one workbook.
func (s *Service) ExportList(ctx context.Context, limit int) (File, error) {
	start := time.Now()
	list, err := s.repo.List(ctx, limit)
	if err != nil {
		return File{}, fmt.Errorf("query analyses: %w", err)
	}
	body, err := AnalysesXLSX(list)
	if err != nil {
		return File{}, err
	}
	s.logger.Info("export.xlsx.ok",
		"rows", len(list),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return File{Name: "deal_analyses.xlsx", ContentType: XLSXContentType, Body: body}, nil
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
