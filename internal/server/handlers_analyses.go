package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/deal-analyzer/constants"
	"github.com/joseph-ayodele/deal-analyzer/internal/common"
	"github.com/joseph-ayodele/deal-analyzer/internal/entity"
	"github.com/joseph-ayodele/deal-analyzer/internal/export"
	"github.com/joseph-ayodele/deal-analyzer/internal/pipeline"
	"github.com/joseph-ayodele/deal-analyzer/internal/repository"
)

const (
	multipartMemory = 8 << 20
	maxFileNameLen  = 255
	maxGoalLen      = 2000
)

type listAnalysesResponse struct {
	Analyses []*entity.Analysis `json:"analyses"`
	Count    int                `json:"count"`
}

// handleCreateAnalysis accepts a multipart upload (file, goal) and runs the pipeline synchronously.
func (s *HTTPServer) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %w", common.ErrInvalidInput, err), nil)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	src, hdr, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: file field is required", common.ErrInvalidInput), nil)
		return
	}
	defer src.Close()

	name := filepath.Base(hdr.Filename)
	goal := r.FormValue("goal")
	if err := common.NewValidator().
		Field("file_name", name, common.Required, common.MaxLength(maxFileNameLen)).
		Field("goal", goal, common.MaxLength(maxGoalLen)).
		Error(); err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	ext := filepath.Ext(name)
	if constants.MapExtToFormat(ext) == "" {
		s.writeError(w, r, fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, ext), nil)
		return
	}

	path, err := spool(src, ext)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: spool upload: %v", common.ErrInternal, err), nil)
		return
	}
	defer os.Remove(path)

	a, err := s.proc.Process(r.Context(), pipeline.Upload{
		Path:     path,
		FileName: name,
		Goal:     goal,
	})
	if a != nil {
		s.inst.ObserveAnalysis(string(a.Status))
		s.inst.ObserveMetrics(a.Metrics)
	}
	if err != nil {
		s.writeError(w, r, err, a)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// spool copies an upload to a temp file that keeps the original extension,
// which the text extractor dispatches on.
func spool(src io.Reader, ext string) (string, error) {
	f, err := os.CreateTemp("", "deal-upload-*"+ext)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func (s *HTTPServer) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	list, err := s.repo.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	if list == nil {
		list = []*entity.Analysis{}
	}
	writeJSON(w, http.StatusOK, listAnalysesResponse{Analyses: list, Count: len(list)})
}

func (s *HTTPServer) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := analysisID(r)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	a, err := s.repo.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *HTTPServer) handleExport(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := analysisID(r)
		if err != nil {
			s.writeError(w, r, err, nil)
			return
		}
		f, err := s.exports.Export(r.Context(), id, format)
		if err != nil {
			s.writeError(w, r, err, nil)
			return
		}
		disposition := "attachment"
		if format == export.FormatHTML {
			disposition = "inline"
		}
		writeFile(w, f, disposition)
	}
}

func (s *HTTPServer) handleExportList(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	f, err := s.exports.ExportList(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeFile(w, f, "attachment")
}

func writeFile(w http.ResponseWriter, f export.File, disposition string) {
	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, f.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(f.Body)
}

func analysisID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: analysis id %q is not a uuid", common.ErrInvalidInput, raw)
	}
	return id, nil
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return repository.DefaultListLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", common.ErrInvalidInput)
	}
	return min(n, repository.MaxListLimit), nil
}
