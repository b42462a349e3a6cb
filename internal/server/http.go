package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/joseph-ayodele/deal-analyzer/internal/common"
	"github.com/joseph-ayodele/deal-analyzer/internal/entity"
	"github.com/joseph-ayodele/deal-analyzer/internal/export"
	"github.com/joseph-ayodele/deal-analyzer/internal/pipeline"
	"github.com/joseph-ayodele/deal-analyzer/internal/repository"
)

// AnalysisProcessor runs the full pipeline for one uploaded document.
type AnalysisProcessor interface {
	Process(ctx context.Context, u pipeline.Upload) (*entity.Analysis, error)
}

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context, timeout time.Duration, logger *slog.Logger) error
}

// HTTPConfig wires the HTTP API to its collaborators.
type HTTPConfig struct {
	Processor      AnalysisProcessor
	Repo           repository.AnalysisRepository
	Exports        *export.Service
	Health         HealthChecker
	Metrics        *Instrumentation
	Logger         *slog.Logger
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

// HTTPServer serves the deal-analyzer REST API.
type HTTPServer struct {
	proc      AnalysisProcessor
	repo      repository.AnalysisRepository
	exports   *export.Service
	health    HealthChecker
	inst      *Instrumentation
	logger    *slog.Logger
	maxUpload int64
	timeout   time.Duration
}

func NewHTTPServer(cfg HTTPConfig) *HTTPServer {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 25 << 20
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 3 * time.Minute
	}
	return &HTTPServer{
		proc:      cfg.Processor,
		repo:      cfg.Repo,
		exports:   cfg.Exports,
		health:    cfg.Health,
		inst:      cfg.Metrics,
		logger:    cfg.Logger,
		maxUpload: cfg.MaxUploadBytes,
		timeout:   cfg.RequestTimeout,
	}
}

// Routes builds the chi router.
func (s *HTTPServer) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestContext)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	if s.inst != nil {
		r.Use(s.inst.Middleware)
	}

	r.Get("/healthz", s.handleHealth)
	if s.inst != nil {
		r.Method(http.MethodGet, "/metrics", s.inst.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(s.timeout))
		r.Post("/metrics", s.handleExtractMetrics)

		r.Route("/analyses", func(r chi.Router) {
			r.Post("/", s.handleCreateAnalysis)
			r.Get("/", s.handleListAnalyses)
			r.Get("/export.xlsx", s.handleExportList)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetAnalysis)
				r.Get("/download", s.handleExport(export.FormatTXT))
				r.Get("/export.xlsx", s.handleExport(export.FormatXLSX))
				r.Get("/report.html", s.handleExport(export.FormatHTML))
			})
		})
	})
	return r
}

// requestContext copies chi's request ID into the context key the rest of the code reads.
func (s *HTTPServer) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chimiddleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(common.WithRequestID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		common.Logger(r.Context(), s.logger).Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"remote", r.RemoteAddr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.HealthCheck(r.Context(), 2*time.Second, s.logger); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorBody struct {
	Error     string           `json:"error"`
	RequestID string           `json:"request_id,omitempty"`
	Analysis  *entity.Analysis `json:"analysis,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto an HTTP status. a, when set, is returned alongside
// so callers can see how far the pipeline got.
func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error, a *entity.Analysis) {
	code := statusFor(err)
	log := common.Logger(r.Context(), s.logger)
	if code >= http.StatusInternalServerError {
		log.Error("http.error", "path", r.URL.Path, "status", code, "error", err)
	} else {
		log.Warn("http.error", "path", r.URL.Path, "status", code, "error", err)
	}
	writeJSON(w, code, errorBody{
		Error:     err.Error(),
		RequestID: common.RequestIDFromContext(r.Context()),
		Analysis:  a,
	})
}

func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, common.ErrExtraction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrNarrative):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
