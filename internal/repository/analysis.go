package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/deal-analyzer/constants"
	"github.com/joseph-ayodele/deal-analyzer/internal/common"
	"github.com/joseph-ayodele/deal-analyzer/internal/entity"
	"github.com/joseph-ayodele/deal-analyzer/internal/metrics"
)

const (
	// DefaultListLimit applies when the caller passes a non-positive limit.
	DefaultListLimit = 50
	// MaxListLimit is the most rows a single List call returns.
	MaxListLimit = 500
)

type AnalysisRepository interface {
	Create(ctx context.Context, a *entity.Analysis) error
	FinishText(ctx context.Context, id uuid.UUID, method, preview string, confidence float32) error
	FinishMetrics(ctx context.Context, id uuid.UUID, ms metrics.MetricSet) error
	FinishNarrative(ctx context.Context, id uuid.UUID, narrative, model string) error
	FinishFailure(ctx context.Context, id uuid.UUID, status constants.JobStatus, message string) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Analysis, error)
	List(ctx context.Context, limit int) ([]*entity.Analysis, error)
	FindByHash(ctx context.Context, contentHash string) (*entity.Analysis, error)
}

type analysisRepo struct {
	db  *DB
	log *slog.Logger
}

func NewAnalysisRepository(db *DB, log *slog.Logger) AnalysisRepository {
	if log == nil {
		log = slog.Default()
	}
	return &analysisRepo{db: db, log: log}
}

const analysisColumns = `id, file_name, file_ext, content_hash, goal, status, text_method, text_preview,
	text_confidence, metrics_json, narrative, model, error_message, created_at, finished_at`

func (r *analysisRepo) Create(ctx context.Context, a *entity.Analysis) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = constants.JobStatusRunning
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.SQL.ExecContext(ctx, r.db.rebind(`
		INSERT INTO analyses (id, file_name, file_ext, content_hash, goal, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		a.ID.String(), a.FileName, a.FileExt, a.ContentHash, a.Goal, string(a.Status), a.CreatedAt,
	)
	if err != nil {
		r.log.Error("analysis create failed", "file_name", a.FileName, "err", err)
		return fmt.Errorf("%w: create analysis: %v", common.ErrDatabase, err)
	}
	r.log.Info("analysis created", "analysis_id", a.ID, "file_name", a.FileName, "status", a.Status)
	return nil
}

func (r *analysisRepo) FinishText(ctx context.Context, id uuid.UUID, method, preview string, confidence float32) error {
	err := r.update(ctx, id, `UPDATE analyses SET status = ?, text_method = ?, text_preview = ?, text_confidence = ? WHERE id = ?`,
		string(constants.JobStatusTextOK), method, preview, confidence, id.String())
	if err != nil {
		r.log.Error("analysis finish(TEXT_OK) failed", "analysis_id", id, "err", err)
		return err
	}
	r.log.Info("analysis text stored", "analysis_id", id, "method", method)
	return nil
}

func (r *analysisRepo) FinishMetrics(ctx context.Context, id uuid.UUID, ms metrics.MetricSet) error {
	raw, err := ms.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}
	err = r.update(ctx, id, `UPDATE analyses SET status = ?, metrics_json = ?, finished_at = ? WHERE id = ?`,
		string(constants.JobStatusMetricsOK), string(raw), time.Now().UTC(), id.String())
	if err != nil {
		r.log.Error("analysis finish(METRICS_OK) failed", "analysis_id", id, "err", err)
		return err
	}
	r.log.Info("analysis metrics stored", "analysis_id", id, "metrics", ms.Len())
	return nil
}

func (r *analysisRepo) FinishNarrative(ctx context.Context, id uuid.UUID, narrative, model string) error {
	err := r.update(ctx, id, `UPDATE analyses SET status = ?, narrative = ?, model = ?, finished_at = ? WHERE id = ?`,
		string(constants.JobStatusNarrativeOK), narrative, model, time.Now().UTC(), id.String())
	if err != nil {
		r.log.Error("analysis finish(NARRATIVE_OK) failed", "analysis_id", id, "err", err)
		return err
	}
	r.log.Info("analysis finished (NARRATIVE_OK)", "analysis_id", id, "model", model)
	return nil
}

func (r *analysisRepo) FinishFailure(ctx context.Context, id uuid.UUID, status constants.JobStatus, message string) error {
	if status == "" {
		status = constants.JobStatusFailed
	}
	err := r.update(ctx, id, `UPDATE analyses SET status = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		string(status), message, time.Now().UTC(), id.String())
	if err != nil {
		r.log.Error("analysis finish(FAILED) failed", "analysis_id", id, "err", err)
		return err
	}
	r.log.Warn("analysis finished with failure", "analysis_id", id, "status", status, "error", message)
	return nil
}

func (r *analysisRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Analysis, error) {
	row := r.db.SQL.QueryRowContext(ctx, r.db.rebind(`SELECT `+analysisColumns+` FROM analyses WHERE id = ?`), id.String())
	a, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: analysis %s", common.ErrNotFound, id)
	}
	if err != nil {
		r.log.Error("analysis get failed", "analysis_id", id, "err", err)
		return nil, fmt.Errorf("%w: get analysis: %v", common.ErrDatabase, err)
	}
	return a, nil
}

// List returns the newest analyses first.
func (r *analysisRepo) List(ctx context.Context, limit int) ([]*entity.Analysis, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	rows, err := r.db.SQL.QueryContext(ctx, r.db.rebind(`SELECT `+analysisColumns+` FROM analyses ORDER BY created_at DESC, id LIMIT ?`), limit)
	if err != nil {
		r.log.Error("analysis list failed", "err", err)
		return nil, fmt.Errorf("%w: list analyses: %v", common.ErrDatabase, err)
	}
	defer func() { _ = rows.Close() }()

	var out []*entity.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan analysis: %v", common.ErrDatabase, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list analyses: %v", common.ErrDatabase, err)
	}
	return out, nil
}

// FindByHash returns the newest analysis of a document with the given SHA-256.
func (r *analysisRepo) FindByHash(ctx context.Context, contentHash string) (*entity.Analysis, error) {
	contentHash = strings.TrimSpace(contentHash)
	if contentHash == "" {
		return nil, fmt.Errorf("%w: content hash is required", common.ErrInvalidInput)
	}
	row := r.db.SQL.QueryRowContext(ctx, r.db.rebind(`SELECT `+analysisColumns+` FROM analyses WHERE content_hash = ? ORDER BY created_at DESC LIMIT 1`), contentHash)
	a, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: analysis with hash %s", common.ErrNotFound, contentHash)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find analysis: %v", common.ErrDatabase, err)
	}
	return a, nil
}

func (r *analysisRepo) update(ctx context.Context, id uuid.UUID, query string, args ...any) error {
	res, err := r.db.SQL.ExecContext(ctx, r.db.rebind(query), args...)
	if err != nil {
		return fmt.Errorf("%w: update analysis: %v", common.ErrDatabase, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: update analysis: %v", common.ErrDatabase, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: analysis %s", common.ErrNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(s rowScanner) (*entity.Analysis, error) {
	var (
		a           entity.Analysis
		id, status  string
		metricsJSON *string
		conf        *float64
	)
	err := s.Scan(&id, &a.FileName, &a.FileExt, &a.ContentHash, &a.Goal, &status,
		&a.TextMethod, &a.TextPreview, &conf, &metricsJSON, &a.Narrative, &a.Model,
		&a.ErrorMessage, &a.CreatedAt, &a.FinishedAt)
	if err != nil {
		return nil, err
	}
	if a.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("bad analysis id %q: %w", id, err)
	}
	a.Status = constants.JobStatus(status)
	if conf != nil {
		c := float32(*conf)
		a.TextConfidence = &c
	}
	if metricsJSON != nil && *metricsJSON != "" {
		if err := a.Metrics.UnmarshalJSON([]byte(*metricsJSON)); err != nil {
			return nil, fmt.Errorf("decode metrics: %w", err)
		}
	}
	return &a, nil
}
