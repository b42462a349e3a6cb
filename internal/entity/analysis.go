package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/deal-analyzer/constants"
	"github.com/joseph-ayodele/deal-analyzer/internal/metrics"
)

// Analysis represents one processed deal document for data transfer between layers.
type Analysis struct {
	ID             uuid.UUID           `json:"id"`
	FileName       string              `json:"file_name"`
	FileExt        string              `json:"file_ext"`
	ContentHash    string              `json:"content_hash,omitempty"`
	Goal           string              `json:"goal"`
	Status         constants.JobStatus `json:"status"`
	TextMethod     *string             `json:"text_method,omitempty"`
	TextPreview    *string             `json:"text_preview,omitempty"`
	TextConfidence *float32            `json:"text_confidence,omitempty"`
	Metrics        metrics.MetricSet   `json:"metrics"`
	Narrative      *string             `json:"narrative,omitempty"`
	Model          *string             `json:"model,omitempty"`
	ErrorMessage   *string             `json:"error_message,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	FinishedAt     *time.Time          `json:"finished_at,omitempty"`
}

// NarrativeText returns the narrative or "" when none was produced.
func (a *Analysis) NarrativeText() string {
	if a == nil || a.Narrative == nil {
		return ""
	}
	return *a.Narrative
}

// Elapsed is the wall time from creation to the last stage, or zero while running.
func (a *Analysis) Elapsed() time.Duration {
	if a == nil || a.FinishedAt == nil {
		return 0
	}
	return a.FinishedAt.Sub(a.CreatedAt)
}
