package async

import (
	"context"
	"errors"
	"time"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one document waiting to be analysed.
type Job struct {
	Path        string
	Goal        string
	Force       bool // re-analyse even if the same content was analysed before
	SubmittedAt time.Time
	TraceID     string
}

// Handler processes a single job.
type Handler func(ctx context.Context, job Job) error

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
