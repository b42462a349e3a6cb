package common

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID   contextKey = "request_id"
	ContextKeyAnalysisID  contextKey = "analysis_id"
	ContextKeyContentHash contextKey = "content_hash"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// EnsureRequestID returns ctx carrying a request ID, minting one if absent.
func EnsureRequestID(ctx context.Context) (context.Context, string) {
	if id := RequestIDFromContext(ctx); id != "" {
		return ctx, id
	}
	id := uuid.New().String()
	return WithRequestID(ctx, id), id
}

// WithAnalysisID adds an analysis ID to the context
func WithAnalysisID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ContextKeyAnalysisID, id)
}

// AnalysisIDFromContext extracts the analysis ID from context
func AnalysisIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ContextKeyAnalysisID).(uuid.UUID)
	return id, ok
}

// WithContentHash records the hex SHA-256 of the document being processed.
func WithContentHash(ctx context.Context, hashHex string) context.Context {
	return context.WithValue(ctx, ContextKeyContentHash, hashHex)
}

func ContentHashFromContext(ctx context.Context) (string, bool) {
	h, ok := ctx.Value(ContextKeyContentHash).(string)
	return h, ok && h != ""
}

// Logger returns base annotated with whatever request-scoped IDs ctx carries.
func Logger(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	if id := RequestIDFromContext(ctx); id != "" {
		base = base.With("req_id", id)
	}
	if id, ok := AnalysisIDFromContext(ctx); ok {
		base = base.With("analysis_id", id.String())
	}
	return base
}
