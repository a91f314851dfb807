package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// NewRunID creates a new unique run ID using UUID v4
func NewRunID() string {
	return uuid.New().String()
}

// EnsureRunID returns ctx carrying a run ID, generating one if needed, along
// with that ID.
func EnsureRunID(ctx context.Context) (context.Context, string) {
	if id := GetRunID(ctx); id != "" {
		return ctx, id
	}
	id := NewRunID()
	return WithRunID(ctx, id), id
}

// WithComponent creates a logger with a component field
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = GetLogger()
	}
	return logger.With("component", component)
}
