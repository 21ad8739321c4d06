package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/receipt_budget_app/internal/apperrors"
	"github.com/SscSPs/receipt_budget_app/internal/middleware"
)

// BaseService provides common functionality for all services
type BaseService struct {
	clock func() time.Time
}

// Now returns the service clock in UTC. Tests replace the clock with a fixed one.
func (s *BaseService) Now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// ensureOwner hides resources of other users behind a not-found error.
func (s *BaseService) ensureOwner(ctx context.Context, kind, id, ownerID, requesterID string) error {
	if ownerID != requesterID {
		s.LogDebug(ctx, "Access to foreign resource denied",
			slog.String("kind", kind),
			slog.String("id", id),
			slog.String("requester_id", requesterID))
		return fmt.Errorf("%w: %s %s", apperrors.ErrNotFound, kind, id)
	}
	return nil
}
