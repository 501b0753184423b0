package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/securities_registry/internal/apperrors"
	"github.com/SscSPs/securities_registry/internal/middleware"
	"github.com/SscSPs/securities_registry/internal/platform/lock"
)

// BaseService provides common functionality for all services
type BaseService struct{}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	s.GetLogger(ctx).Error(msg, args...)
}

// LogWarn logs a warning with consistent formatting
func (s *BaseService) LogWarn(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Warn(msg, keyvals...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// LogConsistency logs a fold-time consistency failure with the offending transaction.
// It reports whether err was such a failure.
func (s *BaseService) LogConsistency(ctx context.Context, err error) bool {
	var ice *apperrors.InternalConsistencyError
	if !errors.As(err, &ice) {
		return false
	}
	s.LogError(ctx, err, "Ledger failed internal consistency check",
		slog.String("entity_id", ice.EntityID),
		slog.String("transaction_id", ice.TransactionID),
		slog.String("type", ice.Type),
		slog.String("reason", ice.Reason))
	return true
}

// acquire takes key on locker, waiting at most wait. Failing to get the lock in time is
// reported as a conflict the caller may retry.
func (s *BaseService) acquire(ctx context.Context, locker lock.Locker, key string, wait time.Duration) (lock.Unlock, error) {
	lockCtx := ctx
	if wait > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}
	unlock, err := locker.Lock(lockCtx, key)
	if err != nil {
		s.LogWarn(ctx, "Failed to acquire lock", slog.String("key", key), slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", apperrors.ErrConflict, err)
	}
	return unlock, nil
}

// release runs unlock and logs a failure, which only means the lock will expire on its own.
func (s *BaseService) release(ctx context.Context, key string, unlock lock.Unlock) {
	if err := unlock(); err != nil {
		s.LogWarn(ctx, "Failed to release lock", slog.String("key", key), slog.String("error", err.Error()))
	}
}
