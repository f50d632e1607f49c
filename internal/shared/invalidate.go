package shared

import (
	"context"
	"log/slog"
)

// CacheInvalidator drops derived read models after a mutation.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Invalidate bumps inv when set, logging rather than failing the mutation.
func Invalidate(ctx context.Context, inv CacheInvalidator, logger *slog.Logger) {
	if inv == nil {
		return
	}
	if err := inv.Bump(ctx); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("cache invalidation failed", slog.Any("error", err))
	}
}
