package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// CacheEngine is the analytics service surface the jobs drive
type CacheEngine interface {
	Warm(ctx context.Context, start, end time.Time) error
	RefreshCaches(ctx context.Context)
	PruneCaches() int
}

// AnalyticsExecutor executes cache jobs against the analytics engine
type AnalyticsExecutor struct {
	engine CacheEngine
	logger *zap.Logger
}

// NewAnalyticsExecutor creates a new executor
func NewAnalyticsExecutor(engine CacheEngine, logger *zap.Logger) *AnalyticsExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsExecutor{engine: engine, logger: logger}
}

// Execute runs one job
func (e *AnalyticsExecutor) Execute(ctx context.Context, job *Job) error {
	switch job.Kind {
	case JobKindWarm:
		return e.engine.Warm(ctx, job.PeriodStart, job.PeriodEnd)
	case JobKindRefresh:
		e.engine.RefreshCaches(ctx)
		return nil
	case JobKindPrune:
		removed := e.engine.PruneCaches()
		e.logger.Debug("Pruned expired report entries", zap.Int("removed", removed))
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidJobKind, job.Kind)
	}
}
