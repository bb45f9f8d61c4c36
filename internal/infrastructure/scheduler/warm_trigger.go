package scheduler

import (
	"context"
	"sync"
	"time"

	appanalytics "github.com/GrupoEuro/SmartEC-sub000/internal/application/analytics"
	"github.com/GrupoEuro/SmartEC-sub000/internal/domain/analytics"
	"go.uber.org/zap"
)

// WarmTriggerConfig holds configuration for the warm trigger
type WarmTriggerConfig struct {
	// Interval is how often the trailing window is re-warmed
	Interval time.Duration
	// WindowDays is the length of the trailing window, ending at the next midnight
	WindowDays int
	// PruneEvery submits a prune job every N ticks; zero disables pruning
	PruneEvery int
}

// DefaultWarmTriggerConfig returns default warm trigger configuration
func DefaultWarmTriggerConfig() WarmTriggerConfig {
	return WarmTriggerConfig{
		Interval:   4 * time.Minute,
		WindowDays: 30,
		PruneEvery: 5,
	}
}

// WarmTrigger keeps the dashboard's default window warm. Each tick re-warms
// the trailing window; a tick that arrives while the previous warm is still
// running supersedes it, so only the newest window's warm completes.
type WarmTrigger struct {
	config    WarmTriggerConfig
	executor  JobExecutor
	scheduler *Scheduler
	logger    *zap.Logger
	now       func() time.Time

	warm *appanalytics.Recomputer[*Job]

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	ticks     int
	lastJob   *Job
}

// NewWarmTrigger creates a warm trigger. Prune jobs go through scheduler
// when it is non-nil.
func NewWarmTrigger(config WarmTriggerConfig, executor JobExecutor, scheduler *Scheduler, logger *zap.Logger) *WarmTrigger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WarmTrigger{
		config:    config,
		executor:  executor,
		scheduler: scheduler,
		logger:    logger,
		now:       time.Now,
	}
}

// Window returns the trailing window warmed at now.
func (w *WarmTrigger) Window(now time.Time) analytics.DateRange {
	end := analytics.StartOfDay(now).AddDate(0, 0, 1)
	return analytics.TrailingDays(end, w.config.WindowDays)
}

// Start warms once immediately and then on every interval
func (w *WarmTrigger) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = true
	w.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.warm = appanalytics.NewRecomputer[*Job](ctx, w.runWarm, w.published,
		appanalytics.WithSupersededHook[*Job](func(r analytics.DateRange) {
			w.logger.Info("Warm superseded by a newer window", zap.Stringer("window", r))
		}),
	)

	w.wg.Add(1)
	go w.runLoop(ctx)

	w.logger.Info("Warm trigger started",
		zap.Duration("interval", w.config.Interval),
		zap.Int("window_days", w.config.WindowDays),
	)
	return nil
}

// Stop stops the trigger and waits for the running warm to return
func (w *WarmTrigger) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		w.warm.Close()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("Warm trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LastJob returns the most recent published warm job
func (w *WarmTrigger) LastJob() *Job {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastJob
}

func (w *WarmTrigger) runLoop(ctx context.Context) {
	defer w.wg.Done()

	w.tick()
	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick()
		}
	}
}

func (w *WarmTrigger) tick() {
	w.warm.Trigger(w.Window(w.now()))

	w.mu.Lock()
	w.ticks++
	prune := w.config.PruneEvery > 0 && w.ticks%w.config.PruneEvery == 0
	w.mu.Unlock()

	if prune && w.scheduler != nil {
		if err := w.scheduler.SubmitJob(NewJob(JobKindPrune, time.Time{}, time.Time{}, 0)); err != nil {
			w.logger.Warn("Failed to submit prune job", zap.Error(err))
		}
	}
}

func (w *WarmTrigger) runWarm(ctx context.Context, r analytics.DateRange) (*Job, error) {
	job := NewJob(JobKindWarm, r.Start, r.End, 0)
	job.Start()
	if err := w.executor.Execute(ctx, job); err != nil {
		job.Fail(err.Error())
		return job, err
	}
	job.Complete()
	return job, nil
}

func (w *WarmTrigger) published(r analytics.DateRange, job *Job, err error) {
	w.mu.Lock()
	w.lastJob = job
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("Warm failed", zap.Stringer("window", r), zap.Error(err))
		return
	}
	w.logger.Debug("Warm completed", zap.Stringer("window", r))
}
