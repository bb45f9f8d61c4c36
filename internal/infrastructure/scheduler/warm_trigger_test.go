package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDefaultWarmTriggerConfig(t *testing.T) {
	cfg := DefaultWarmTriggerConfig()

	assert.Equal(t, 4*time.Minute, cfg.Interval)
	assert.Equal(t, 30, cfg.WindowDays)
	assert.Equal(t, 5, cfg.PruneEvery)
}

func TestWarmTrigger_Window(t *testing.T) {
	w := NewWarmTrigger(WarmTriggerConfig{WindowDays: 30}, nil, nil, nil)

	r := w.Window(time.Date(2024, 6, 1, 15, 30, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), r.End)
	assert.Equal(t, time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), r.Start)
}

func TestWarmTrigger_WarmsOnStart(t *testing.T) {
	engine := &fakeEngine{}
	logger := zaptest.NewLogger(t)
	w := NewWarmTrigger(WarmTriggerConfig{Interval: time.Hour, WindowDays: 7}, NewAnalyticsExecutor(engine, logger), nil, logger)
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	require.NoError(t, w.Start(context.Background()))

	require.Eventually(t, func() bool { return w.LastJob() != nil }, time.Second, 5*time.Millisecond)
	job := w.LastJob()
	assert.Equal(t, JobKindWarm, job.Kind)
	assert.Equal(t, JobStatusSuccess, job.Status)

	want := w.Window(now)
	assert.Equal(t, [2]time.Time{want.Start, want.End}, engine.lastWindow())

	require.NoError(t, w.Stop(context.Background()))
}

func TestWarmTrigger_SubmitsPruneJobs(t *testing.T) {
	engine := &fakeEngine{}
	logger := zaptest.NewLogger(t)
	exec := NewAnalyticsExecutor(engine, logger)

	s := NewScheduler(testSchedulerConfig(), exec, logger)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	w := NewWarmTrigger(WarmTriggerConfig{Interval: 10 * time.Millisecond, WindowDays: 7, PruneEvery: 1}, exec, s, logger)
	require.NoError(t, w.Start(context.Background()))

	assert.Eventually(t, func() bool { return engine.prunes.Load() >= 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, w.Stop(context.Background()))
}

func TestWarmTrigger_StopWithoutStart(t *testing.T) {
	w := NewWarmTrigger(DefaultWarmTriggerConfig(), nil, nil, nil)
	assert.NoError(t, w.Stop(context.Background()))
}
