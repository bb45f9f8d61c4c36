package telemetry_test

import (
	"context"
	"runtime/pprof"
	"testing"

	"github.com/GrupoEuro/SmartEC-sub000/internal/infrastructure/telemetry"
	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         false,
		ServerAddress:   "http://localhost:4040",
		ApplicationName: "test-service",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop(), "stop is idempotent")
}

func TestNewProfiler_Validation(t *testing.T) {
	log := zaptest.NewLogger(t)

	_, err := telemetry.NewProfiler(telemetry.ProfilerConfig{Enabled: true, ApplicationName: "svc"}, log)
	assert.ErrorContains(t, err, "server address")

	_, err = telemetry.NewProfiler(telemetry.ProfilerConfig{Enabled: true, ServerAddress: "http://localhost:4040"}, log)
	assert.ErrorContains(t, err, "application name")

	_, err = telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         true,
		ServerAddress:   "http://localhost:4040",
		ApplicationName: "svc",
		ProfileTypes:    []string{"cpu", "heap"},
	}, log)
	assert.ErrorIs(t, err, telemetry.ErrUnknownProfileType)
}

func TestParseProfileTypes(t *testing.T) {
	types, err := telemetry.ParseProfileTypes(nil)
	require.NoError(t, err)
	assert.Equal(t, []pyroscope.ProfileType{
		pyroscope.ProfileCPU, pyroscope.ProfileAllocSpace, pyroscope.ProfileInuseSpace,
	}, types)

	types, err = telemetry.ParseProfileTypes([]string{" CPU ", "mutex_count", "block_duration"})
	require.NoError(t, err)
	assert.Equal(t, []pyroscope.ProfileType{
		pyroscope.ProfileCPU, pyroscope.ProfileMutexCount, pyroscope.ProfileBlockDuration,
	}, types)

	_, err = telemetry.ParseProfileTypes([]string{"threads"})
	assert.ErrorIs(t, err, telemetry.ErrUnknownProfileType)
}

func TestWithOperationLabel(t *testing.T) {
	var (
		got string
		ok  bool
	)
	telemetry.WithOperationLabel(context.Background(), "getForecast", func(ctx context.Context) {
		got, ok = pprof.Label(ctx, telemetry.ProfilingLabelOperation)
	})
	assert.True(t, ok)
	assert.Equal(t, "getForecast", got)

	called := false
	telemetry.WithOperationLabel(context.Background(), "", func(ctx context.Context) {
		_, ok = pprof.Label(ctx, telemetry.ProfilingLabelOperation)
		called = true
	})
	assert.True(t, called)
	assert.False(t, ok)
}

func TestTracerProvider_SpanProfilesNeedTracing(t *testing.T) {
	tp, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, tp.EnableSpanProfiles())
}
