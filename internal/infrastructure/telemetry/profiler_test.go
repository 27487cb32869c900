package telemetry

import (
	"context"
	"runtime/pprof"
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_RequiresServerAddress(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{Enabled: true}, zaptest.NewLogger(t))
	assert.Nil(t, p)
	assert.ErrorContains(t, err, "server address is required")
}

func TestNewProfiler_UnknownProfileType(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{
		Enabled:       true,
		ServerAddress: "http://localhost:4040",
		ProfileTypes:  []string{"cpu", "heap"},
	}, zaptest.NewLogger(t))
	assert.Nil(t, p)
	assert.ErrorContains(t, err, `unknown profile type "heap"`)
}

func TestParseProfileTypes(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []pyroscope.ProfileType
	}{
		{
			name:  "defaults",
			input: nil,
			want: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseSpace,
				pyroscope.ProfileGoroutines,
			},
		},
		{
			name:  "case and whitespace",
			input: []string{" CPU ", "Goroutines"},
			want:  []pyroscope.ProfileType{pyroscope.ProfileCPU, pyroscope.ProfileGoroutines},
		},
		{
			name:  "mutex expands to count and duration",
			input: []string{"mutex"},
			want:  []pyroscope.ProfileType{pyroscope.ProfileMutexCount, pyroscope.ProfileMutexDuration},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseProfileTypes(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProfileTenantRun_SetsLabels(t *testing.T) {
	var (
		called    bool
		tenant    string
		operation string
	)
	ProfileTenantRun(context.Background(), "tenant-1", "full_sync", func(ctx context.Context) {
		called = true
		tenant, _ = pprof.Label(ctx, "tenant_id")
		operation, _ = pprof.Label(ctx, "operation")
	})

	assert.True(t, called)
	assert.Equal(t, "tenant-1", tenant)
	assert.Equal(t, "full_sync", operation)
}
