package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func spanContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func fieldMap(entry observer.LoggedEntry) map[string]any {
	return entry.ContextMap()
}

func TestFromContext(t *testing.T) {
	l := zap.NewExample()
	ctx := WithContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))

	assert.NotNil(t, FromContext(context.Background()))
	assert.NotNil(t, FromContext(WithContext(context.Background(), nil)))
}

func TestContextValues(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithTenantID(ctx, "tenant-a")
	ctx = WithRunID(ctx, "run-7")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "tenant-a", GetTenantID(ctx))
	assert.Equal(t, "run-7", GetRunID(ctx))

	empty := context.Background()
	assert.Empty(t, GetRequestID(empty))
	assert.Empty(t, GetTenantID(empty))
	assert.Empty(t, GetRunID(empty))
}

func TestTraceIDs(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
	assert.Empty(t, GetSpanID(context.Background()))

	ctx := spanContext(t)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", GetTraceID(ctx))
	assert.Equal(t, "00f067aa0ba902b7", GetSpanID(ctx))
}

func TestFields(t *testing.T) {
	assert.Empty(t, Fields(context.Background()))

	ctx := WithTenantID(WithRequestID(spanContext(t), "req-1"), "tenant-a")
	keys := []string{}
	for _, f := range Fields(ctx) {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"trace_id", "span_id", "request_id", "tenant_id"}, keys)
}

func TestL_EnrichesEntries(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	ctx := WithContext(spanContext(t), zap.New(core))
	ctx = WithTenantID(ctx, "tenant-a")
	ctx = WithRunID(ctx, "run-7")

	L(ctx).With(zap.String("kind", "customer")).Info("Kind synchronized")
	L(ctx).Warn("Failed to store ERP document link")

	entries := recorded.All()
	require.Len(t, entries, 2)

	first := fieldMap(entries[0])
	assert.Equal(t, "tenant-a", first["tenant_id"])
	assert.Equal(t, "run-7", first["run_id"])
	assert.Equal(t, "customer", first["kind"])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", first["trace_id"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestWithLogger(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithRequestID(context.Background(), "req-9")

	WithLogger(ctx, zap.New(core)).Error("boom")
	WithLogger(ctx, nil).Error("dropped")

	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "req-9", fieldMap(recorded.All()[0])["request_id"])
}
