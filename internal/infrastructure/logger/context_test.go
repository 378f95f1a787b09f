package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observedContext() (context.Context, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return WithContext(context.Background(), zap.New(core)), logs
}

func TestFromContextMissingIsNop(t *testing.T) {
	log := FromContext(context.Background())
	require.NotNil(t, log)
	// Logging through it must not panic.
	log.Info("ignored")
}

func TestContextCarriers(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestID(ctx))
	assert.Empty(t, CompanyID(ctx))
	assert.Empty(t, ActorID(ctx))

	ctx = WithRequestID(ctx, "req-1")
	ctx = WithCompanyID(ctx, "comp-1")
	ctx = WithActorID(ctx, "user-1")

	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "comp-1", CompanyID(ctx))
	assert.Equal(t, "user-1", ActorID(ctx))
}

func TestLInjectsUnitOfWorkFields(t *testing.T) {
	ctx, logs := observedContext()
	ctx = WithCompanyID(ctx, "comp-1")
	ctx = WithActorID(ctx, "user-1")

	L(ctx).Info("saved", zap.String("table", "memberships"))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "comp-1", fields["company_id"])
	assert.Equal(t, "user-1", fields["actor_id"])
	assert.Equal(t, "memberships", fields["table"])
	assert.NotContains(t, fields, "request_id")
}

func TestLInjectsTraceFields(t *testing.T) {
	ctx, logs := observedContext()

	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02},
		SpanID:     trace.SpanID{0x03, 0x04},
		TraceFlags: trace.FlagsSampled,
	})
	ctx = trace.ContextWithSpanContext(ctx, spanCtx)

	L(ctx).Warn("slow")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, spanCtx.TraceID().String(), fields["trace_id"])
	assert.Equal(t, spanCtx.SpanID().String(), fields["span_id"])
}

func TestLWithoutSpanOmitsTraceFields(t *testing.T) {
	ctx, logs := observedContext()
	L(ctx).Info("plain")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].ContextMap(), "trace_id")
}

func TestContextLoggerWith(t *testing.T) {
	ctx, logs := observedContext()

	child := L(ctx).With(zap.String("component", "pipeline"))
	child.Debug("first")
	child.Error("second")

	entries := logs.All()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "pipeline", e.ContextMap()["component"])
	}
	assert.Equal(t, zap.DebugLevel, entries[0].Level)
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
}

func TestContextLoggerZap(t *testing.T) {
	ctx, logs := observedContext()
	ctx = WithCompanyID(ctx, "comp-1")

	L(ctx).Zap().Info("direct")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "comp-1", entries[0].ContextMap()["company_id"])
}
