package observability

import (
	"context"
	"errors"
	"testing"

	"codelearn/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := Tracer
	Tracer = tp.Tracer("test")
	t.Cleanup(func() {
		Tracer = prev
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func TestStartSpan_EndSpan(t *testing.T) {
	rec := recordSpans(t)

	_, span := StartSpan(context.Background(), "contest", "submit", attribute.Int("contest.id", 3))
	EndSpan(span, nil)
	_, span = StartSpan(context.Background(), "group", "join")
	EndSpan(span, errors.New("invite code mismatch"))

	spans := rec.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "contest.submit", spans[0].Name())
	assert.Equal(t, trace.SpanKindInternal, spans[0].SpanKind())
	assert.Contains(t, spans[0].Attributes(), attribute.Int("contest.id", 3))
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	assert.Equal(t, "group.join", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "invite code mismatch", spans[1].Status().Description)
	assert.Len(t, spans[1].Events(), 1)
}

func TestInitTracing_Disabled(t *testing.T) {
	prev := Tracer
	t.Cleanup(func() { Tracer = prev })

	shutdown, err := InitTracing(context.Background(), TracingConfig{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestTracingConfigFrom(t *testing.T) {
	cfg := &config.Config{
		Env:                "staging",
		TracingEnabled:     true,
		TracingExporter:    "otlp",
		OTLPEndpoint:       "collector:4318",
		TracingSampleRatio: 0.25,
	}
	tc := TracingConfigFrom(cfg, "1.2.0")
	assert.Equal(t, TracingConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.2.0",
		Environment:    "staging",
		Enabled:        true,
		Exporter:       "otlp",
		OTLPEndpoint:   "collector:4318",
		SamplerRatio:   0.25,
	}, tc)
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(1).Description())
	assert.Contains(t, samplerFor(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, samplerFor(0.5).Description(), "TraceIDRatioBased{0.5}")
}
