package kafka

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})

	rec := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return rec
}

func TestHeaderCarrier(t *testing.T) {
	msg := &kafka.Message{Headers: []kafka.Header{{Key: "event_type", Value: []byte("task.created")}}}
	c := headerCarrier{msg: msg}

	assert.Equal(t, "task.created", c.Get("event_type"))
	assert.Empty(t, c.Get("missing"))

	c.Set("traceparent", "a")
	c.Set("event_type", "task.updated")

	assert.Equal(t, "task.updated", c.Get("event_type"))
	assert.Equal(t, "a", c.Get("traceparent"))
	assert.Equal(t, []string{"event_type", "traceparent"}, c.Keys())
	assert.Len(t, msg.Headers, 2)
}

func TestStartPublishSpan_ContinuesParentTrace(t *testing.T) {
	rec := installRecorder(t)

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	parent := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	}))

	msg := &kafka.Message{Topic: "tasks.task.created", Key: []byte("task-1")}
	_, span := startPublishSpan(parent, msg, "tasks.task.created")
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "tasks.task.created publish", ended[0].Name())
	assert.Equal(t, trace.SpanKindProducer, ended[0].SpanKind())
	assert.Equal(t, traceID, ended[0].SpanContext().TraceID())

	header := headerCarrier{msg: msg}.Get("traceparent")
	assert.Contains(t, header, traceID.String())
	assert.Contains(t, header, ended[0].SpanContext().SpanID().String())
}
