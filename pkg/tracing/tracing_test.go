package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	install(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return recorder
}

func TestChildSpanSharesTraceID(t *testing.T) {
	newRecorder(t)

	ctx, root := StartSpan(context.Background(), "PlaceOrder")
	defer root.End()
	_, child := StartSpan(ctx, "ReserveStock")
	defer child.End()

	assert.Equal(t, root.SpanContext().TraceID(), child.SpanContext().TraceID())
	assert.NotEqual(t, root.SpanContext().SpanID(), child.SpanContext().SpanID())
	assert.Equal(t, root.SpanContext().TraceID().String(), ExtractTraceID(ctx))
	assert.Equal(t, root.SpanContext().SpanID().String(), ExtractSpanID(ctx))
}

func TestEndSpanRecordsError(t *testing.T) {
	recorder := newRecorder(t)

	_, span := StartSpan(context.Background(), "CancelOrder", attribute.Int64("order_id", 7))
	EndSpan(span, errors.New("boom"))

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Contains(t, ended[0].Attributes(), attribute.Int64("order_id", 7))
}

func TestExtractWithoutSpan(t *testing.T) {
	assert.Empty(t, ExtractTraceID(context.Background()))
	assert.Empty(t, ExtractSpanID(context.Background()))
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
}
