package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartServiceSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	retailerID := uuid.New()
	_, span := StartServiceSpan(context.Background(), "payment", "allocate")
	SetAttributes(span,
		AttrRetailerID, retailerID,
		AttrAttempt, 2,
		42, "ignored",
	)
	RecordError(span, errors.New("boom"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "payment.allocate", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Contains(t, ended[0].Attributes(), attribute.String(AttrRetailerID, retailerID.String()))
	assert.Contains(t, ended[0].Attributes(), attribute.Int(AttrAttempt, 2))
	assert.Len(t, ended[0].Attributes(), 2)
}

func TestWithProfilingLabels(t *testing.T) {
	called := 0
	WithProfilingLabels(context.Background(), "allocate", func(context.Context) { called++ })
	WithProfilingLabels(context.Background(), "", func(context.Context) { called++ })
	assert.Equal(t, 2, called)
}
