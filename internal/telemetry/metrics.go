package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/bft-labs/birdcall"

// Instruments records upload outcomes.
type Instruments struct {
	uploads  metric.Int64Counter
	bytes    metric.Int64Counter
	duration metric.Float64Histogram
}

// NewInstruments creates instruments on the global meter provider. Call it
// after Init so they bind to the exporting provider.
func NewInstruments() (*Instruments, error) {
	meter := otel.Meter(instrumentationName)

	uploads, err := meter.Int64Counter("birdcall.uploads",
		metric.WithDescription("Audio uploads by outcome"))
	if err != nil {
		return nil, err
	}
	bytes, err := meter.Int64Counter("birdcall.bytes_transmitted",
		metric.WithDescription("Audio bytes streamed to devices"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("birdcall.upload.duration",
		metric.WithDescription("Wall time of an upload from session to device answer"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	return &Instruments{uploads: uploads, bytes: bytes, duration: duration}, nil
}

// RecordUpload records one finished upload. outcome is "ok" or the failure kind.
func (i *Instruments) RecordUpload(ctx context.Context, device, outcome string, sent int64, elapsed time.Duration) {
	if i == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("device", device),
		attribute.String("outcome", outcome),
	)
	i.uploads.Add(ctx, 1, attrs)
	if sent > 0 {
		i.bytes.Add(ctx, sent, metric.WithAttributes(attribute.String("device", device)))
	}
	i.duration.Record(ctx, elapsed.Seconds(), attrs)
}

// Tracer returns the tracer used for upload spans.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}
