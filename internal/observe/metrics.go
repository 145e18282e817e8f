// Package observe holds the OpenTelemetry instruments recorded by the
// transcription and question-generation pipeline, the tracer used for its
// spans, and the provider setup that exposes both through Prometheus.
//
// Tests should build a Metrics from their own meter provider with NewMetrics
// so that readings do not leak between tests.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "videomcq"

// Metrics holds the metric instruments of the service. A nil *Metrics is
// valid and records nothing, so callers do not need to guard every call.
type Metrics struct {
	// TranscriptSegments counts emitted transcript segments.
	TranscriptSegments metric.Int64Counter

	// DroppedRecords counts stream records discarded as malformed. Use with
	//   attribute.String("stream", "transcription"|"generation")
	DroppedRecords metric.Int64Counter

	// GenerationDuration tracks the latency of one per-segment completion.
	GenerationDuration metric.Float64Histogram

	// Questions counts produced questions by parser strategy.
	Questions metric.Int64Counter

	// GenerationFailures counts segments that yielded no question. Use with
	//   attribute.String("reason", "request"|"parse")
	GenerationFailures metric.Int64Counter

	// PipelineRuns counts finished runs. Use with
	//   attribute.String("operation", ...), attribute.String("status", ...)
	PipelineRuns metric.Int64Counter

	// ActiveRuns tracks runs currently in flight.
	ActiveRuns metric.Int64UpDownCounter

	// HTTPRequestDuration tracks REST request latency by method and route.
	HTTPRequestDuration metric.Float64Histogram
}

// Generation completions are slow compared to request handling.
var generationBuckets = []float64{
	0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80, 160,
}

// NewMetrics creates every instrument from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.TranscriptSegments, err = m.Int64Counter("videomcq.transcript.segments",
		metric.WithDescription("Total transcript segments emitted by the windower."),
	); err != nil {
		return nil, err
	}
	if met.DroppedRecords, err = m.Int64Counter("videomcq.stream.dropped_records",
		metric.WithDescription("Stream records dropped as malformed, by stream."),
	); err != nil {
		return nil, err
	}
	if met.GenerationDuration, err = m.Float64Histogram("videomcq.generation.duration",
		metric.WithDescription("Latency of one question generation request."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(generationBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Questions, err = m.Int64Counter("videomcq.generation.questions",
		metric.WithDescription("Questions produced, by parser strategy."),
	); err != nil {
		return nil, err
	}
	if met.GenerationFailures, err = m.Int64Counter("videomcq.generation.failures",
		metric.WithDescription("Segments that produced no question, by reason."),
	); err != nil {
		return nil, err
	}
	if met.PipelineRuns, err = m.Int64Counter("videomcq.pipeline.runs",
		metric.WithDescription("Finished pipeline runs by operation and status."),
	); err != nil {
		return nil, err
	}
	if met.ActiveRuns, err = m.Int64UpDownCounter("videomcq.pipeline.active_runs",
		metric.WithDescription("Pipeline runs currently in flight."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("videomcq.http.request.duration",
		metric.WithDescription("HTTP request latency by method and route."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns a process-wide Metrics built from the global meter
// provider on first use.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordTranscript records the outcome of one transcription stream.
func (m *Metrics) RecordTranscript(ctx context.Context, segments, dropped int) {
	if m == nil {
		return
	}
	m.TranscriptSegments.Add(ctx, int64(segments))
	if dropped > 0 {
		m.DroppedRecords.Add(ctx, int64(dropped),
			metric.WithAttributes(attribute.String("stream", "transcription")))
	}
}

// RecordDropped records malformed records on the generation stream.
func (m *Metrics) RecordDropped(ctx context.Context, stream string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.DroppedRecords.Add(ctx, int64(n), metric.WithAttributes(attribute.String("stream", stream)))
}

// RecordGeneration records one per-segment completion. strategy is empty
// when nothing could be parsed; reason names the failure in that case.
func (m *Metrics) RecordGeneration(ctx context.Context, elapsed time.Duration, strategy string, questions int, reason string) {
	if m == nil {
		return
	}
	m.GenerationDuration.Record(ctx, elapsed.Seconds())
	if reason != "" {
		m.GenerationFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
		return
	}
	m.Questions.Add(ctx, int64(questions), metric.WithAttributes(attribute.String("strategy", strategy)))
}

// RunStarted marks a pipeline run as in flight.
func (m *Metrics) RunStarted(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.ActiveRuns.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

// RunFinished records the terminal status of a run started with RunStarted.
func (m *Metrics) RunFinished(ctx context.Context, operation, status string) {
	if m == nil {
		return
	}
	m.ActiveRuns.Add(ctx, -1, metric.WithAttributes(attribute.String("operation", operation)))
	m.PipelineRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
}

// RecordHTTPRequest records one handled REST request.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
	))
}
