// Package observe provides application-wide observability primitives for
// Pulseaid: OpenTelemetry metrics, distributed tracing, and HTTP middleware
// that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Pulseaid metrics.
const meterName = "github.com/pulseaid/pulseaid"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// QuestionDuration tracks the full ask-listen-resolve cycle per question.
	// Use with attributes:
	//   attribute.String("variant", ...), attribute.String("question", ...)
	QuestionDuration metric.Float64Histogram

	// SpeakDuration tracks time from speak request to completion signal.
	SpeakDuration metric.Float64Histogram

	// SummariseDuration tracks document summarisation processing time.
	SummariseDuration metric.Float64Histogram

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram

	// --- Counters ---

	// AnswerResolutions counts resolved answers by outcome. Use with attributes:
	//   attribute.String("variant", ...), attribute.String("outcome", ...)
	AnswerResolutions metric.Int64Counter

	// SpeakRequests counts speech-output invocations by status.
	SpeakRequests metric.Int64Counter

	// ReportsComposed counts completed reports by variant.
	ReportsComposed metric.Int64Counter

	// --- Error counters ---

	// RecognizerErrors counts speech-input failures by provider.
	RecognizerErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live questionnaire sessions.
	ActiveSessions metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// question cycles, which run from sub-second speech to multi-second listening
// windows.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.QuestionDuration, err = m.Float64Histogram("pulseaid.question.duration",
		metric.WithDescription("Latency of one ask-listen-resolve question cycle."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SpeakDuration, err = m.Float64Histogram("pulseaid.speak.duration",
		metric.WithDescription("Latency from speak request to completion signal."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SummariseDuration, err = m.Float64Histogram("pulseaid.summarise.duration",
		metric.WithDescription("Latency of document summarisation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("pulseaid.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.AnswerResolutions, err = m.Int64Counter("pulseaid.answer.resolutions",
		metric.WithDescription("Total resolved answers by variant and outcome."),
	); err != nil {
		return nil, err
	}
	if met.SpeakRequests, err = m.Int64Counter("pulseaid.speak.requests",
		metric.WithDescription("Total speech-output invocations by status."),
	); err != nil {
		return nil, err
	}
	if met.ReportsComposed, err = m.Int64Counter("pulseaid.reports.composed",
		metric.WithDescription("Total completed reports by variant."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.RecognizerErrors, err = m.Int64Counter("pulseaid.recognizer.errors",
		metric.WithDescription("Total speech-input failures by provider."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("pulseaid.active_sessions",
		metric.WithDescription("Number of live questionnaire sessions."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
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

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordAnswerResolution records one resolved answer with the standard
// attribute set.
func (m *Metrics) RecordAnswerResolution(ctx context.Context, variant, outcome string) {
	m.AnswerResolutions.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("variant", variant),
			attribute.String("outcome", outcome),
		),
	)
}

// RecordSpeakRequest records one speech-output invocation.
func (m *Metrics) RecordSpeakRequest(ctx context.Context, status string) {
	m.SpeakRequests.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// RecordRecognizerError records one speech-input failure.
func (m *Metrics) RecordRecognizerError(ctx context.Context, provider string) {
	m.RecognizerErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("provider", provider)),
	)
}
