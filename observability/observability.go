// Package observability provides the tracing/metrics surface the controller
// and its collaborators use, decoupled from any specific backend.
package observability

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Observability is the narrow interface controller collaborators consume;
// a concrete implementation wires it to real OTEL/Prometheus exporters.
type Observability interface {
	Tracer(name string, options ...trace.TracerOption) trace.Tracer
	Meter(name string, opts ...metric.MeterOption) metric.Meter
	PrometheusRegisterer() prometheus.Registerer
	Logger() *slog.Logger
}

// NopObservability is a zero-dependency Observability for tests and simple
// embeddings: it uses the global no-op tracer/meter providers and discards
// metrics registration.
type NopObservability struct {
	log *slog.Logger
}

// NewNop builds a NopObservability backed by the given logger (or
// slog.Default() if nil).
func NewNop(log *slog.Logger) *NopObservability {
	if log == nil {
		log = slog.Default()
	}
	return &NopObservability{log: log}
}

func (o *NopObservability) Tracer(name string, options ...trace.TracerOption) trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer(name, options...)
}

func (o *NopObservability) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	return otel.GetMeterProvider().Meter(name, opts...)
}

func (o *NopObservability) PrometheusRegisterer() prometheus.Registerer {
	return prometheus.NewRegistry()
}

func (o *NopObservability) Logger() *slog.Logger { return o.log }
