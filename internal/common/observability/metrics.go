package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records pipeline stage measurements through an OpenTelemetry
// meter exported on the shared Prometheus registry.
type Observability struct {
	meterProvider *metric.MeterProvider
	stageRuns     otelmetric.Int64Counter
	stageDuration otelmetric.Float64Histogram
	stageRows     otelmetric.Int64Histogram
}

func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return &Observability{}, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	stageRuns, _ := meter.Int64Counter(
		"pipeline.stage.runs",
		otelmetric.WithDescription("Pipeline stage executions"),
	)

	stageDuration, _ := meter.Float64Histogram(
		"pipeline.stage.duration",
		otelmetric.WithDescription("Pipeline stage duration"),
		otelmetric.WithUnit("ms"),
	)

	stageRows, _ := meter.Int64Histogram(
		"pipeline.stage.rows",
		otelmetric.WithDescription("Rows produced per stage execution"),
	)

	return &Observability{
		meterProvider: provider,
		stageRuns:     stageRuns,
		stageDuration: stageDuration,
		stageRows:     stageRows,
	}, nil
}

// NewNoop returns an Observability that records nothing.
func NewNoop() *Observability {
	return &Observability{}
}

// RecordStage records one stage execution. A nil receiver is valid.
func (o *Observability) RecordStage(ctx context.Context, stage string, duration time.Duration, rows int, err error) {
	if o == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status),
	)

	if o.stageRuns != nil {
		o.stageRuns.Add(ctx, 1, attrs)
	}
	if o.stageDuration != nil {
		o.stageDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
	if o.stageRows != nil && err == nil {
		o.stageRows.Record(ctx, int64(rows), attrs)
	}
}

func (o *Observability) Shutdown() {
	if o == nil || o.meterProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = o.meterProvider.Shutdown(ctx)
}
