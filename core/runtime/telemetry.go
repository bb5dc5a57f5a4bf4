package runtime

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "escrowswap/core/runtime"

// txInstruments export transaction outcomes through the OTLP meter provider
// alongside the Prometheus collectors.
type txInstruments struct {
	executed metric.Int64Counter
	duration metric.Float64Histogram
}

func newTxInstruments(provider metric.MeterProvider) *txInstruments {
	meter := provider.Meter(meterName)
	executed, err := meter.Int64Counter("escrowswap.runtime.transactions",
		metric.WithDescription("Transactions executed by outcome."))
	if err != nil {
		executed, _ = noop.NewMeterProvider().Meter(meterName).Int64Counter("escrowswap.runtime.transactions")
	}
	duration, err := meter.Float64Histogram("escrowswap.runtime.transaction.duration",
		metric.WithDescription("Wall time spent executing a transaction."),
		metric.WithUnit("s"))
	if err != nil {
		duration, _ = noop.NewMeterProvider().Meter(meterName).Float64Histogram("escrowswap.runtime.transaction.duration")
	}
	return &txInstruments{executed: executed, duration: duration}
}

func (m *txInstruments) record(ctx context.Context, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.executed.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}
