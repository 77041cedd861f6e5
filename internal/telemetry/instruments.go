// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// =============================================================================
// INSTRUMENTS
// =============================================================================

// Instruments records a span, a counter and a latency histogram per backend request.
type Instruments struct {
	tracer   trace.Tracer
	requests metric.Int64Counter
	duration metric.Float64Histogram
	stats    *Stats
}

// NewInstruments creates request instruments. A nil provider uses Noop();
// stats may be nil.
func NewInstruments(p *Provider, stats *Stats) *Instruments {
	if p == nil {
		p = Noop()
	}
	inst := &Instruments{tracer: p.Tracer(), stats: stats}

	// Instrument creation only fails on invalid names; fall back to no-op.
	var err error
	inst.requests, err = p.Meter().Int64Counter("giasu.requests",
		metric.WithDescription("Backend requests by endpoint and outcome"))
	if err != nil {
		inst.requests, _ = Noop().Meter().Int64Counter("giasu.requests")
	}
	inst.duration, err = p.Meter().Float64Histogram("giasu.request.duration",
		metric.WithDescription("Backend request latency"),
		metric.WithUnit("ms"))
	if err != nil {
		inst.duration, _ = Noop().Meter().Float64Histogram("giasu.request.duration")
	}
	return inst
}

// DoneFunc finishes a request started with Start.
type DoneFunc func(status int, outcome Outcome, err error)

// Start opens a span for endpoint. The returned DoneFunc must be called once.
func (i *Instruments) Start(ctx context.Context, endpoint string) (context.Context, DoneFunc) {
	if i == nil {
		return ctx, func(int, Outcome, error) {}
	}
	ctx, span := i.tracer.Start(ctx, "tutor."+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("giasu.endpoint", endpoint)))
	start := time.Now()

	return ctx, func(status int, outcome Outcome, err error) {
		elapsed := time.Since(start)
		attrs := metric.WithAttributes(
			attribute.String("endpoint", endpoint),
			attribute.String("outcome", string(outcome)),
		)
		i.requests.Add(context.Background(), 1, attrs)
		i.duration.Record(context.Background(), float64(elapsed.Microseconds())/1000, attrs)

		if status != 0 {
			span.SetAttributes(attribute.Int("http.response.status_code", status))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(outcome))
		}
		span.End()

		i.stats.Record(RequestRecord{
			Endpoint: endpoint,
			Status:   status,
			Outcome:  outcome,
			Duration: elapsed,
		})
	}
}
