package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/exportcheck"
)

// meterName is the instrumentation scope name for exportcheck metrics.
const meterName = "github.com/xraph/exportcheck"

// Metrics returns middleware that records per-check metrics using the
// global OTel MeterProvider. If no MeterProvider is configured, noop
// instruments are used and this middleware becomes a pass-through.
//
// Instruments:
//   - exportcheck.check.duration (Float64Histogram): scan time in
//     seconds, with attributes: policy, status ("ok" or "error")
//   - exportcheck.check.scans (Int64Counter): total scans,
//     with attributes: policy, status ("ok" or "error")
func Metrics() Middleware {
	meter := otel.Meter(meterName)
	return MetricsWithMeter(meter)
}

// MetricsWithMeter returns metrics middleware using the provided meter.
// This variant allows injecting a specific MeterProvider for testing.
func MetricsWithMeter(meter metric.Meter) Middleware {
	// Create instruments once at middleware construction time.
	// OTel instruments are safe for concurrent use. On error, the API
	// returns noop instruments so the middleware degrades gracefully.
	duration, dErr := meter.Float64Histogram(
		"exportcheck.check.duration",
		metric.WithDescription("Duration of export check scans in seconds"),
		metric.WithUnit("s"),
	)
	_ = dErr // noop fallback guaranteed by OTel API contract

	scans, sErr := meter.Int64Counter(
		"exportcheck.check.scans",
		metric.WithDescription("Total number of export check scans"),
		metric.WithUnit("{scan}"),
	)
	_ = sErr // noop fallback guaranteed by OTel API contract

	return func(ctx context.Context, c *exportcheck.Check, next Handler) error {
		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start).Seconds()

		status := "ok"
		if err != nil {
			status = "error"
		}

		attrs := metric.WithAttributes(
			attribute.String("policy", c.Policy.String()),
			attribute.String("status", status),
		)

		duration.Record(ctx, elapsed, attrs)
		scans.Add(ctx, 1, attrs)

		return err
	}
}
