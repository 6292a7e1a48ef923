// Package observability provides an extension that records check
// lifecycle metrics through OpenTelemetry.
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/exportcheck"
	"github.com/xraph/exportcheck/ext"
)

// meterName is the instrumentation scope name for the metrics extension.
const meterName = "github.com/xraph/exportcheck/observability"

// Compile-time interface checks.
var (
	_ ext.Extension       = (*MetricsExtension)(nil)
	_ ext.CheckStarted    = (*MetricsExtension)(nil)
	_ ext.CheckCompleted  = (*MetricsExtension)(nil)
	_ ext.CheckFailed     = (*MetricsExtension)(nil)
	_ ext.FindingDetected = (*MetricsExtension)(nil)
)

// MetricsExtension records check lifecycle metrics. Register it with
// the engine to track check rates, fatal detections and finding counts
// by reference kind.
//
// Instruments:
//   - exportcheck.check.started (Int64Counter)
//   - exportcheck.check.completed (Int64Counter), attribute: findings
//   - exportcheck.check.failed (Int64Counter), attribute: kind
//   - exportcheck.finding.detected (Int64Counter), attribute: kind
type MetricsExtension struct {
	started   metric.Int64Counter
	completed metric.Int64Counter
	failed    metric.Int64Counter
	findings  metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension using the global OTel
// MeterProvider. With no provider configured, the instruments are noop.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the
// provided meter. Use for testing or when multiple providers are in use.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	m := &MetricsExtension{}

	// On error the OTel API returns noop instruments, so the extension
	// degrades gracefully.
	m.started, _ = meter.Int64Counter(
		"exportcheck.check.started",
		metric.WithDescription("Total export checks started"),
		metric.WithUnit("{check}"),
	)
	m.completed, _ = meter.Int64Counter(
		"exportcheck.check.completed",
		metric.WithDescription("Total export checks completed without aborting dispatch"),
		metric.WithUnit("{check}"),
	)
	m.failed, _ = meter.Int64Counter(
		"exportcheck.check.failed",
		metric.WithDescription("Total export checks that aborted dispatch"),
		metric.WithUnit("{check}"),
	)
	m.findings, _ = meter.Int64Counter(
		"exportcheck.finding.detected",
		metric.WithDescription("Total non-fatal opaque reference findings"),
		metric.WithUnit("{finding}"),
	)

	return m
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnCheckStarted implements ext.CheckStarted.
func (m *MetricsExtension) OnCheckStarted(ctx context.Context, _ *exportcheck.Check) error {
	m.started.Add(ctx, 1)
	return nil
}

// OnCheckCompleted implements ext.CheckCompleted.
func (m *MetricsExtension) OnCheckCompleted(ctx context.Context, _ *exportcheck.Check, res exportcheck.Result, _ time.Duration) error {
	m.completed.Add(ctx, 1, metric.WithAttributes(
		attribute.Int("findings", len(res.Findings)),
	))
	return nil
}

// OnCheckFailed implements ext.CheckFailed.
func (m *MetricsExtension) OnCheckFailed(ctx context.Context, _ *exportcheck.Check, err *exportcheck.OpaqueReferenceError) error {
	m.failed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", string(err.Kind)),
	))
	return nil
}

// OnFindingDetected implements ext.FindingDetected.
func (m *MetricsExtension) OnFindingDetected(ctx context.Context, _ *exportcheck.Check, f exportcheck.Finding) error {
	m.findings.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", string(f.Kind)),
	))
	return nil
}
