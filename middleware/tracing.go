package middleware

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/exportcheck"
)

// tracerName is the instrumentation scope name for exportcheck tracing.
const tracerName = "github.com/xraph/exportcheck"

// Tracing returns middleware that wraps a check in an OpenTelemetry
// span. If no TracerProvider is configured globally, the default noop
// tracer is used and this middleware becomes a pass-through with zero
// overhead.
//
// Span attributes include: exportcheck.check.id, exportcheck.policy,
// exportcheck.variables. On a fatal detection the span status is set to
// codes.Error with the diagnostic message.
func Tracing() Middleware {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer(tracer)
}

// TracingWithTracer returns tracing middleware using the provided
// tracer. This variant allows injecting a specific TracerProvider for
// testing or when multiple providers are in use.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, c *exportcheck.Check, next Handler) error {
		ctx, span := tracer.Start(ctx, "exportcheck.check.scan",
			trace.WithAttributes(
				attribute.String("exportcheck.check.id", c.ID.String()),
				attribute.String("exportcheck.policy", c.Policy.String()),
				attribute.Int("exportcheck.variables", len(c.Variables)),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			var ore *exportcheck.OpaqueReferenceError
			if errors.As(err, &ore) {
				span.SetAttributes(
					attribute.String("exportcheck.finding.variable", ore.Variable),
					attribute.String("exportcheck.finding.kind", string(ore.Kind)),
				)
			}
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}
