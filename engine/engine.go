// Package engine wires the exportcheck subsystems together. It creates
// the extension registry, taxonomy registry and middleware chain, and
// provides the Validate entry point that runs the walker and classifier
// under a policy.
//
// This package sits above the root exportcheck package (core value
// types), graph (traversal), taxonomy (classification), ext and
// middleware, and below the application's dispatch layer.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/exportcheck"
	"github.com/xraph/exportcheck/ext"
	"github.com/xraph/exportcheck/graph"
	mw "github.com/xraph/exportcheck/middleware"
	"github.com/xraph/exportcheck/taxonomy"
)

// Validator is the exportability validator entry point. Build one with
// New at configuration time and share it freely: concurrent Validate
// calls are safe, each call's traversal state is private, and the only
// shared resource is the read-mostly taxonomy registry.
type Validator struct {
	config     exportcheck.Config
	registry   *taxonomy.Registry
	classifier taxonomy.Classifier
	extensions *ext.Registry
	logger     *slog.Logger
	userExts   []ext.Extension
	userMws    []mw.Middleware
	chain      mw.Middleware

	// OpenTelemetry providers (optional; nil means use global).
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// Option configures a Validator.
type Option func(*Validator)

// WithConfig sets the validator configuration. A non-empty RulesFile is
// loaded into the taxonomy registry during New.
func WithConfig(cfg exportcheck.Config) Option {
	return func(v *Validator) {
		v.config = cfg
	}
}

// WithPolicy sets the default reference-on-detection policy returned by
// Policy().
func WithPolicy(p exportcheck.Policy) Option {
	return func(v *Validator) {
		v.config.Policy = p
	}
}

// WithRegistry replaces the taxonomy registry. By default a registry
// pre-populated with the base unsafe type set is used.
func WithRegistry(r *taxonomy.Registry) Option {
	return func(v *Validator) {
		v.registry = r
	}
}

// WithClassifier replaces the classifier applied to each visited node.
// By default the taxonomy registry itself classifies.
func WithClassifier(c taxonomy.Classifier) Option {
	return func(v *Validator) {
		v.classifier = c
	}
}

// WithExtension registers an extension with the validator. Extensions
// are registered after all options apply so they observe the final
// logger.
func WithExtension(e ext.Extension) Option {
	return func(v *Validator) {
		v.userExts = append(v.userExts, e)
	}
}

// WithMiddleware adds middleware to the validator's chain, inside the
// default tracing, metrics and logging middleware.
func WithMiddleware(m mw.Middleware) Option {
	return func(v *Validator) {
		v.userMws = append(v.userMws, m)
	}
}

// WithLogger sets the structured logger for the validator.
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) {
		v.logger = l
	}
}

// WithTracerProvider sets a custom OTel TracerProvider. When set, the
// tracing middleware uses this provider instead of the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(v *Validator) {
		v.tracerProvider = tp
	}
}

// WithMeterProvider sets a custom OTel MeterProvider. When set, the
// metrics middleware uses this provider instead of the global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(v *Validator) {
		v.meterProvider = mp
	}
}

// New creates a Validator. All registration happens here, before any
// Validate call: extension TypeContributors run against the taxonomy
// registry, the optional rules file is loaded, and the middleware chain
// is assembled once.
func New(opts ...Option) (*Validator, error) {
	v := &Validator{
		config: exportcheck.DefaultConfig(),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(v)
	}

	// The extension registry is built only after options apply so hook
	// errors land on the injected logger, not the process default.
	v.extensions = ext.NewRegistry(v.logger)
	for _, e := range v.userExts {
		v.extensions.Register(e)
	}

	if v.registry == nil {
		v.registry = taxonomy.DefaultRegistry()
	}
	if v.classifier == nil {
		v.classifier = v.registry
	}

	if v.config.RulesFile != "" {
		if err := taxonomy.LoadRules(v.config.RulesFile, v.registry); err != nil {
			return nil, fmt.Errorf("engine: load rules: %w", err)
		}
	}

	if err := v.extensions.ContributeTypes(v.registry); err != nil {
		return nil, err
	}

	// Build tracing middleware (custom provider or global).
	var tracingMw mw.Middleware
	if v.tracerProvider != nil {
		tracer := v.tracerProvider.Tracer("github.com/xraph/exportcheck")
		tracingMw = mw.TracingWithTracer(tracer)
	} else {
		tracingMw = mw.Tracing()
	}

	// Build metrics middleware (custom provider or global).
	var metricsMw mw.Middleware
	if v.meterProvider != nil {
		meter := v.meterProvider.Meter("github.com/xraph/exportcheck")
		metricsMw = mw.MetricsWithMeter(meter)
	} else {
		metricsMw = mw.Metrics()
	}

	// Default middleware stack: tracing → metrics → logging, then user
	// middleware. Recover is deliberately absent: panics raised by
	// broken graph descriptions propagate unchanged unless the caller
	// opts in via WithMiddleware(middleware.Recover(logger)).
	all := make([]mw.Middleware, 0, 3+len(v.userMws))
	all = append(all, tracingMw, metricsMw, mw.Logging(v.logger))
	all = append(all, v.userMws...)
	v.chain = mw.Chain(all...)

	return v, nil
}

// Registry returns the taxonomy registry.
func (v *Validator) Registry() *taxonomy.Registry { return v.registry }

// Extensions returns the extension registry.
func (v *Validator) Extensions() *ext.Registry { return v.extensions }

// Policy resolves the effective default policy: the EXPORTCHECK_POLICY
// environment override when set, otherwise the configured default. An
// unparsable override is ignored with a warning rather than silently
// changing strictness.
func (v *Validator) Policy() exportcheck.Policy {
	p, ok, err := exportcheck.PolicyFromEnv()
	if err != nil {
		v.logger.Warn("invalid policy override, using configured default",
			slog.String("env", exportcheck.PolicyEnvVar),
			slog.String("error", err.Error()),
		)
		return v.config.Policy
	}
	if !ok {
		return v.config.Policy
	}
	return p
}

// Validate checks every captured variable under the given policy.
//
// PolicyIgnore returns immediately without touching the walker,
// classifier, middleware or extensions: it is the default and runs on
// the hot path before every dispatch.
//
// PolicyWarn scans exhaustively, collects every opaque finding into the
// result in traversal order (variable declaration order first) and
// never fails.
//
// PolicyError short-circuits: the first opaque node aborts the scan and
// is returned as an *OpaqueReferenceError. The surrounding dispatch
// must not proceed.
func (v *Validator) Validate(ctx context.Context, vars []graph.Variable, policy exportcheck.Policy) (exportcheck.Result, error) {
	if policy == exportcheck.PolicyIgnore {
		return exportcheck.Result{}, nil
	}

	c := exportcheck.NewCheck(policy, vars)
	v.extensions.EmitCheckStarted(ctx, c)

	var res exportcheck.Result
	start := time.Now()
	err := v.chain(ctx, c, func(ctx context.Context) error {
		r, scanErr := v.scan(ctx, c)
		res = r
		return scanErr
	})
	res.Elapsed = time.Since(start)

	if err != nil {
		var ore *exportcheck.OpaqueReferenceError
		if errors.As(err, &ore) {
			v.extensions.EmitCheckFailed(ctx, c, ore)
		}
		return res, err
	}

	v.extensions.EmitCheckCompleted(ctx, c, res, res.Elapsed)
	return res, nil
}

// scan runs the walker over the check's variables and classifies every
// visited node. An opaque subtree is pruned at its topmost opaque node
// so one handle yields one finding.
func (v *Validator) scan(ctx context.Context, c *exportcheck.Check) (exportcheck.Result, error) {
	varTypes := make(map[string]string, len(c.Variables))
	for _, cv := range c.Variables {
		if cv.Value != nil {
			varTypes[cv.Name] = cv.Value.TypeTag()
		}
	}

	var (
		res   exportcheck.Result
		fatal *exportcheck.OpaqueReferenceError
	)
	graph.Walk(c.Variables, func(visit graph.Visit) graph.Action {
		res.Visited++

		verdict := v.classifier.Classify(visit.Node)
		if !verdict.Opaque {
			return graph.Descend
		}

		f := exportcheck.Finding{
			Variable:     visit.Variable,
			VariableType: varTypes[visit.Variable],
			Path:         visit.Path,
			TypeTag:      visit.Node.TypeTag(),
			Kind:         verdict.Kind,
		}

		if c.Policy == exportcheck.PolicyError {
			fatal = &exportcheck.OpaqueReferenceError{Finding: f}
			return graph.Stop
		}

		res.Findings = append(res.Findings, f)
		v.extensions.EmitFindingDetected(ctx, c, f)
		return graph.Prune
	})

	if fatal != nil {
		return res, fatal
	}
	return res, nil
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
)

// Default returns a process-wide validator with the base taxonomy and
// no extensions, built lazily on first use.
func Default() *Validator {
	defaultOnce.Do(func() {
		// New cannot fail without a rules file or contributors.
		defaultValidator, _ = New()
	})
	return defaultValidator
}

// Validate runs a check on the default validator.
func Validate(ctx context.Context, vars []graph.Variable, policy exportcheck.Policy) (exportcheck.Result, error) {
	return Default().Validate(ctx, vars, policy)
}
