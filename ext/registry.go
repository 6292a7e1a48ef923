package ext

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/exportcheck"
	"github.com/xraph/exportcheck/taxonomy"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type checkStartedEntry struct {
	name string
	hook CheckStarted
}

type findingDetectedEntry struct {
	name string
	hook FindingDetected
}

type checkCompletedEntry struct {
	name string
	hook CheckCompleted
}

type checkFailedEntry struct {
	name string
	hook CheckFailed
}

type typeContributorEntry struct {
	name string
	hook TypeContributor
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each hook.
	typeContributors []typeContributorEntry
	checkStarted     []checkStartedEntry
	findingDetected  []findingDetectedEntry
	checkCompleted   []checkCompletedEntry
	checkFailed      []checkFailedEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(TypeContributor); ok {
		r.typeContributors = append(r.typeContributors, typeContributorEntry{name, h})
	}
	if h, ok := e.(CheckStarted); ok {
		r.checkStarted = append(r.checkStarted, checkStartedEntry{name, h})
	}
	if h, ok := e.(FindingDetected); ok {
		r.findingDetected = append(r.findingDetected, findingDetectedEntry{name, h})
	}
	if h, ok := e.(CheckCompleted); ok {
		r.checkCompleted = append(r.checkCompleted, checkCompletedEntry{name, h})
	}
	if h, ok := e.(CheckFailed); ok {
		r.checkFailed = append(r.checkFailed, checkFailedEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ContributeTypes runs every TypeContributor against the registry.
// Unlike validation-time hooks, contribution errors are fatal: a
// half-configured taxonomy must not be trusted on the hot path.
func (r *Registry) ContributeTypes(reg *taxonomy.Registry) error {
	for _, e := range r.typeContributors {
		if err := e.hook.ContributeTypes(reg); err != nil {
			return fmt.Errorf("ext: %s: contribute types: %w", e.name, err)
		}
	}
	return nil
}

// EmitCheckStarted notifies all extensions that implement CheckStarted.
func (r *Registry) EmitCheckStarted(ctx context.Context, c *exportcheck.Check) {
	for _, e := range r.checkStarted {
		if err := e.hook.OnCheckStarted(ctx, c); err != nil {
			r.logHookError("OnCheckStarted", e.name, err)
		}
	}
}

// EmitFindingDetected notifies all extensions that implement
// FindingDetected.
func (r *Registry) EmitFindingDetected(ctx context.Context, c *exportcheck.Check, f exportcheck.Finding) {
	for _, e := range r.findingDetected {
		if err := e.hook.OnFindingDetected(ctx, c, f); err != nil {
			r.logHookError("OnFindingDetected", e.name, err)
		}
	}
}

// EmitCheckCompleted notifies all extensions that implement
// CheckCompleted.
func (r *Registry) EmitCheckCompleted(ctx context.Context, c *exportcheck.Check, res exportcheck.Result, elapsed time.Duration) {
	for _, e := range r.checkCompleted {
		if err := e.hook.OnCheckCompleted(ctx, c, res, elapsed); err != nil {
			r.logHookError("OnCheckCompleted", e.name, err)
		}
	}
}

// EmitCheckFailed notifies all extensions that implement CheckFailed.
func (r *Registry) EmitCheckFailed(ctx context.Context, c *exportcheck.Check, failure *exportcheck.OpaqueReferenceError) {
	for _, e := range r.checkFailed {
		if err := e.hook.OnCheckFailed(ctx, c, failure); err != nil {
			r.logHookError("OnCheckFailed", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated: they must not change the
// outcome of a check.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
