// Package ext defines the extension system for exportcheck.
//
// Extensions plug into two boundaries. At configuration time, a
// TypeContributor adds entries to the taxonomy registry so third-party
// integrations can flag their own handle types (or exempt safe
// subtypes). At validation time, lifecycle hooks observe each check:
// recording metrics, writing audit trails, forwarding warnings.
//
// Each hook is a separate interface so extensions opt in only to the
// events they care about.
//
// # Implementing an Extension
//
//	type MyExtension struct{}
//
//	func (e *MyExtension) Name() string { return "my-extension" }
//
//	// Opt in to specific hooks by implementing their interfaces.
//	func (e *MyExtension) OnFindingDetected(ctx context.Context, c *exportcheck.Check, f exportcheck.Finding) error {
//	    log.Printf("check %s: %s holds a %s", c.ID, f.Variable, f.Kind)
//	    return nil
//	}
//
// The [Registry] fans out each event to all registered extensions that
// implement the corresponding hook interface.
package ext

import (
	"context"
	"time"

	"github.com/xraph/exportcheck"
	"github.com/xraph/exportcheck/taxonomy"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// TypeContributor is invoked once at configuration time, before any
// validation runs. It is the registration surface through which
// integrations contribute opaque types, type families and allow-list
// overrides to the classification registry.
type TypeContributor interface {
	ContributeTypes(r *taxonomy.Registry) error
}

// CheckStarted is called when a validation begins scanning. It is not
// called for PolicyIgnore checks, which bypass the pipeline entirely.
type CheckStarted interface {
	OnCheckStarted(ctx context.Context, c *exportcheck.Check) error
}

// FindingDetected is called for every non-fatal opaque finding under
// PolicyWarn, in traversal order.
type FindingDetected interface {
	OnFindingDetected(ctx context.Context, c *exportcheck.Check, f exportcheck.Finding) error
}

// CheckCompleted is called after a check finishes without aborting the
// dispatch, with the assembled result.
type CheckCompleted interface {
	OnCheckCompleted(ctx context.Context, c *exportcheck.Check, res exportcheck.Result, elapsed time.Duration) error
}

// CheckFailed is called when a PolicyError check detects an opaque
// reference and the dispatch is about to be aborted.
type CheckFailed interface {
	OnCheckFailed(ctx context.Context, c *exportcheck.Check, err *exportcheck.OpaqueReferenceError) error
}
