package exportcheck

import (
	"time"

	"github.com/xraph/exportcheck/graph"
	"github.com/xraph/exportcheck/id"
)

// ID is the identifier type for exportcheck entities.
type ID = id.ID

// Check is one validation attempt over a set of captured variables.
// A Check is created fresh per dispatch attempt and discarded right
// after use; the validator holds no state across calls except the
// shared taxonomy registry.
type Check struct {
	// ID correlates this check across logs, traces and audit events.
	ID ID

	// Expr is an optional human-readable label for the deferred
	// expression being dispatched, supplied by the integration.
	Expr string

	// Policy selected for this check.
	Policy Policy

	// Variables is the captured state under scrutiny, in declaration
	// order. Supplied by the framework's free-variable extractor and
	// treated as read-only.
	Variables []graph.Variable

	// StartedAt is when the check began.
	StartedAt time.Time
}

// NewCheck assembles a Check for the given captured variables.
func NewCheck(policy Policy, vars []graph.Variable) *Check {
	return &Check{
		ID:        id.NewCheckID(),
		Policy:    policy,
		Variables: vars,
		StartedAt: time.Now().UTC(),
	}
}
