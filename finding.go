package exportcheck

import (
	"time"

	"github.com/xraph/exportcheck/taxonomy"
)

// Finding describes one opaque reference reached from a captured
// variable.
type Finding struct {
	// Variable is the name of the captured variable whose graph reaches
	// the offending node.
	Variable string

	// VariableType is the type tag of the captured variable itself.
	VariableType string

	// Path is the ordered sequence of edge labels from the variable's
	// root value to the offending node. Empty when the variable itself
	// is the offender.
	Path []string

	// TypeTag is the runtime type descriptor of the offending node.
	TypeTag string

	// Kind labels why the node cannot cross a process boundary.
	Kind taxonomy.Kind
}

// Result is the outcome of a single validation. A fatal detection under
// PolicyError is returned as an *OpaqueReferenceError instead; Result
// findings are only populated under PolicyWarn.
type Result struct {
	// Findings holds the non-fatal findings in traversal order,
	// variable declaration order first.
	Findings []Finding

	// Visited is the number of distinct nodes classified.
	Visited int

	// Elapsed is the wall time spent scanning.
	Elapsed time.Duration
}

// HasFindings reports whether the scan produced any warnings.
func (r Result) HasFindings() bool { return len(r.Findings) > 0 }
