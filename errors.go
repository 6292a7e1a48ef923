package exportcheck

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrOpaqueReference is the coarse sentinel for a fatal detection.
	// Match the detailed *OpaqueReferenceError with errors.As.
	ErrOpaqueReference = errors.New("exportcheck: non-exportable reference detected")

	// ErrUnknownPolicy is returned when a policy string cannot be parsed.
	ErrUnknownPolicy = errors.New("exportcheck: unknown policy")
)

// OpaqueReferenceError is the single failure kind surfaced by the
// validator: a captured variable reaches a reference that cannot cross
// the process boundary. It is deterministic and reproducible for a given
// captured state, not a transient failure.
type OpaqueReferenceError struct {
	Finding
}

// Error renders the diagnostic in the stable format existing tooling
// pattern-matches on. Do not change the wording without versioning the
// contract.
func (e *OpaqueReferenceError) Error() string {
	var b strings.Builder
	b.WriteString("Detected a non-exportable reference ('")
	b.WriteString(string(e.Kind))
	b.WriteString("'")
	if e.TypeTag != "" {
		fmt.Fprintf(&b, " of class '%s'", e.TypeTag)
	}
	fmt.Fprintf(&b, ") in one of the globals ('%s' of class '%s') used in the future expression.",
		e.Variable, e.VariableType)
	return b.String()
}

// Is reports a match against the ErrOpaqueReference sentinel so callers
// can use errors.Is without caring about the finding details.
func (e *OpaqueReferenceError) Is(target error) bool {
	return target == ErrOpaqueReference
}
