package exportcheck

import (
	"fmt"
	"os"
)

// Policy is the caller-selected strictness level governing validator
// behaviour. It is passed explicitly into each validation so the same
// call is reproducible and concurrency-safe; the validator never reads
// process-wide mutable state.
type Policy int

const (
	// PolicyIgnore skips the check entirely. This is the default and
	// the hot path: it must cost next to nothing per dispatch.
	PolicyIgnore Policy = iota

	// PolicyWarn scans every captured variable exhaustively and
	// collects non-fatal findings. Dispatch always proceeds.
	PolicyWarn

	// PolicyError short-circuits on the first opaque reference and
	// aborts the dispatch before any data leaves the process.
	PolicyError
)

// PolicyEnvVar is the environment override consulted by PolicyFromEnv.
const PolicyEnvVar = "EXPORTCHECK_POLICY"

// String returns the canonical lowercase name of the policy.
func (p Policy) String() string {
	switch p {
	case PolicyIgnore:
		return "ignore"
	case PolicyWarn:
		return "warn"
	case PolicyError:
		return "error"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy parses a policy name. Recognized values are "ignore",
// "warn" and "error".
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "ignore":
		return PolicyIgnore, nil
	case "warn":
		return PolicyWarn, nil
	case "error":
		return PolicyError, nil
	default:
		return PolicyIgnore, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// PolicyFromEnv reads the policy from the EXPORTCHECK_POLICY environment
// variable. The second return reports whether an override was present;
// an explicit "ignore" is a real override, distinct from unset. An
// unrecognized value yields a non-nil error so misconfiguration does
// not silently tighten or loosen the check.
func PolicyFromEnv() (Policy, bool, error) {
	s, ok := os.LookupEnv(PolicyEnvVar)
	if !ok || s == "" {
		return PolicyIgnore, false, nil
	}
	p, err := ParsePolicy(s)
	return p, err == nil, err
}
