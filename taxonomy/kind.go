// Package taxonomy classifies object graph nodes as transparent or
// opaque. The registry maps runtime type tags to verdicts; a structural
// fallback catches values that wrap a low-level handle primitive even
// when their exact type is unknown.
package taxonomy

import "github.com/xraph/exportcheck/graph"

// Kind labels why a reference cannot cross a process boundary. The set
// is open: integrations may introduce their own kinds.
type Kind string

const (
	// KindNativeHandle is a raw native pointer or OS-level handle.
	KindNativeHandle Kind = "native-handle"

	// KindIOChannel is an open I/O endpoint: file, socket, pipe,
	// database connection, in-process channel.
	KindIOChannel Kind = "io-channel"

	// KindForeignRuntime is a handle into another language runtime or
	// loaded plugin.
	KindForeignRuntime Kind = "foreign-runtime-handle"

	// KindOtherOpaque covers opaque references with no more specific
	// label.
	KindOtherOpaque Kind = "other-opaque"
)

// Verdict is the outcome of classifying one node.
type Verdict struct {
	Opaque bool
	Kind   Kind
}

// Transparent is the verdict for safely exportable nodes.
var Transparent = Verdict{}

// Opaque builds an opaque verdict with the given kind.
func Opaque(k Kind) Verdict { return Verdict{Opaque: true, Kind: k} }

// Classifier decides whether a single node may cross a process
// boundary. Implementations must be pure: no mutation, no side effects,
// safe for concurrent use from multiple traversals.
type Classifier interface {
	Classify(n graph.Node) Verdict
}
