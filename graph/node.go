// Package graph models the object graph reachable from captured
// variables and provides the traversal used by the exportability
// validator.
//
// Values are abstracted behind the Node interface so heterogeneous,
// cyclic and potentially huge graphs can be walked uniformly. The
// reflect-backed Describe adapter covers ordinary Go values; external
// value types with non-obvious reachability (closures carrying a
// captured environment, wrappers around foreign runtimes) implement
// Describer to expose their own edges.
package graph

// Node is a single reachable value in a captured object graph.
type Node interface {
	// Identity returns a comparable key unique to the distinct
	// underlying object, or nil when the value has no stable identity
	// (plain scalars and inline composites). Identity drives cycle
	// detection and de-duplication; structurally equal but distinct
	// objects must not share a key.
	Identity() any

	// TypeTag returns the runtime type descriptor, e.g. "os.File" or
	// "map[string]int". Pointer indirection is stripped.
	TypeTag() string

	// Children returns the ordered outgoing edges: container elements,
	// record fields, attached metadata, and any environment captured by
	// a function-valued node.
	Children() []Edge
}

// Edge is one labeled edge to a child node.
type Edge struct {
	Label string
	Node  Node
}

// Variable is one captured variable supplied by the surrounding dispatch
// framework's free-variable extractor. The validator treats it as
// read-only input.
type Variable struct {
	// Name is the variable's name in the enclosing scope.
	Name string

	// Value is the variable's object graph root.
	Value Node

	// Scope identifies the binding scope the variable was captured
	// from. Informational only.
	Scope string
}

// Capture builds a Variable around an arbitrary Go value using the
// reflect-backed Describe adapter.
func Capture(name string, value any) Variable {
	return Variable{Name: name, Value: Describe(value)}
}

// Describer lets a value type describe its own reachable children
// instead of being inspected through reflection. Implement it on
// closure wrappers, foreign-runtime handles and other types whose
// reachable state reflection cannot see.
type Describer interface {
	DescribeChildren() []Edge
}

// Handle marks a value as wrapping a process-local handle. A node whose
// value implements Handle, or that directly wraps one, classifies as
// opaque even when its exact type is unknown to the taxonomy registry.
type Handle interface {
	// HandleKind labels the reference kind, e.g. "native-handle".
	HandleKind() string
}

// Primitive identifies nodes backed by low-level runtime primitives
// that can never cross a process boundary. The reflect adapter
// implements it for channels and unsafe pointers.
type Primitive interface {
	// PrimitiveKind returns "chan", "unsafe-pointer" or "".
	PrimitiveKind() string
}
