package graph

import (
	"fmt"
	"reflect"
	"sort"
)

// Describe adapts an arbitrary Go value into a Node. Values that already
// implement Node are returned as-is, so externally supplied graph
// descriptions compose with reflected ones.
func Describe(v any) Node {
	if v == nil {
		return nilNode{}
	}
	if n, ok := v.(Node); ok {
		return n
	}
	return newNode(reflect.ValueOf(v))
}

// HandleKind reports the handle kind advertised by a node or by its
// underlying value, or "" when the node is not a recognized handle.
func HandleKind(n Node) string {
	if h, ok := n.(Handle); ok {
		return h.HandleKind()
	}
	if vr, ok := n.(Valuer); ok {
		if v, ok := vr.Value(); ok {
			if h, ok := v.(Handle); ok {
				return h.HandleKind()
			}
		}
	}
	return ""
}

// PrimitiveKind reports the low-level primitive category of a node, or
// "" when the node is not primitive-backed.
func PrimitiveKind(n Node) string {
	if p, ok := n.(Primitive); ok {
		return p.PrimitiveKind()
	}
	return ""
}

// Valuer exposes the underlying Go value of a node when one is
// available and addressable through the public API.
type Valuer interface {
	Value() (any, bool)
}

// nilNode stands in for nil values and nil interfaces.
type nilNode struct{}

func (nilNode) Identity() any    { return nil }
func (nilNode) TypeTag() string  { return "<nil>" }
func (nilNode) Children() []Edge { return nil }

// identityKey pairs the runtime type with the referenced address so two
// objects of different types at a recycled address never collide. For
// slices the length is part of the key: two views over the same backing
// array with different lengths are distinct objects, and collapsing
// them would hide the longer view's tail from traversal.
type identityKey struct {
	t reflect.Type
	p uintptr
	l int
}

// valueNode is the reflect-backed Node implementation.
type valueNode struct {
	rv reflect.Value
}

func newNode(rv reflect.Value) Node {
	for rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nilNode{}
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nilNode{}
	}
	// A nil pointer carries no object, so there is nothing to flag or
	// descend into, whatever its type says.
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nilNode{}
	}
	return valueNode{rv: rv}
}

func (n valueNode) Identity() any {
	switch n.rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		if n.rv.IsNil() {
			return nil
		}
		return identityKey{t: n.rv.Type(), p: n.rv.Pointer()}
	case reflect.Slice:
		if n.rv.IsNil() {
			return nil
		}
		return identityKey{t: n.rv.Type(), p: n.rv.Pointer(), l: n.rv.Len()}
	}
	// Funcs carry no identity: closures of the same function share one
	// code pointer, so keying on it would collapse distinct closures.
	return nil
}

func (n valueNode) TypeTag() string {
	t := n.rv.Type()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}

func (n valueNode) Children() []Edge {
	// Externally supplied description wins over reflection: closures
	// and foreign-runtime wrappers expose environments reflection
	// cannot see.
	if n.rv.CanInterface() {
		if d, ok := n.rv.Interface().(Describer); ok {
			return d.DescribeChildren()
		}
	}

	switch n.rv.Kind() {
	case reflect.Pointer:
		if n.rv.IsNil() {
			return nil
		}
		return []Edge{{Label: "*", Node: newNode(n.rv.Elem())}}

	case reflect.Map:
		if n.rv.IsNil() || n.rv.Len() == 0 {
			return nil
		}
		keys := n.rv.MapKeys()
		type mapEntry struct {
			label string
			key   reflect.Value
		}
		entries := make([]mapEntry, 0, len(keys))
		for _, k := range keys {
			entries = append(entries, mapEntry{label: fmt.Sprint(k), key: k})
		}
		// Map iteration order is randomized; sort so findings are
		// deterministic across runs.
		sort.Slice(entries, func(i, j int) bool { return entries[i].label < entries[j].label })
		edges := make([]Edge, 0, len(entries))
		for _, e := range entries {
			// Keys are container elements too. A key whose kind can
			// carry a handle gets its own node; scalar and string keys
			// stay as labels only.
			if keyMayHoldHandle(e.key) {
				edges = append(edges, Edge{
					Label: "key(" + e.label + ")",
					Node:  newNode(e.key),
				})
			}
			edges = append(edges, Edge{
				Label: e.label,
				Node:  newNode(n.rv.MapIndex(e.key)),
			})
		}
		return edges

	case reflect.Slice, reflect.Array:
		ln := n.rv.Len()
		if ln == 0 {
			return nil
		}
		edges := make([]Edge, 0, ln)
		for i := 0; i < ln; i++ {
			edges = append(edges, Edge{
				Label: fmt.Sprintf("[%d]", i),
				Node:  newNode(n.rv.Index(i)),
			})
		}
		return edges

	case reflect.Struct:
		t := n.rv.Type()
		edges := make([]Edge, 0, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			// Unexported fields are descended into as well: handles
			// hide in private state far more often than in public.
			edges = append(edges, Edge{
				Label: t.Field(i).Name,
				Node:  newNode(n.rv.Field(i)),
			})
		}
		return edges
	}

	// Scalars, channels, funcs and unsafe pointers are leaves.
	// Function closures are only traversable through Describer.
	return nil
}

func (n valueNode) PrimitiveKind() string {
	switch n.rv.Kind() {
	case reflect.Chan, reflect.UnsafePointer:
		return primitiveOf(n.rv)
	case reflect.Struct:
		// A record with a live handle primitive as a direct field is
		// itself the handle wrapper, whatever its type is called.
		for i := 0; i < n.rv.NumField(); i++ {
			if k := primitiveOf(n.rv.Field(i)); k != "" {
				return k
			}
		}
	}
	return ""
}

// keyMayHoldHandle reports whether a map key of this kind can reach a
// process-local handle. Scalar and string keys cannot.
func keyMayHoldHandle(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Chan, reflect.Interface, reflect.Struct,
		reflect.Array, reflect.UnsafePointer:
		return true
	}
	return false
}

// primitiveOf reports the handle primitive backing rv. Nil channels and
// nil unsafe pointers hold no handle and are not flagged.
func primitiveOf(rv reflect.Value) string {
	switch rv.Kind() {
	case reflect.Chan:
		if !rv.IsNil() {
			return "chan"
		}
	case reflect.UnsafePointer:
		if rv.Pointer() != 0 {
			return "unsafe-pointer"
		}
	}
	return ""
}

func (n valueNode) Value() (any, bool) {
	if !n.rv.CanInterface() {
		return nil, false
	}
	return n.rv.Interface(), true
}
