package taxonomy

import (
	"strings"
	"sync"

	"github.com/xraph/exportcheck/graph"
)

// entry is one registered rule: either an opaque verdict or an explicit
// allow-list override.
type entry struct {
	allow bool
	kind  Kind
}

// Registry maps type tags to verdicts. It is pre-populated with a base
// set of known unsafe handle types and extensible by integrations at
// configuration time.
//
// Registration is expected to happen before any concurrent traversal
// begins (load-once, read-many). The RWMutex exists for the optional
// runtime-registration case; readers never block each other.
//
// Resolution order per node:
//  1. exact allow-list override
//  2. exact opaque match
//  3. longest prefix match (allow beats opaque on equal length)
//  4. structural fallback: the node is, or directly wraps, a recognized
//     low-level handle marker
//  5. transparent
//
// Unknown types are assumed safe; the structural fallback is what still
// catches an unknown wrapper around an unsafe primitive.
type Registry struct {
	mu       sync.RWMutex
	exact    map[string]entry
	prefixes map[string]entry
}

// NewRegistry creates an empty registry with no rules.
func NewRegistry() *Registry {
	return &Registry{
		exact:    make(map[string]entry),
		prefixes: make(map[string]entry),
	}
}

// DefaultRegistry returns a registry pre-populated with the base set of
// known unsafe standard library handle types.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	// Open files and processes.
	r.RegisterOpaque("os.File", KindIOChannel)
	r.RegisterOpaque("os.Process", KindNativeHandle)

	// Network endpoints.
	r.RegisterOpaque("net.TCPConn", KindIOChannel)
	r.RegisterOpaque("net.UDPConn", KindIOChannel)
	r.RegisterOpaque("net.UnixConn", KindIOChannel)
	r.RegisterOpaque("net.IPConn", KindIOChannel)
	r.RegisterOpaque("net.TCPListener", KindIOChannel)
	r.RegisterOpaque("net.UnixListener", KindIOChannel)
	r.RegisterOpaque("tls.Conn", KindIOChannel)

	// Database pool state.
	r.RegisterOpaque("sql.DB", KindIOChannel)
	r.RegisterOpaque("sql.Conn", KindIOChannel)
	r.RegisterOpaque("sql.Tx", KindIOChannel)
	r.RegisterOpaque("sql.Stmt", KindIOChannel)
	r.RegisterOpaque("sql.Rows", KindIOChannel)

	// Loaded code from outside this runtime.
	r.RegisterOpaque("plugin.Plugin", KindForeignRuntime)
	r.RegisterOpaque("rpc.Client", KindIOChannel)

	return r
}

// RegisterOpaque marks an exact type tag as opaque with the given kind.
func (r *Registry) RegisterOpaque(typeTag string, kind Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exact[typeTag] = entry{kind: kind}
}

// RegisterOpaquePrefix marks a type tag prefix (a type family) as
// opaque with the given kind.
func (r *Registry) RegisterOpaquePrefix(prefix string, kind Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefixes[prefix] = entry{kind: kind}
}

// Allow records an exact allow-list override: the type is known to be
// safely transferable even if a family rule or structural detection
// would flag it.
func (r *Registry) Allow(typeTag string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exact[typeTag] = entry{allow: true}
}

// AllowPrefix records an allow-list override for a type tag prefix.
func (r *Registry) AllowPrefix(prefix string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefixes[prefix] = entry{allow: true}
}

// Lookup resolves a type tag against the registered rules only, without
// the structural fallback. The second return is false when no rule
// matches.
func (r *Registry) Lookup(typeTag string) (Verdict, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookupLocked(typeTag)
}

func (r *Registry) lookupLocked(typeTag string) (Verdict, bool) {
	if e, ok := r.exact[typeTag]; ok {
		if e.allow {
			return Transparent, true
		}
		return Opaque(e.kind), true
	}

	// Longest matching prefix wins; an allow rule beats an opaque rule
	// of equal length so a narrower exemption can sit inside a flagged
	// family.
	var (
		best      entry
		bestLen   = -1
		bestAllow bool
		found     bool
	)
	for p, e := range r.prefixes {
		if !strings.HasPrefix(typeTag, p) {
			continue
		}
		if len(p) > bestLen || (len(p) == bestLen && e.allow && !bestAllow) {
			best, bestLen, bestAllow, found = e, len(p), e.allow, true
		}
	}
	if !found {
		return Transparent, false
	}
	if best.allow {
		return Transparent, true
	}
	return Opaque(best.kind), true
}

// Classify implements Classifier: registry lookup by type tag first,
// then the structural fallback for registry-unknown types.
func (r *Registry) Classify(n graph.Node) Verdict {
	if v, ok := r.Lookup(n.TypeTag()); ok {
		return v
	}
	return structural(n)
}

// structural detects nodes that are, or directly wrap, a low-level
// handle marker. This is the immediate-context part of classification:
// it needs the node's own structure, not just its type tag.
//
// Wrapped primitives (a record with a chan or unsafe.Pointer field) are
// reported by the node's own PrimitiveKind. The one-level child scan
// here covers externally described nodes whose children carry a Handle
// marker. Containers are deliberately not treated as wrappers: their
// offending elements are visited and flagged individually, with the
// element path intact.
func structural(n graph.Node) Verdict {
	if v, ok := marker(n); ok {
		return v
	}
	for _, e := range n.Children() {
		if e.Node == nil {
			continue
		}
		if k := graph.HandleKind(e.Node); k != "" {
			return Opaque(Kind(k))
		}
	}
	return Transparent
}

func marker(n graph.Node) (Verdict, bool) {
	if k := graph.HandleKind(n); k != "" {
		return Opaque(Kind(k)), true
	}
	switch graph.PrimitiveKind(n) {
	case "chan":
		return Opaque(KindIOChannel), true
	case "unsafe-pointer":
		return Opaque(KindNativeHandle), true
	}
	return Transparent, false
}
