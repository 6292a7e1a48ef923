package graph

// Visit is one traversal step: a node reached from a captured variable
// along a path of edge labels.
type Visit struct {
	// Variable is the name of the captured variable this node was
	// reached from.
	Variable string

	// Path is the ordered edge labels from the variable's root to the
	// node. Empty for the root itself.
	Path []string

	// Node is the visited node.
	Node Node
}

// Action controls how a walk proceeds after each visit.
type Action int

const (
	// Descend continues into the visited node's children.
	Descend Action = iota

	// Prune skips the visited node's children but continues the walk.
	Prune

	// Stop abandons the walk entirely.
	Stop
)

// VisitFunc is called once per distinct node in depth-first preorder.
type VisitFunc func(Visit) Action

type frame struct {
	variable string
	path     []string
	node     Node
}

// Walk traverses the object graphs of vars in declaration order,
// calling fn for every reachable node.
//
// The traversal uses an explicit stack, so arbitrarily deep nesting
// never exhausts call depth. The visited set is keyed by node identity
// and shared across all roots: an object reachable from several
// variables, or through a cycle, is visited exactly once per call. Work
// is therefore bounded by the number of distinct reachable identities,
// not by edge count.
func Walk(vars []Variable, fn VisitFunc) {
	visited := make(map[any]struct{})
	var stack []frame

	for _, v := range vars {
		if v.Value == nil {
			continue
		}
		stack = append(stack[:0], frame{variable: v.Name, node: v.Value})

		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if ident := f.node.Identity(); ident != nil {
				if _, seen := visited[ident]; seen {
					continue
				}
				visited[ident] = struct{}{}
			}

			switch fn(Visit{Variable: f.variable, Path: f.path, Node: f.node}) {
			case Stop:
				return
			case Prune:
				continue
			}

			children := f.node.Children()
			// Push in reverse so the first child is popped first.
			for i := len(children) - 1; i >= 0; i-- {
				e := children[i]
				if e.Node == nil {
					continue
				}
				childPath := make([]string, len(f.path)+1)
				copy(childPath, f.path)
				childPath[len(f.path)] = e.Label
				stack = append(stack, frame{variable: f.variable, path: childPath, node: e.Node})
			}
		}
	}
}
