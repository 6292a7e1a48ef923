package graph_test

import (
	"strings"
	"testing"

	"github.com/xraph/exportcheck/graph"
)

func visitKey(v graph.Visit) string {
	if len(v.Path) == 0 {
		return v.Variable
	}
	return v.Variable + "." + strings.Join(v.Path, ".")
}

func collect(vars []graph.Variable) []string {
	var keys []string
	graph.Walk(vars, func(v graph.Visit) graph.Action {
		keys = append(keys, visitKey(v))
		return graph.Descend
	})
	return keys
}

func TestWalk_Preorder(t *testing.T) {
	type inner struct{ X int }
	type outer struct {
		A inner
		B []int
	}
	vars := []graph.Variable{graph.Capture("v", outer{A: inner{X: 1}, B: []int{9}})}

	got := collect(vars)
	want := []string{"v", "v.A", "v.A.X", "v.B", "v.B.[0]"}
	if len(got) != len(want) {
		t.Fatalf("visits = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("visit[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWalk_VariableOrder(t *testing.T) {
	vars := []graph.Variable{
		graph.Capture("first", 1),
		graph.Capture("second", 2),
	}

	got := collect(vars)
	want := []string{"first", "second"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("visit[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWalk_CycleTerminates(t *testing.T) {
	type ring struct {
		Name string
		Next *ring
	}
	a := &ring{Name: "a"}
	b := &ring{Name: "b", Next: a}
	a.Next = b

	visits := 0
	graph.Walk([]graph.Variable{graph.Capture("a", a)}, func(graph.Visit) graph.Action {
		visits++
		if visits > 100 {
			t.Fatal("walk did not terminate on a cyclic graph")
		}
		return graph.Descend
	})

	// Two pointer nodes, two struct nodes, two Name strings, two Next
	// edges (the one back to a dedups away).
	if visits == 0 {
		t.Fatal("no visits")
	}
}

func TestWalk_SelfReferentialMap(t *testing.T) {
	m := map[string]any{}
	m["self"] = m

	visits := 0
	graph.Walk([]graph.Variable{graph.Capture("m", m)}, func(graph.Visit) graph.Action {
		visits++
		if visits > 10 {
			t.Fatal("walk did not terminate on a self-referential map")
		}
		return graph.Descend
	})
	if visits != 1 {
		t.Errorf("visits = %d, want 1 (the map itself, once)", visits)
	}
}

func TestWalk_SharedSubstructureVisitedOnce(t *testing.T) {
	type leaf struct{ N int }
	shared := &leaf{N: 7}

	vars := []graph.Variable{
		graph.Capture("v1", map[string]*leaf{"x": shared}),
		graph.Capture("v2", map[string]*leaf{"y": shared}),
	}

	sharedVisits := 0
	graph.Walk(vars, func(v graph.Visit) graph.Action {
		if v.Node.TypeTag() == "graph_test.leaf" && len(v.Path) == 1 {
			sharedVisits++
		}
		return graph.Descend
	})
	if sharedVisits != 1 {
		t.Errorf("shared pointer visited %d times, want 1", sharedVisits)
	}
}

func TestWalk_AliasedSliceViews(t *testing.T) {
	type leaf struct{ N int }
	s := []*leaf{{N: 1}, {N: 2}}

	// The short view is walked first; the full view must still be
	// descended so its tail elements are reached.
	got := collect([]graph.Variable{
		graph.Capture("head", s[:1]),
		graph.Capture("full", s),
	})

	found := false
	for _, k := range got {
		if k == "full.[1]" {
			found = true
		}
	}
	if !found {
		t.Errorf("tail of the longer view not reached, visits = %v", got)
	}
}

func TestWalk_DistinctClosuresBothVisited(t *testing.T) {
	mk := func(n int) func() int {
		return func() int { return n }
	}

	got := collect([]graph.Variable{
		graph.Capture("f1", mk(1)),
		graph.Capture("f2", mk(2)),
	})

	want := []string{"f1", "f2"}
	if len(got) != len(want) {
		t.Fatalf("visits = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("visit[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWalk_MapKeyReachable(t *testing.T) {
	type leaf struct{ N int }
	k := &leaf{N: 7}

	got := collect([]graph.Variable{graph.Capture("m", map[*leaf]string{k: "x"})})

	found := false
	for _, key := range got {
		if len(key) > 6 && key[:6] == "m.key(" {
			found = true
		}
	}
	if !found {
		t.Errorf("map key node not visited, visits = %v", got)
	}
}

func TestWalk_DeepNesting(t *testing.T) {
	type link struct {
		Next *link
	}
	head := &link{}
	cur := head
	for i := 0; i < 100_000; i++ {
		cur.Next = &link{}
		cur = cur.Next
	}

	visits := 0
	graph.Walk([]graph.Variable{graph.Capture("head", head)}, func(graph.Visit) graph.Action {
		visits++
		return graph.Descend
	})
	// One pointer node and one struct node per link.
	if visits < 200_000 {
		t.Errorf("visits = %d, want at least 200000", visits)
	}
}

func TestWalk_Stop(t *testing.T) {
	vars := []graph.Variable{
		graph.Capture("v", []int{1, 2, 3}),
		graph.Capture("never", 9),
	}

	var got []string
	graph.Walk(vars, func(v graph.Visit) graph.Action {
		got = append(got, visitKey(v))
		if visitKey(v) == "v.[0]" {
			return graph.Stop
		}
		return graph.Descend
	})

	want := []string{"v", "v.[0]"}
	if len(got) != len(want) {
		t.Fatalf("visits after Stop = %v, want %v", got, want)
	}
}

func TestWalk_Prune(t *testing.T) {
	vars := []graph.Variable{graph.Capture("v", map[string][]int{"skip": {1, 2}})}

	var got []string
	graph.Walk(vars, func(v graph.Visit) graph.Action {
		got = append(got, visitKey(v))
		if visitKey(v) == "v.skip" {
			return graph.Prune
		}
		return graph.Descend
	})

	want := []string{"v", "v.skip"}
	if len(got) != len(want) {
		t.Fatalf("visits after Prune = %v, want %v", got, want)
	}
}

func TestWalk_NilRootSkipped(t *testing.T) {
	vars := []graph.Variable{
		{Name: "empty"},
		graph.Capture("v", 1),
	}

	got := collect(vars)
	if len(got) != 1 || got[0] != "v" {
		t.Errorf("visits = %v, want [v]", got)
	}
}

func TestWalk_ClosureEnvironmentReachable(t *testing.T) {
	type handleish struct{ fd uintptr }
	env := &envNode{name: "helper", env: []graph.Edge{
		{Label: "conn", Node: graph.Describe(&handleish{fd: 3})},
	}}

	got := collect([]graph.Variable{{Name: "helper", Value: env}})
	found := false
	for _, k := range got {
		if k == "helper.conn" {
			found = true
		}
	}
	if !found {
		t.Errorf("captured environment not reached, visits = %v", got)
	}
}
