package cfg

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"
)

// Verify checks the structural invariants of a finished method graph:
// terminals have no outgoing edges, no ordered pair is connected twice,
// every node except the entry has a predecessor and is reachable from the
// entry, and the graph is acyclic once edges into loop headers are removed.
// All violations are reported together.
func Verify(g *Graph) error {
	var errs []error

	entry := g.Node(g.Entry)
	if entry == nil {
		return fmt.Errorf("method %s: entry node %d not found", g.Method, g.Entry)
	}

	seen := make(map[[2]int]bool, len(g.Edges))
	in := make(map[int]int, len(g.Nodes))
	for _, e := range g.Edges {
		from, to := g.Node(e.From), g.Node(e.To)
		if from == nil || to == nil {
			errs = append(errs, fmt.Errorf("edge %d->%d references an unknown node", e.From, e.To))
			continue
		}
		key := [2]int{e.From, e.To}
		if seen[key] {
			errs = append(errs, fmt.Errorf("duplicate edge %d->%d", e.From, e.To))
		}
		seen[key] = true
		if from.Terminal {
			errs = append(errs, fmt.Errorf("terminal node %d has outgoing edge to %d", e.From, e.To))
		}
		in[e.To]++
	}

	for _, n := range g.Nodes {
		if n.ID != g.Entry && in[n.ID] == 0 {
			errs = append(errs, fmt.Errorf("node %d (%s %q) has no incoming edge", n.ID, n.Category, n.Label))
		}
	}

	full := simple.NewDirectedGraph()
	forward := simple.NewDirectedGraph()
	for _, n := range g.Nodes {
		full.AddNode(simple.Node(n.ID))
		forward.AddNode(simple.Node(n.ID))
	}
	for _, e := range g.Edges {
		to := g.Node(e.To)
		if to == nil || g.Node(e.From) == nil || e.From == e.To {
			// Self edges only occur as back edges of empty loops.
			continue
		}
		full.SetEdge(full.NewEdge(simple.Node(e.From), simple.Node(e.To)))
		if to.Category != CategoryLoop {
			forward.SetEdge(forward.NewEdge(simple.Node(e.From), simple.Node(e.To)))
		}
	}

	var dfs traverse.DepthFirst
	dfs.Walk(full, simple.Node(g.Entry), nil)
	for _, n := range g.Nodes {
		if !dfs.Visited(simple.Node(n.ID)) {
			errs = append(errs, fmt.Errorf("node %d (%s %q) is unreachable from entry", n.ID, n.Category, n.Label))
		}
	}

	if _, err := topo.Sort(forward); err != nil {
		errs = append(errs, fmt.Errorf("cycle outside loop back edges: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("method %s: %w", g.Method, errors.Join(errs...))
	}
	return nil
}
