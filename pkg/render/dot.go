package render

import (
	"fmt"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/multi"

	"github.com/l3aro/go-java-cfg/pkg/cfg"
)

// DOT encodes g as a Graphviz digraph named after its method. Node shapes
// follow the node category; edge labels carry the branch outcome.
func DOT(g *cfg.Graph) ([]byte, error) {
	dg := dotGraph{DirectedGraph: multi.NewDirectedGraph(), method: g.Method}

	nodes := make(map[int]dotNode, len(g.Nodes))
	for _, n := range g.Nodes {
		dn := dotNode{node: n}
		nodes[n.ID] = dn
		dg.AddNode(dn)
	}
	for i, e := range g.Edges {
		from, ok := nodes[e.From]
		if !ok {
			return nil, fmt.Errorf("edge %d->%d: unknown source node", e.From, e.To)
		}
		to, ok := nodes[e.To]
		if !ok {
			return nil, fmt.Errorf("edge %d->%d: unknown target node", e.From, e.To)
		}
		dg.SetLine(dotLine{from: from, to: to, id: int64(i), kind: e.Kind})
	}

	data, err := dot.MarshalMulti(dg, g.Method, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("marshaling DOT: %w", err)
	}
	return data, nil
}

type attributes []encoding.Attribute

func (a attributes) Attributes() []encoding.Attribute { return a }

type dotGraph struct {
	*multi.DirectedGraph
	method string
}

func (g dotGraph) DOTAttributers() (graph, node, edge encoding.Attributer) {
	return attributes{{Key: "rankdir", Value: "TB"}, {Key: "label", Value: g.method}, {Key: "labelloc", Value: "t"}},
		attributes{{Key: "fontname", Value: "Helvetica"}},
		attributes{{Key: "fontname", Value: "Helvetica"}, {Key: "fontsize", Value: "10"}}
}

type dotNode struct {
	node *cfg.Node
}

func (n dotNode) ID() int64 { return int64(n.node.ID) }

func (n dotNode) DOTID() string { return fmt.Sprintf("n%d", n.node.ID) }

func (n dotNode) Attributes() []encoding.Attribute {
	attrs := attributes{{Key: "label", Value: n.node.Label}}
	switch n.node.Category {
	case cfg.CategoryEntry:
		attrs = append(attrs, encoding.Attribute{Key: "shape", Value: "ellipse"}, encoding.Attribute{Key: "style", Value: "bold"})
	case cfg.CategoryProcess:
		attrs = append(attrs, encoding.Attribute{Key: "shape", Value: "box"})
	case cfg.CategoryDecision:
		attrs = append(attrs, encoding.Attribute{Key: "shape", Value: "diamond"})
	case cfg.CategoryLoop:
		attrs = append(attrs, encoding.Attribute{Key: "shape", Value: "hexagon"})
	case cfg.CategoryTerminal:
		attrs = append(attrs, encoding.Attribute{Key: "shape", Value: "ellipse"})
	case cfg.CategoryMerge:
		attrs = append(attrs, encoding.Attribute{Key: "shape", Value: "point"})
	}
	return attrs
}

type dotLine struct {
	from, to dotNode
	id       int64
	kind     cfg.EdgeKind
}

func (l dotLine) From() graph.Node { return l.from }
func (l dotLine) To() graph.Node   { return l.to }
func (l dotLine) ID() int64        { return l.id }

func (l dotLine) ReversedLine() graph.Line {
	return dotLine{from: l.to, to: l.from, id: l.id, kind: l.kind}
}

func (l dotLine) Attributes() []encoding.Attribute {
	switch l.kind {
	case cfg.EdgeTrue:
		return attributes{{Key: "label", Value: "true"}}
	case cfg.EdgeFalse:
		return attributes{{Key: "label", Value: "false"}}
	case cfg.EdgeBackEdge:
		return attributes{{Key: "style", Value: "dashed"}}
	default:
		return nil
	}
}
