// Package cfg builds control flow graphs (CFGs) for Java methods.
// It walks the minimal syntax tree produced by the syntax package and emits
// one directed graph per method: statement nodes, branch decisions, loop
// headers, merge points and return terminals connected in execution order.
package cfg

// Category classifies a CFG node. It decides how the node is rendered and
// which edges it may take part in.
type Category string

const (
	CategoryEntry    Category = "entry"    // Method entry point
	CategoryProcess  Category = "process"  // Plain statement
	CategoryDecision Category = "decision" // if condition
	CategoryLoop     Category = "loop"     // for loop header
	CategoryTerminal Category = "terminal" // return statement
	CategoryMerge    Category = "merge"    // Join point after a conditional
)

// EdgeKind represents the type of a CFG edge.
type EdgeKind string

const (
	EdgeUnconditional EdgeKind = "unconditional" // Sequential flow
	EdgeTrue          EdgeKind = "true"          // Condition holds, or loop body entry
	EdgeFalse         EdgeKind = "false"         // Condition fails, or loop exit
	EdgeBackEdge      EdgeKind = "back_edge"     // Loop repetition
)

// Node is a node of a method graph. Label and Category never change after
// creation.
type Node struct {
	ID       int      `json:"id" msgpack:"id"`
	Label    string   `json:"label" msgpack:"label"`
	Category Category `json:"category" msgpack:"category"`
	Terminal bool     `json:"terminal,omitempty" msgpack:"terminal"` // Set for return statements only
}

// Edge is a directed edge between two nodes of the same graph.
type Edge struct {
	From int      `json:"from" msgpack:"from"`
	To   int      `json:"to" msgpack:"to"`
	Kind EdgeKind `json:"kind" msgpack:"kind"`
}

// Graph is the control flow graph of a single method. Edges are append-only
// and an ordered pair of nodes is connected at most once.
type Graph struct {
	Method string  `json:"method" msgpack:"method"`
	Entry  int     `json:"entry" msgpack:"entry"`
	Nodes  []*Node `json:"nodes" msgpack:"nodes"`
	Edges  []Edge  `json:"edges" msgpack:"edges"`

	index map[int]*Node
	pairs map[[2]int]struct{}
}

func newGraph(method string) *Graph {
	return &Graph{
		Method: method,
		Nodes:  make([]*Node, 0),
		Edges:  make([]Edge, 0),
		index:  make(map[int]*Node),
		pairs:  make(map[[2]int]struct{}),
	}
}

// reindex rebuilds lookup tables for graphs that were decoded rather than built.
func (g *Graph) reindex() {
	if g.index != nil && len(g.index) == len(g.Nodes) && len(g.pairs) == len(g.Edges) {
		return
	}
	g.index = make(map[int]*Node, len(g.Nodes))
	for _, n := range g.Nodes {
		g.index[n.ID] = n
	}
	g.pairs = make(map[[2]int]struct{}, len(g.Edges))
	for _, e := range g.Edges {
		g.pairs[[2]int{e.From, e.To}] = struct{}{}
	}
}

func (g *Graph) addNode(n *Node) {
	g.reindex()
	g.Nodes = append(g.Nodes, n)
	g.index[n.ID] = n
}

// AddEdge connects from to to. It returns false without adding anything when
// from is a terminal node or the pair is already connected.
func (g *Graph) AddEdge(from, to *Node, kind EdgeKind) bool {
	g.reindex()
	if from.Terminal {
		return false
	}
	key := [2]int{from.ID, to.ID}
	if _, exists := g.pairs[key]; exists {
		return false
	}
	g.pairs[key] = struct{}{}
	g.Edges = append(g.Edges, Edge{From: from.ID, To: to.ID, Kind: kind})
	return true
}

// Node returns the node with the given ID, or nil.
func (g *Graph) Node(id int) *Node {
	g.reindex()
	return g.index[id]
}

// EntryNode returns the method entry node.
func (g *Graph) EntryNode() *Node {
	return g.Node(g.Entry)
}

// Successors returns the IDs of the nodes id has edges to, in insertion order.
func (g *Graph) Successors(id int) []int {
	var out []int
	for _, e := range g.Edges {
		if e.From == id {
			out = append(out, e.To)
		}
	}
	return out
}

// Predecessors returns the IDs of the nodes with edges to id, in insertion order.
func (g *Graph) Predecessors(id int) []int {
	var in []int
	for _, e := range g.Edges {
		if e.To == id {
			in = append(in, e.From)
		}
	}
	return in
}

// InDegree returns the number of edges ending at id.
func (g *Graph) InDegree(id int) int {
	return len(g.Predecessors(id))
}

// OutDegree returns the number of edges starting at id.
func (g *Graph) OutDegree(id int) int {
	return len(g.Successors(id))
}

// NodesOf returns the nodes of the given category in creation order.
func (g *Graph) NodesOf(category Category) []*Node {
	var nodes []*Node
	for _, n := range g.Nodes {
		if n.Category == category {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// MethodResult is the outcome of building one method. Exactly one of Graph
// and Err is set.
type MethodResult struct {
	Name  string `json:"name"`
	Graph *Graph `json:"graph,omitempty"`
	Err   error  `json:"-"`
}

// FileResult holds the graphs of every method with a body in a source file,
// in declaration order.
type FileResult struct {
	Methods []MethodResult `json:"methods"`
}

// Graphs returns the successfully built graphs.
func (r *FileResult) Graphs() []*Graph {
	var graphs []*Graph
	for _, m := range r.Methods {
		if m.Graph != nil {
			graphs = append(graphs, m.Graph)
		}
	}
	return graphs
}
