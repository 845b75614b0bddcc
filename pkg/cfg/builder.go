package cfg

import (
	"github.com/l3aro/go-java-cfg/internal/log"
	"github.com/l3aro/go-java-cfg/pkg/syntax"
)

// Builder turns minimal syntax trees into method graphs.
type Builder struct {
	counter *Counter
	logger  log.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithCounter makes the builder allocate node IDs from c instead of a fresh
// counter.
func WithCounter(c *Counter) Option {
	return func(b *Builder) {
		b.counter = c
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l log.Logger) Option {
	return func(b *Builder) {
		b.logger = l
	}
}

// NewBuilder returns a builder with its own counter starting at zero.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		counter: NewCounter(),
		logger:  log.Discard(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// exit is a node whose successor is not known yet, together with the kind
// of the edge that will leave it.
type exit struct {
	node *Node
	kind EdgeKind
}

// frontier is the set of open exits of a partially built flow. It never
// holds terminal nodes; an empty frontier means every path has returned.
type frontier []exit

func only(n *Node, kind EdgeKind) frontier {
	return frontier{{node: n, kind: kind}}
}

// flow builds the graph of one method.
type flow struct {
	counter *Counter
	graph   *Graph
}

func (f *flow) newNode(category Category, label string) *Node {
	n := &Node{
		ID:       f.counter.Next(),
		Label:    label,
		Category: category,
		Terminal: category == CategoryTerminal,
	}
	f.graph.addNode(n)
	return n
}

// link connects every open exit of fr to target.
func (f *flow) link(fr frontier, target *Node) {
	for _, e := range fr {
		if e.node.Terminal {
			continue
		}
		f.graph.AddEdge(e.node, target, e.kind)
	}
}

// sequence threads fr through stmts in source order and returns the
// frontier after the last reachable statement. Processing stops once the
// frontier is empty; statements after that point are unreachable.
func (f *flow) sequence(stmts []*syntax.Node, fr frontier) (frontier, error) {
	for _, stmt := range stmts {
		if len(fr) == 0 {
			break
		}

		kind, err := classify(stmt)
		if err != nil {
			return nil, err
		}

		switch kind {
		case stmtEmpty:
		case stmtBlock:
			fr, err = f.sequence(bodyStatements(stmt), fr)
		case stmtProcess:
			fr = f.process(stmt, fr)
		case stmtReturn:
			f.terminal(stmt, fr)
			return nil, nil
		case stmtConditional:
			fr, err = f.conditional(stmt, fr)
		case stmtLoop:
			fr, err = f.loop(stmt, fr)
		}
		if err != nil {
			return nil, err
		}
	}
	return fr, nil
}

func (f *flow) process(stmt *syntax.Node, fr frontier) frontier {
	n := f.newNode(CategoryProcess, statementLabel(stmt))
	f.link(fr, n)
	return only(n, EdgeUnconditional)
}

func (f *flow) terminal(stmt *syntax.Node, fr frontier) {
	n := f.newNode(CategoryTerminal, statementLabel(stmt))
	f.link(fr, n)
}

// ifShape tells the two productions of an if statement apart.
type ifShape int

const (
	shortIf ifShape = iota // if (c) s
	ifElse                 // if (c) s else s
)

func shapeOf(stmt *syntax.Node) (ifShape, error) {
	c := stmt.Children
	switch {
	case len(c) == 3 && c[0].IsLeaf("if"):
		return shortIf, nil
	case len(c) == 5 && c[0].IsLeaf("if") && c[3].IsLeaf("else"):
		return ifElse, nil
	default:
		return 0, malformed("%s is not an if statement", describe(stmt))
	}
}

// conditional builds an if or if-else statement. Every live branch exit,
// plus the condition itself for a short if, is joined at a fresh merge node.
// When no branch exit survives no merge is created and the frontier is empty.
func (f *flow) conditional(stmt *syntax.Node, fr frontier) (frontier, error) {
	shape, err := shapeOf(stmt)
	if err != nil {
		return nil, err
	}

	decision := f.newNode(CategoryDecision, conditionLabel(stmt.Children[1]))
	f.link(fr, decision)

	live, err := f.sequence(bodyStatements(stmt.Children[2]), only(decision, EdgeTrue))
	if err != nil {
		return nil, err
	}

	switch shape {
	case shortIf:
		live = append(live, exit{node: decision, kind: EdgeFalse})
	case ifElse:
		alt, err := f.sequence(bodyStatements(stmt.Children[4]), only(decision, EdgeFalse))
		if err != nil {
			return nil, err
		}
		live = append(live, alt...)
	}

	if len(live) == 0 {
		return nil, nil
	}

	merge := f.newNode(CategoryMerge, "")
	f.link(live, merge)
	return only(merge, EdgeUnconditional), nil
}

// loop builds a for statement. The header is both the body entry and the
// loop exit; every live body exit gets a back edge to it.
func (f *flow) loop(stmt *syntax.Node, fr frontier) (frontier, error) {
	c := stmt.Children
	n := len(c)
	if n < 4 || !c[0].IsLeaf("for") || !c[1].IsLeaf("(") || !c[n-2].IsLeaf(")") {
		return nil, malformed("%s is not a for statement", describe(stmt))
	}

	header := f.newNode(CategoryLoop, loopLabel(c[2:n-2]))
	f.link(fr, header)

	body, err := f.sequence(bodyStatements(c[n-1]), only(header, EdgeTrue))
	if err != nil {
		return nil, err
	}
	for _, e := range body {
		f.graph.AddEdge(e.node, header, EdgeBackEdge)
	}

	return only(header, EdgeFalse), nil
}

// bodyStatements returns the statements of a block, or the statement itself
// when the body is a single unbraced statement.
func bodyStatements(body *syntax.Node) []*syntax.Node {
	if !body.IsRule("block") && !body.IsRule("constructor_body") {
		return []*syntax.Node{body}
	}
	stmts := body.Children
	if len(stmts) > 0 && stmts[0].IsLeaf("{") {
		stmts = stmts[1:]
	}
	if len(stmts) > 0 && stmts[len(stmts)-1].IsLeaf("}") {
		stmts = stmts[:len(stmts)-1]
	}
	return stmts
}

func describe(n *syntax.Node) string {
	if n.Kind == syntax.KindLeaf {
		return "token " + n.Text
	}
	return n.Name
}
