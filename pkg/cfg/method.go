package cfg

import (
	"errors"
	"fmt"

	"github.com/l3aro/go-java-cfg/pkg/syntax"
)

// Build creates one graph per method or constructor declared anywhere in
// root. Methods without a body are skipped. A failing method is recorded in
// its MethodResult and does not stop the others.
func (b *Builder) Build(root *syntax.Node) *FileResult {
	result := &FileResult{Methods: make([]MethodResult, 0)}
	b.walk(root, result)
	return result
}

func (b *Builder) walk(n *syntax.Node, result *FileResult) {
	if isMethodDeclaration(n) {
		b.addMethod(n, result)
		return
	}
	for _, child := range n.Children {
		if child.Kind == syntax.KindRule {
			b.walk(child, result)
		}
	}
}

func (b *Builder) addMethod(decl *syntax.Node, result *FileResult) {
	name := methodName(decl)
	g, err := b.BuildMethod(decl)
	switch {
	case errors.Is(err, ErrNoBody):
		b.logger.Debug("skipping method without body", "method", name)
		return
	case err != nil:
		b.logger.Debug("method build failed", "method", name, "error", err)
	default:
		b.logger.Debug("built method graph", "method", name, "nodes", len(g.Nodes), "edges", len(g.Edges))
	}
	result.Methods = append(result.Methods, MethodResult{Name: name, Graph: g, Err: err})
}

// BuildMethod builds the graph of a single method or constructor
// declaration. The entry node is labeled with the method header and the body
// statements are threaded from it. On error no graph is returned.
func (b *Builder) BuildMethod(decl *syntax.Node) (*Graph, error) {
	if !isMethodDeclaration(decl) {
		return nil, malformed("%s is not a method declaration", describe(decl))
	}

	name := methodName(decl)
	parts := decl.Children[:len(decl.Children)-1]
	body := decl.Children[len(decl.Children)-1]

	switch {
	case body.IsLeaf(";"):
		return nil, fmt.Errorf("method %s: %w", name, ErrNoBody)
	case !body.IsRule("block") && !body.IsRule("constructor_body"):
		return nil, fmt.Errorf("method %s: %w", name, malformed("body has no statement block"))
	}

	f := &flow{counter: b.counter, graph: newGraph(name)}
	entry := f.newNode(CategoryEntry, headerLabel(parts))
	f.graph.Entry = entry.ID

	if _, err := f.sequence(bodyStatements(body), only(entry, EdgeUnconditional)); err != nil {
		return nil, fmt.Errorf("method %s: %w", name, err)
	}
	return f.graph, nil
}

func isMethodDeclaration(n *syntax.Node) bool {
	return n.IsRule("method_declaration") ||
		n.IsRule("constructor_declaration") ||
		n.IsRule("compact_constructor_declaration")
}

// methodName returns the identifier preceding the parameter list. Compact
// record constructors have no parameter list; their name precedes the body.
func methodName(decl *syntax.Node) string {
	for i, child := range decl.Children {
		if child.IsRule("formal_parameters") && i > 0 && decl.Children[i-1].Kind == syntax.KindLeaf {
			return decl.Children[i-1].Text
		}
	}
	if decl.IsRule("compact_constructor_declaration") && len(decl.Children) >= 2 {
		if name := decl.Children[len(decl.Children)-2]; name.Kind == syntax.KindLeaf {
			return name.Text
		}
	}
	return "<anonymous>"
}
