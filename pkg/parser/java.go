// Package parser parses Java source with tree-sitter and exposes the result
// as a concrete tree consumable by the syntax package.
package parser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/l3aro/go-java-cfg/pkg/syntax"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

// ErrSyntax is returned when the source does not parse cleanly.
var ErrSyntax = errors.New("syntax error")

// javaParserPool is a pool of reusable tree-sitter parsers for Java.
var javaParserPool = sync.Pool{
	New: func() interface{} {
		return NewJavaParser()
	},
}

// NewJavaParser returns a tree-sitter parser configured for Java.
func NewJavaParser() *sitter.Parser {
	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())
	return parser
}

// Tree is a parsed Java compilation unit. Close releases the underlying
// tree-sitter tree; nodes obtained from Root must not be used afterwards.
type Tree struct {
	tree *sitter.Tree
	root *Node
}

// Root returns the compilation unit node.
func (t *Tree) Root() *Node {
	return t.root
}

// Close releases the tree.
func (t *Tree) Close() {
	t.tree.Close()
}

// ParseJava parses Java source code. A tree containing error or missing
// nodes is rejected with ErrSyntax.
func ParseJava(ctx context.Context, content []byte) (*Tree, error) {
	parser := javaParserPool.Get().(*sitter.Parser)
	defer javaParserPool.Put(parser)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parsing java source: %w", err)
	}
	if tree == nil {
		return nil, fmt.Errorf("parsing java source: no tree produced")
	}

	root := tree.RootNode()
	if root.HasError() {
		defer tree.Close()
		if bad := firstError(root); bad != nil {
			p := bad.StartPoint()
			return nil, fmt.Errorf("%w at line %d, column %d", ErrSyntax, p.Row+1, p.Column+1)
		}
		return nil, ErrSyntax
	}

	return &Tree{
		tree: tree,
		root: &Node{node: root, src: content},
	}, nil
}

// firstError returns the first ERROR or missing node in document order.
func firstError(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.Type() == "ERROR" || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if found := firstError(node.Child(i)); found != nil {
			return found
		}
	}
	return nil
}

// Node adapts a tree-sitter node to syntax.Concrete. Comments are extras in
// the Java grammar and are not reported as children. String literals, text
// blocks included, are split into quote and fragment nodes by the grammar;
// they are reported as single tokens.
type Node struct {
	node     *sitter.Node
	src      []byte
	children []*Node
	loaded   bool
}

var _ syntax.Concrete = (*Node)(nil)

var literalTypes = map[string]bool{
	"string_literal": true,
}

func (n *Node) load() []*Node {
	if n.loaded {
		return n.children
	}
	n.loaded = true
	if literalTypes[n.node.Type()] {
		return nil
	}
	for i := 0; i < int(n.node.ChildCount()); i++ {
		child := n.node.Child(i)
		if child == nil || child.IsExtra() {
			continue
		}
		n.children = append(n.children, &Node{node: child, src: n.src})
	}
	return n.children
}

// ChildCount returns the number of non-comment children.
func (n *Node) ChildCount() int {
	return len(n.load())
}

// Child returns the i-th non-comment child.
func (n *Node) Child(i int) syntax.Concrete {
	return n.load()[i]
}

// Text returns the source text covered by the node.
func (n *Node) Text() string {
	return n.node.Content(n.src)
}

// Rule returns the grammar node type.
func (n *Node) Rule() string {
	return n.node.Type()
}
