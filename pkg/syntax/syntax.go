// Package syntax reduces a concrete parse tree to a minimal tree.
//
// The minimal tree keeps two kinds of nodes: rule nodes, which carry the name
// of a grammar production that has two or more children, and leaf nodes,
// which carry the raw text of a token. Chains of single-child productions are
// elided so that no wrapper node survives below the root.
package syntax

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Concrete is the shape of a parse tree node produced by an external parser.
type Concrete interface {
	// ChildCount returns the number of children of the node.
	ChildCount() int
	// Child returns the i-th child.
	Child(i int) Concrete
	// Text returns the raw token text. Only meaningful when the node has no children.
	Text() string
	// Rule returns the grammar rule identifier. Only meaningful when the node has children.
	Rule() string
}

// Kind tells a rule node apart from a leaf node.
type Kind int

const (
	KindRule Kind = iota // Retained grammar production
	KindLeaf             // Token
)

func (k Kind) String() string {
	switch k {
	case KindRule:
		return "rule"
	case KindLeaf:
		return "leaf"
	default:
		return "unknown"
	}
}

// Node is a node of the minimal tree. Nodes are immutable once built and
// exclusively owned by their parent.
type Node struct {
	Kind     Kind
	Name     string  // Rule name, set for KindRule
	Text     string  // Token text, set for KindLeaf
	Children []*Node // Always empty for KindLeaf
}

// Simplify converts a concrete parse tree into a minimal tree.
//
// The root is always addressable: when the concrete root has exactly one
// child it is still represented as a rule node wrapping that child.
func Simplify(root Concrete) *Node {
	if root.ChildCount() == 1 {
		return &Node{
			Kind:     KindRule,
			Name:     ruleName(root.Rule()),
			Children: []*Node{simplify(root.Child(0))},
		}
	}
	return simplify(root)
}

func simplify(c Concrete) *Node {
	for c.ChildCount() == 1 {
		c = c.Child(0)
	}

	count := c.ChildCount()
	if count == 0 {
		return &Node{Kind: KindLeaf, Text: c.Text()}
	}

	children := make([]*Node, count)
	for i := 0; i < count; i++ {
		children[i] = simplify(c.Child(i))
	}
	return &Node{Kind: KindRule, Name: ruleName(c.Rule()), Children: children}
}

// ruleName lower-cases the first character of a rule identifier.
func ruleName(id string) string {
	r, size := utf8.DecodeRuneInString(id)
	if r == utf8.RuneError {
		return id
	}
	return string(unicode.ToLower(r)) + id[size:]
}

// IsRule reports whether n is a rule node with the given name.
func (n *Node) IsRule(name string) bool {
	return n != nil && n.Kind == KindRule && n.Name == name
}

// IsLeaf reports whether n is a leaf node with the given text.
func (n *Node) IsLeaf(text string) bool {
	return n != nil && n.Kind == KindLeaf && n.Text == text
}

// Tokens returns the text of every leaf below n in source order.
func (n *Node) Tokens() []string {
	var tokens []string
	n.collect(&tokens)
	return tokens
}

func (n *Node) collect(tokens *[]string) {
	if n.Kind == KindLeaf {
		*tokens = append(*tokens, n.Text)
		return
	}
	for _, child := range n.Children {
		child.collect(tokens)
	}
}

// Find returns the first direct child that is a rule with the given name.
func (n *Node) Find(name string) *Node {
	for _, child := range n.Children {
		if child.IsRule(name) {
			return child
		}
	}
	return nil
}

// String renders the tree one node per line, leaves shown as TOKEN[text].
func (n *Node) String() string {
	var sb strings.Builder
	n.write(&sb, "", true)
	return sb.String()
}

func (n *Node) write(sb *strings.Builder, prefix string, last bool) {
	sb.WriteString(prefix)
	if last {
		sb.WriteString("'- ")
	} else {
		sb.WriteString("|- ")
	}
	sb.WriteString(n.caption())
	sb.WriteString("\n")

	childPrefix := prefix + "|  "
	if last {
		childPrefix = prefix + "   "
	}
	for i, child := range n.Children {
		child.write(sb, childPrefix, i == len(n.Children)-1)
	}
}

func (n *Node) caption() string {
	if n.Kind == KindLeaf {
		return "TOKEN[" + strings.ReplaceAll(n.Text, "\n", "\\n") + "]"
	}
	return n.Name
}
