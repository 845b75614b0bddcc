package cfg

import (
	"context"
	"fmt"

	"github.com/l3aro/go-java-cfg/pkg/parser"
	"github.com/l3aro/go-java-cfg/pkg/syntax"
)

// Simplify parses Java source and returns its minimal syntax tree.
func Simplify(ctx context.Context, content []byte) (*syntax.Node, error) {
	tree, err := parser.ParseJava(ctx, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	return syntax.Simplify(tree.Root()), nil
}

// FromSource runs the whole pipeline on Java source: parse, simplify, then
// build one graph per method. The returned error covers file-wide failures
// only; per-method failures are reported in the result.
func FromSource(ctx context.Context, content []byte, opts ...Option) (*FileResult, error) {
	root, err := Simplify(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("simplifying source: %w", err)
	}
	return NewBuilder(opts...).Build(root), nil
}
