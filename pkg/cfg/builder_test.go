package cfg

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/l3aro/go-java-cfg/pkg/syntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBody wraps body in a method of a class and returns its verified graph.
func buildBody(t *testing.T, body string) *Graph {
	t.Helper()
	src := "class T {\n    int m() {\n" + body + "\n    }\n}\n"
	res, err := FromSource(context.Background(), []byte(src))
	require.NoError(t, err)
	require.Len(t, res.Methods, 1)
	require.NoError(t, res.Methods[0].Err)

	g := res.Methods[0].Graph
	require.NotNil(t, g)
	require.NoError(t, Verify(g))
	return g
}

func nodeName(n *Node) string {
	if n.Category == CategoryMerge {
		return "merge"
	}
	return string(n.Category) + ":" + n.Label
}

// describeEdges renders edges in insertion order, skipping those leaving the entry.
func describeEdges(g *Graph) []string {
	out := make([]string, 0, len(g.Edges))
	for _, e := range g.Edges {
		if e.From == g.Entry {
			continue
		}
		out = append(out, fmt.Sprintf("%s -%s-> %s", nodeName(g.Node(e.From)), e.Kind, nodeName(g.Node(e.To))))
	}
	return out
}

// statementNodes returns every node except the method entry.
func statementNodes(g *Graph) []string {
	var out []string
	for _, n := range g.Nodes {
		if n.ID != g.Entry {
			out = append(out, nodeName(n))
		}
	}
	return out
}

func TestBuild_Scenarios(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantNodes []string
		wantEdges []string
	}{
		{
			name:      "sequence then return",
			body:      "int x = 1; return x;",
			wantNodes: []string{"process:int x = 1", "terminal:return x"},
			wantEdges: []string{"process:int x = 1 -unconditional-> terminal:return x"},
		},
		{
			name:      "string literals keep their text",
			body:      `String s = "hello world"; s = ""; return "done" + s;`,
			wantNodes: []string{`process:String s = "hello world"`, `process:s = ""`, `terminal:return "done" + s`},
			wantEdges: []string{
				`process:String s = "hello world" -unconditional-> process:s = ""`,
				`process:s = "" -unconditional-> terminal:return "done" + s`,
			},
		},
		{
			name:      "condition with negated operand",
			body:      "if (a - -b > 0) { c = 1; }",
			wantNodes: []string{"decision:a- -b>0", "process:c = 1", "merge"},
			wantEdges: []string{
				"decision:a- -b>0 -true-> process:c = 1",
				"decision:a- -b>0 -false-> merge",
				"process:c = 1 -unconditional-> merge",
			},
		},
		{
			name:      "if else joined by merge",
			body:      "if (a > 0) { b = 1; } else { b = 2; } c = 3;",
			wantNodes: []string{"decision:a>0", "process:b = 1", "process:b = 2", "merge", "process:c = 3"},
			wantEdges: []string{
				"decision:a>0 -true-> process:b = 1",
				"decision:a>0 -false-> process:b = 2",
				"process:b = 1 -unconditional-> merge",
				"process:b = 2 -unconditional-> merge",
				"merge -unconditional-> process:c = 3",
			},
		},
		{
			name:      "for loop with back edge",
			body:      "for (i = 0; i < 5; i++) { a = a * 2; } return a;",
			wantNodes: []string{"loop:i=0; i<5; i++", "process:a = a * 2", "terminal:return a"},
			wantEdges: []string{
				"loop:i=0; i<5; i++ -true-> process:a = a * 2",
				"process:a = a * 2 -back_edge-> loop:i=0; i<5; i++",
				"loop:i=0; i<5; i++ -false-> terminal:return a",
			},
		},
		{
			name:      "short if whose branch returns",
			body:      "if (x) { return 1; } y = 2;",
			wantNodes: []string{"decision:x", "terminal:return 1", "merge", "process:y = 2"},
			wantEdges: []string{
				"decision:x -true-> terminal:return 1",
				"decision:x -false-> merge",
				"merge -unconditional-> process:y = 2",
			},
		},
		{
			name:      "both branches return",
			body:      "if (x) { return 1; } else { return 2; } y = 3;",
			wantNodes: []string{"decision:x", "terminal:return 1", "terminal:return 2"},
			wantEdges: []string{
				"decision:x -true-> terminal:return 1",
				"decision:x -false-> terminal:return 2",
			},
		},
		{
			name:      "short if with empty body",
			body:      "if (a > 0) {} b = 1;",
			wantNodes: []string{"decision:a>0", "merge", "process:b = 1"},
			wantEdges: []string{
				"decision:a>0 -true-> merge",
				"merge -unconditional-> process:b = 1",
			},
		},
		{
			name:      "else if chain",
			body:      "if (a) { b = 1; } else if (c) { b = 2; } return b;",
			wantNodes: []string{"decision:a", "process:b = 1", "decision:c", "process:b = 2", "merge", "merge", "terminal:return b"},
			wantEdges: []string{
				"decision:a -true-> process:b = 1",
				"decision:a -false-> decision:c",
				"decision:c -true-> process:b = 2",
				"process:b = 2 -unconditional-> merge",
				"decision:c -false-> merge",
				"process:b = 1 -unconditional-> merge",
				"merge -unconditional-> merge",
				"merge -unconditional-> terminal:return b",
			},
		},
		{
			name:      "unbraced loop body",
			body:      "for (int i = 0; i < b; i++) a += i;",
			wantNodes: []string{"loop:int i=0; i<b; i++", "process:a += i"},
			wantEdges: []string{
				"loop:int i=0; i<b; i++ -true-> process:a += i",
				"process:a += i -back_edge-> loop:int i=0; i<b; i++",
			},
		},
		{
			name:      "empty loop body is a self edge",
			body:      "for (;;) {} return 0;",
			wantNodes: []string{"loop:; ;", "terminal:return 0"},
			wantEdges: []string{
				"loop:; ; -back_edge-> loop:; ;",
				"loop:; ; -false-> terminal:return 0",
			},
		},
		{
			name:      "return inside loop has no back edge",
			body:      "for (;;) { return 1; }",
			wantNodes: []string{"loop:; ;", "terminal:return 1"},
			wantEdges: []string{"loop:; ; -true-> terminal:return 1"},
		},
		{
			name:      "if inside loop",
			body:      "for (i = 0; i < 3; i++) { if (i > 1) { return i; } } return 0;",
			wantNodes: []string{"loop:i=0; i<3; i++", "decision:i>1", "terminal:return i", "merge", "terminal:return 0"},
			wantEdges: []string{
				"loop:i=0; i<3; i++ -true-> decision:i>1",
				"decision:i>1 -true-> terminal:return i",
				"decision:i>1 -false-> merge",
				"merge -back_edge-> loop:i=0; i<3; i++",
				"loop:i=0; i<3; i++ -false-> terminal:return 0",
			},
		},
		{
			name:      "code after return is not modeled",
			body:      "return 1; a = 2;",
			wantNodes: []string{"terminal:return 1"},
			wantEdges: []string{},
		},
		{
			name:      "nested block and empty statement",
			body:      "{ a = 1; ; } b = 2;",
			wantNodes: []string{"process:a = 1", "process:b = 2"},
			wantEdges: []string{"process:a = 1 -unconditional-> process:b = 2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildBody(t, tt.body)

			if diff := cmp.Diff(tt.wantNodes, statementNodes(g)); diff != "" {
				t.Errorf("nodes mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantEdges, describeEdges(g)); diff != "" {
				t.Errorf("edges mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuild_ShortIfMergeInDegree(t *testing.T) {
	g := buildBody(t, "if (x) { return 1; } y = 2;")

	merges := g.NodesOf(CategoryMerge)
	require.Len(t, merges, 1)
	assert.Equal(t, 1, g.InDegree(merges[0].ID))

	for _, term := range g.NodesOf(CategoryTerminal) {
		assert.Zero(t, g.OutDegree(term.ID))
	}
}

func TestBuild_EntryNode(t *testing.T) {
	src := `class Calculator {
    public static int add(int a, int b) throws Exception {
        return a + b;
    }
}`
	res, err := FromSource(context.Background(), []byte(src))
	require.NoError(t, err)
	require.Len(t, res.Methods, 1)

	m := res.Methods[0]
	assert.Equal(t, "add", m.Name)
	require.NoError(t, m.Err)

	entry := m.Graph.EntryNode()
	require.NotNil(t, entry)
	assert.Equal(t, CategoryEntry, entry.Category)
	assert.Equal(t, "public static int add(int a, int b) throws Exception", entry.Label)
	assert.Zero(t, m.Graph.InDegree(entry.ID))
	assert.Equal(t, []int{entry.ID + 1}, m.Graph.Successors(entry.ID))
}

func TestBuild_MethodsAndConstructors(t *testing.T) {
	src := `abstract class Shape {
    private int sides;

    Shape(int sides) {
        super();
        this.sides = sides;
    }

    abstract double area();

    int sides() {
        return sides;
    }

    static class Square extends Shape {
        Square() { super(4); }
        double area() { return 1.0; }
    }
}

interface Named {
    String name();
    default String greeting() { return "hi " + name(); }
}`
	res, err := FromSource(context.Background(), []byte(src))
	require.NoError(t, err)
	require.NoError(t, res.Err())

	var names []string
	for _, m := range res.Methods {
		names = append(names, m.Name)
		require.NoError(t, Verify(m.Graph), m.Name)
	}
	assert.Equal(t, []string{"Shape", "sides", "Square", "area", "greeting"}, names)

	ctor := res.Methods[0].Graph
	assert.Len(t, ctor.NodesOf(CategoryProcess), 2)
	assert.Len(t, res.Graphs(), 5)
}

func TestBuild_RecordCompactConstructor(t *testing.T) {
	src := `record Point(int x, int y) {
    Point {
        if (x < 0) {
            throwIfNegative(x);
        }
    }

    int sum() { return x + y; }
}`
	res, err := FromSource(context.Background(), []byte(src))
	require.NoError(t, err)
	require.NoError(t, res.Err())
	require.Len(t, res.Methods, 2)

	ctor := res.Methods[0]
	assert.Equal(t, "Point", ctor.Name)
	require.NotNil(t, ctor.Graph)
	assert.Equal(t, "Point", ctor.Graph.EntryNode().Label)
	assert.Equal(t, []string{"decision:x<0", "process:throwIfNegative ( x )", "merge"}, statementNodes(ctor.Graph))
	assert.NoError(t, Verify(ctor.Graph))

	assert.Equal(t, "sum", res.Methods[1].Name)
}

func TestBuild_EmptyMethod(t *testing.T) {
	res, err := FromSource(context.Background(), []byte("class T { void run() {} }"))
	require.NoError(t, err)
	require.Len(t, res.Methods, 1)

	g := res.Methods[0].Graph
	require.Len(t, g.Nodes, 1)
	assert.Empty(t, g.Edges)
	assert.Equal(t, "void run()", g.EntryNode().Label)
	assert.NoError(t, Verify(g))
}

func TestBuild_UnsupportedConstructs(t *testing.T) {
	tests := []struct {
		body      string
		construct string
	}{
		{"while (a > 0) { a--; }", "while"},
		{"do { a--; } while (a > 0);", "do-while"},
		{"for (int v : values) { a += v; }", "enhanced for"},
		{"switch (a) { case 1: a = 2; }", "switch"},
		{"try { a = 1; } catch (Exception e) { a = 2; }", "try"},
		{"for (;;) { break; }", "break"},
		{"for (;;) { continue; }", "continue"},
		{"throw new IllegalStateException();", "throw"},
		{"if (a > 0) { synchronized (this) { a = 1; } }", "synchronized"},
		{"int v = switch (a) { default -> 1; }; return v;", "switch"},
		{"return switch (a) { case 1 -> 2; default -> 3; };", "switch"},
	}

	for _, tt := range tests {
		t.Run(tt.construct, func(t *testing.T) {
			src := "class T {\n    int m() {\n" + tt.body + "\n    }\n    int ok() { return 1; }\n}\n"
			res, err := FromSource(context.Background(), []byte(src))
			require.NoError(t, err)
			require.Len(t, res.Methods, 2)

			failed := res.Methods[0]
			assert.Nil(t, failed.Graph)
			require.Error(t, failed.Err)
			assert.ErrorIs(t, failed.Err, ErrUnsupportedConstruct)
			assert.Contains(t, failed.Err.Error(), "method m")

			var unsupported *UnsupportedError
			require.True(t, errors.As(failed.Err, &unsupported))
			assert.Equal(t, tt.construct, unsupported.Construct)

			ok := res.Methods[1]
			require.NoError(t, ok.Err)
			assert.NotNil(t, ok.Graph)

			assert.ErrorIs(t, res.Err(), ErrUnsupportedConstruct)
		})
	}
}

func TestBuild_SyntaxErrorIsFileWide(t *testing.T) {
	_, err := FromSource(context.Background(), []byte("class T { void f() { if (x { } }"))
	require.Error(t, err)
}

func TestBuild_Determinism(t *testing.T) {
	src := []byte(`class T {
    int f(int a) {
        int s = 0;
        for (int i = 0; i < a; i++) {
            if (i > 2) { s = s + i; } else { s = s - 1; }
        }
        if (s > 10) { return s; }
        return 0;
    }
    void g() { h(); }
}`)

	first, err := FromSource(context.Background(), src)
	require.NoError(t, err)
	second, err := FromSource(context.Background(), src)
	require.NoError(t, err)

	if diff := cmp.Diff(first.Graphs(), second.Graphs(), cmp.AllowUnexported(Graph{})); diff != "" {
		t.Errorf("rebuild differs (-first +second):\n%s", diff)
	}
}

func TestBuild_SharedCounterOffsetsIDs(t *testing.T) {
	src := []byte("class T { void f() { a = 1; b = 2; } }")
	counter := NewCounter()

	first, err := FromSource(context.Background(), src, WithCounter(counter))
	require.NoError(t, err)
	second, err := FromSource(context.Background(), src, WithCounter(counter))
	require.NoError(t, err)

	g1, g2 := first.Graphs()[0], second.Graphs()[0]
	require.Len(t, g2.Nodes, len(g1.Nodes))

	offset := g2.Nodes[0].ID - g1.Nodes[0].ID
	assert.Equal(t, len(g1.Nodes), offset)
	for i := range g1.Nodes {
		assert.Equal(t, g1.Nodes[i].ID+offset, g2.Nodes[i].ID)
		assert.Equal(t, g1.Nodes[i].Label, g2.Nodes[i].Label)
	}

	counter.Reset()
	assert.Equal(t, 0, counter.Next())
}

// findMethod returns the first method declaration named name below n.
func findMethod(n *syntax.Node, name string) *syntax.Node {
	if isMethodDeclaration(n) && methodName(n) == name {
		return n
	}
	for _, child := range n.Children {
		if found := findMethod(child, name); found != nil {
			return found
		}
	}
	return nil
}

func TestSequence_FrontierSize(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"sequential", "a = 1; b = 2;", 1},
		{"if else", "if (a) { b = 1; } else { b = 2; }", 1},
		{"short if", "if (a) { b = 1; }", 1},
		{"all branches return", "if (a) { return 1; } else { return 2; }", 0},
		{"loop", "for (;;) { a = 1; }", 1},
		{"loop returning", "for (;;) { return 1; }", 1},
		{"return", "a = 1; return a;", 0},
		{"empty", "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := Simplify(context.Background(), []byte("class T { int m() { "+tt.body+" } }"))
			require.NoError(t, err)
			decl := findMethod(root, "m")
			require.NotNil(t, decl)

			f := &flow{counter: NewCounter(), graph: newGraph("m")}
			entry := f.newNode(CategoryEntry, "m")
			fr, err := f.sequence(bodyStatements(decl.Children[len(decl.Children)-1]), only(entry, EdgeUnconditional))
			require.NoError(t, err)
			assert.Len(t, fr, tt.want)
			for _, e := range fr {
				assert.False(t, e.node.Terminal)
			}
		})
	}
}

func TestBuild_MalformedTrees(t *testing.T) {
	leaf := func(text string) *syntax.Node { return &syntax.Node{Kind: syntax.KindLeaf, Text: text} }
	rule := func(name string, children ...*syntax.Node) *syntax.Node {
		return &syntax.Node{Kind: syntax.KindRule, Name: name, Children: children}
	}

	b := NewBuilder()

	_, err := b.BuildMethod(rule("class_declaration", leaf("class"), leaf("T")))
	assert.ErrorIs(t, err, ErrMalformedTree)

	_, err = b.BuildMethod(rule("method_declaration", leaf("void"), leaf("f"), rule("formal_parameters", leaf("("), leaf(")")), leaf(";")))
	assert.ErrorIs(t, err, ErrNoBody)

	_, err = b.BuildMethod(rule("method_declaration", leaf("void"), leaf("f"), rule("formal_parameters", leaf("("), leaf(")")), rule("expression", leaf("a"), leaf("b"))))
	assert.ErrorIs(t, err, ErrMalformedTree)

	brokenIf := rule("if_statement", leaf("if"), rule("parenthesized_expression", leaf("("), leaf("x"), leaf(")")))
	body := rule("block", leaf("{"), brokenIf, leaf("}"))
	_, err = b.BuildMethod(rule("method_declaration", leaf("void"), leaf("f"), rule("formal_parameters", leaf("("), leaf(")")), body))
	assert.ErrorIs(t, err, ErrMalformedTree)
	assert.Contains(t, err.Error(), "method f")

	brokenFor := rule("for_statement", leaf("while"), leaf("("), leaf(";"), leaf(")"), leaf(";"))
	f := &flow{counter: NewCounter(), graph: newGraph("f")}
	_, err = f.loop(brokenFor, nil)
	assert.ErrorIs(t, err, ErrMalformedTree)

	_, err = classify(leaf("x"))
	assert.ErrorIs(t, err, ErrMalformedTree)
}
