package cfg

import "github.com/l3aro/go-java-cfg/pkg/syntax"

// stmtKind is the closed set of statement shapes the builder understands.
type stmtKind int

const (
	stmtEmpty stmtKind = iota
	stmtBlock
	stmtProcess
	stmtReturn
	stmtConditional
	stmtLoop
)

// statementKinds maps Java grammar rules to statement kinds.
var statementKinds = map[string]stmtKind{
	"expression_statement":            stmtProcess,
	"local_variable_declaration":      stmtProcess,
	"assert_statement":                stmtProcess,
	"explicit_constructor_invocation": stmtProcess,
	"block":                           stmtBlock,
	"return_statement":                stmtReturn,
	"if_statement":                    stmtConditional,
	"for_statement":                   stmtLoop,
}

// unsupportedStatements names the rejected control constructs.
var unsupportedStatements = map[string]string{
	"while_statement":              "while",
	"do_statement":                 "do-while",
	"enhanced_for_statement":       "enhanced for",
	"switch_expression":            "switch",
	"switch_statement":             "switch",
	"try_statement":                "try",
	"try_with_resources_statement": "try-with-resources",
	"break_statement":              "break",
	"continue_statement":           "continue",
	"throw_statement":              "throw",
	"yield_statement":              "yield",
	"synchronized_statement":       "synchronized",
	"labeled_statement":            "labeled statement",
	"class_declaration":            "local class",
	"record_declaration":           "local record",
	"interface_declaration":        "local interface",
	"enum_declaration":             "local enum",
}

func classify(stmt *syntax.Node) (stmtKind, error) {
	if stmt.Kind == syntax.KindLeaf {
		if stmt.Text == ";" {
			return stmtEmpty, nil
		}
		return 0, malformed("unexpected %s in statement position", describe(stmt))
	}

	if kind, ok := statementKinds[stmt.Name]; ok {
		if kind != stmtBlock && containsRule(stmt, "switch_expression") {
			return 0, &UnsupportedError{Construct: "switch"}
		}
		return kind, nil
	}
	if construct, ok := unsupportedStatements[stmt.Name]; ok {
		return 0, &UnsupportedError{Construct: construct}
	}
	return 0, &UnsupportedError{Construct: stmt.Name}
}

// containsRule reports whether a rule named name occurs below n. Nested
// blocks are left to their own classification.
func containsRule(n *syntax.Node, name string) bool {
	for _, child := range n.Children {
		if child.Kind != syntax.KindRule || child.IsRule("block") {
			continue
		}
		if child.Name == name || containsRule(child, name) {
			return true
		}
	}
	return false
}
