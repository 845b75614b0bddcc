package cfg

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/l3aro/go-java-cfg/pkg/syntax"
)

// statementLabel joins the tokens of a statement with spaces, dropping semicolons.
func statementLabel(n *syntax.Node) string {
	tokens := n.Tokens()
	kept := tokens[:0:0]
	for _, tok := range tokens {
		if tok != ";" {
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, " ")
}

// conditionLabel renders a parenthesized condition without its parentheses.
func conditionLabel(n *syntax.Node) string {
	tokens := n.Tokens()
	if len(tokens) >= 2 && tokens[0] == "(" && tokens[len(tokens)-1] == ")" {
		tokens = tokens[1 : len(tokens)-1]
	}
	return compactJoin(tokens)
}

// loopLabel renders the init, condition and update clauses of a for header
// separated by "; ".
func loopLabel(header []*syntax.Node) string {
	var clauses []string
	var clause []string
	for _, part := range header {
		for _, tok := range part.Tokens() {
			if tok == ";" {
				clauses = append(clauses, compactJoin(clause))
				clause = nil
				continue
			}
			clause = append(clause, tok)
		}
	}
	clauses = append(clauses, compactJoin(clause))
	return strings.TrimSpace(strings.Join(clauses, "; "))
}

// headerLabel renders a method header: modifiers, type, name, parameters and
// throws clause.
func headerLabel(parts []*syntax.Node) string {
	var sb strings.Builder
	for i, part := range parts {
		if i > 0 && !part.IsRule("formal_parameters") {
			sb.WriteByte(' ')
		}
		sb.WriteString(compactJoin(part.Tokens()))
	}
	return sb.String()
}

// compactJoin concatenates tokens, keeping a space only where dropping it
// would fuse two words or hurt readability after a comma or closing paren.
func compactJoin(tokens []string) string {
	var sb strings.Builder
	prev := ""
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if prev != "" && needsSpace(prev, tok) {
			sb.WriteByte(' ')
		}
		sb.WriteString(tok)
		prev = tok
	}
	return sb.String()
}

func needsSpace(prev, next string) bool {
	last, _ := utf8.DecodeLastRuneInString(prev)
	first, _ := utf8.DecodeRuneInString(next)
	switch {
	case prev == ",":
		return true
	case isWordRune(last) && isWordRune(first):
		return true
	case last == ')' && isWordRune(first):
		return true
	case (last == '+' || last == '-') && first == last:
		// a - -b must not become a--b
		return true
	}
	return false
}

func isWordRune(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
