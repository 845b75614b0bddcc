// Package render writes method control flow graphs as Graphviz DOT, JSON or
// human-readable text.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/l3aro/go-java-cfg/pkg/cfg"
)

// Format is an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatDOT  Format = "dot"
)

// Formats lists the supported formats.
var Formats = []Format{FormatText, FormatJSON, FormatDOT}

// ParseFormat returns the format named s, ignoring case.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (use text, json or dot)", s)
}

// Extension returns the file extension used for f, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatDOT:
		return "dot"
	default:
		return "txt"
	}
}

// WriteGraph writes a single method graph in the given format.
func WriteGraph(w io.Writer, f Format, g *cfg.Graph) error {
	switch f {
	case FormatDOT:
		data, err := DOT(g)
		if err != nil {
			return err
		}
		_, err = w.Write(append(data, '\n'))
		return err
	case FormatJSON:
		return writeJSON(w, g)
	case FormatText:
		return Text(w, g)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

// WriteFile writes every method of a source file. Failed methods are
// reported inline in text and JSON output and skipped in DOT output.
func WriteFile(w io.Writer, f Format, path string, res *cfg.FileResult) error {
	switch f {
	case FormatDOT:
		for _, g := range res.Graphs() {
			if err := WriteGraph(w, f, g); err != nil {
				return fmt.Errorf("rendering %s: %w", g.Method, err)
			}
		}
		return nil
	case FormatJSON:
		return writeJSON(w, newFileDocument(path, res))
	case FormatText:
		return textFile(w, path, res)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}
