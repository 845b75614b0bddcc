package render

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/l3aro/go-java-cfg/pkg/cfg"
)

// Text prints a graph in human-readable form: its nodes in creation order
// followed by its edges in insertion order.
func Text(w io.Writer, g *cfg.Graph) error {
	fmt.Fprintf(w, "=== CFG for method: %s ===\n", g.Method)
	if entry := g.EntryNode(); entry != nil {
		fmt.Fprintf(w, "Entry: %d (%s)\n", entry.ID, entry.Label)
	}

	fmt.Fprintf(w, "\nNodes (%d):\n", len(g.Nodes))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, n := range g.Nodes {
		fmt.Fprintf(tw, "  %d\t%s\t%s\n", n.ID, n.Category, n.Label)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nEdges (%d):\n", len(g.Edges))
	for _, e := range g.Edges {
		fmt.Fprintf(w, "  %d --%s--> %d\n", e.From, e.Kind, e.To)
	}
	_, err := fmt.Fprintln(w)
	return err
}

func textFile(w io.Writer, path string, res *cfg.FileResult) error {
	fmt.Fprintf(w, "# %s (%d methods)\n\n", path, len(res.Methods))
	for _, m := range res.Methods {
		if m.Err != nil {
			fmt.Fprintf(w, "=== CFG for method: %s ===\nError: %v\n\n", m.Name, m.Err)
			continue
		}
		if err := Text(w, m.Graph); err != nil {
			return err
		}
	}
	return nil
}
