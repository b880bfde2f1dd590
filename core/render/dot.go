package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/Shopify/visualization-tools/core/tree"
)

// DOT renders a tree as a Graphviz digraph: every node statement in
// pre-order, then every edge. Node ids are the quoted paths.
type DOT struct {
	// Name is the graph name, "tree" when empty
	Name string
}

// Format returns FormatDOT
func (DOT) Format() Format { return FormatDOT }

// Render writes the DOT program. Nothing is written when a label fails.
func (d DOT) Render(w io.Writer, t *tree.Tree, l *Labeler) error {
	name := d.Name
	if name == "" {
		name = "tree"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %s {\n", name)

	err := t.Walk(func(n *tree.Node) error {
		attrs, err := l.NodeAttributes(n)
		if err != nil {
			return err
		}
		writeStatement(&buf, quote(n.Path()), attrs)
		return nil
	})
	if err != nil {
		return err
	}

	err = t.Walk(func(n *tree.Node) error {
		for _, c := range n.Children() {
			attrs, err := l.EdgeAttributes(n, c)
			if err != nil {
				return err
			}
			writeStatement(&buf, quote(n.Path())+" -> "+quote(c.Path()), attrs)
		}
		return nil
	})
	if err != nil {
		return err
	}

	buf.WriteString("}\n")
	_, err = w.Write(buf.Bytes())
	return err
}

func writeStatement(buf *bytes.Buffer, stmt, attrs string) {
	buf.WriteString("    ")
	buf.WriteString(stmt)
	if attrs = strings.TrimSpace(attrs); attrs != "" {
		buf.WriteString(" [")
		buf.WriteString(attrs)
		buf.WriteString("]")
	}
	buf.WriteString(";\n")
}

func quote(id string) string {
	return `"` + Escape(id) + `"`
}
