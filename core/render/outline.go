package render

import (
	"io"
	"strings"

	"github.com/Shopify/visualization-tools/core/format"
	"github.com/Shopify/visualization-tools/core/tree"
	"github.com/Shopify/visualization-tools/core/ui"
)

// Outline renders one table row per node in pre-order, names indented by
// depth, one column per spec entry plus the edge proportion when set.
type Outline struct {
	// Indent is repeated once per depth level, two spaces when empty
	Indent string
}

// Format returns FormatOutline
func (Outline) Format() Format { return FormatOutline }

// Render writes the outline table
func (o Outline) Render(w io.Writer, t *tree.Tree, l *Labeler) error {
	indent := o.Indent
	if indent == "" {
		indent = "  "
	}

	entries := l.Spec.Entries()
	headers := []string{"node"}
	for _, e := range entries {
		headers = append(headers, format.HumanName(e.Name))
	}
	if l.ProportionMetric != "" {
		headers = append(headers, "% of parent")
	}

	table := ui.NewWriter(w).NewTable(headers...)
	err := t.Walk(func(n *tree.Node) error {
		row := []string{strings.Repeat(indent, n.Depth()) + n.Name()}
		for _, e := range entries {
			lookup := n.Lookup(e.Name)
			if lookup.Kind == tree.NotFound {
				row = append(row, "")
				continue
			}
			v, err := lookup.Resolve()
			if err != nil {
				return err
			}
			s, err := e.Format(v)
			if err != nil {
				return err
			}
			row = append(row, s)
		}
		if l.ProportionMetric != "" {
			share := ""
			if p := n.Parent(); p != nil {
				var err error
				if share, err = l.Proportion(p, n); err != nil {
					return err
				}
			}
			row = append(row, share)
		}
		table.AddRow(row...)
		return nil
	})
	if err != nil {
		return err
	}
	table.Render()
	return nil
}
