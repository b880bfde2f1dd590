package render

import (
	"encoding/json"
	"io"

	"github.com/Shopify/visualization-tools/core/tree"
)

// JSON renders the tree as a flat node list in pre-order
type JSON struct {
	Indent string
}

// Document is the JSON output
type Document struct {
	ID           string         `json:"id"`
	Levels       []string       `json:"levels"`
	Metrics      []string       `json:"metrics"`
	Calculations []string       `json:"calculations,omitempty"`
	Nodes        []DocumentNode `json:"nodes"`
}

// DocumentNode is one node of the JSON output. Values are exact decimal strings.
type DocumentNode struct {
	Path         string            `json:"path"`
	Name         string            `json:"name"`
	Depth        int               `json:"depth"`
	Parent       string            `json:"parent,omitempty"`
	Metrics      map[string]string `json:"metrics"`
	Calculations map[string]string `json:"calculations,omitempty"`
	Label        string            `json:"label"`
	Proportion   string            `json:"proportion,omitempty"`
}

// Format returns FormatJSON
func (JSON) Format() Format { return FormatJSON }

// Render writes the document
func (j JSON) Render(w io.Writer, t *tree.Tree, l *Labeler) error {
	doc, err := NewDocument(t, l)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", j.Indent)
	return enc.Encode(doc)
}

// NewDocument evaluates every metric, calculation and label of t
func NewDocument(t *tree.Tree, l *Labeler) (*Document, error) {
	doc := &Document{
		ID:           t.ID.String(),
		Levels:       t.Levels(),
		Metrics:      t.Metrics(),
		Calculations: t.Calculations(),
	}
	err := t.Walk(func(n *tree.Node) error {
		dn := DocumentNode{
			Path:    n.Path(),
			Name:    n.Name(),
			Depth:   n.Depth(),
			Metrics: make(map[string]string, len(doc.Metrics)),
		}
		for name, v := range n.Metrics() {
			dn.Metrics[name] = v.String()
		}
		if len(doc.Calculations) > 0 {
			dn.Calculations = make(map[string]string, len(doc.Calculations))
			for _, name := range doc.Calculations {
				v, err := n.Value(name)
				if err != nil {
					return err
				}
				dn.Calculations[name] = v.String()
			}
		}
		label, err := l.Label(n)
		if err != nil {
			return err
		}
		dn.Label = label
		if p := n.Parent(); p != nil {
			dn.Parent = p.Path()
			if l.ProportionMetric != "" {
				if dn.Proportion, err = l.Proportion(p, n); err != nil {
					return err
				}
			}
		}
		doc.Nodes = append(doc.Nodes, dn)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}
