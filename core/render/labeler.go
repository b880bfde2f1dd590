// Package render - Node and edge attribute strings for tree renderers
// A Labeler turns nodes into labels per a format.Spec; formatters turn a
// whole tree into DOT, an outline table, or JSON.
package render

import (
	"strings"

	"github.com/Shopify/visualization-tools/core/format"
	"github.com/Shopify/visualization-tools/core/tree"
)

// LabelSeparator sits between a node's name and its metric lines
const LabelSeparator = "-----------"

// DefaultEdgeDigits is the precision of edge proportion labels
const DefaultEdgeDigits = 2

// Labeler builds per-node and per-edge attribute strings
type Labeler struct {
	// Spec lists the metrics and calculations shown on each node, in order
	Spec *format.Spec

	// ProportionMetric, when set, labels each edge with child/parent
	ProportionMetric string

	// EdgeDigits is the percent precision of edge labels
	EdgeDigits int

	// NodeLabel replaces the default label text
	NodeLabel func(n *tree.Node) (string, error)

	// NodeShape returns a shape attribute, e.g. "shape=box"
	NodeShape func(n *tree.Node) string
}

// NewLabeler returns a labeler for t. A nil spec is inferred from the root.
func NewLabeler(t *tree.Tree, spec *format.Spec) (*Labeler, error) {
	if spec == nil {
		inferred, err := format.Infer(t)
		if err != nil {
			return nil, err
		}
		spec = inferred
	}
	return &Labeler{Spec: spec, EdgeDigits: DefaultEdgeDigits}, nil
}

// Label returns the node's name, the separator line and one
// "<human name>: <value>" line per spec entry the node knows.
func (l *Labeler) Label(n *tree.Node) (string, error) {
	if l.NodeLabel != nil {
		return l.NodeLabel(n)
	}
	lines, err := l.MetricLines(n)
	if err != nil {
		return "", err
	}
	return n.Name() + "\n" + LabelSeparator + "\n" + strings.Join(lines, "\n"), nil
}

// MetricLines formats every spec entry that is a metric or calculation of n.
// Entries naming neither are skipped.
func (l *Labeler) MetricLines(n *tree.Node) ([]string, error) {
	var lines []string
	for _, e := range l.Spec.Entries() {
		lookup := n.Lookup(e.Name)
		if lookup.Kind == tree.NotFound {
			continue
		}
		v, err := lookup.Resolve()
		if err != nil {
			return nil, err
		}
		s, err := e.Format(v)
		if err != nil {
			return nil, err
		}
		lines = append(lines, format.HumanName(e.Name)+": "+s)
	}
	return lines, nil
}

// NodeAttributes joins the shape and the quoted label
func (l *Labeler) NodeAttributes(n *tree.Node) (string, error) {
	label, err := l.Label(n)
	if err != nil {
		return "", err
	}
	shape := ""
	if l.NodeShape != nil {
		shape = l.NodeShape(n)
	}
	return shape + " " + `label="` + Escape(label) + `"`, nil
}

// EdgeAttributes labels the edge with the child's proportion of its parent.
// It is empty when no proportion metric is set.
func (l *Labeler) EdgeAttributes(parent, child *tree.Node) (string, error) {
	if l.ProportionMetric == "" {
		return "", nil
	}
	s, err := l.Proportion(parent, child)
	if err != nil {
		return "", err
	}
	return `label="` + s + `"`, nil
}

// Proportion formats child/parent of the proportion metric as a percentage.
// A zero parent value is an error.
func (l *Labeler) Proportion(parent, child *tree.Node) (string, error) {
	num, err := child.Value(l.ProportionMetric)
	if err != nil {
		return "", err
	}
	den, err := parent.Value(l.ProportionMetric)
	if err != nil {
		return "", err
	}
	ratio, err := tree.Div(num, den, child.Path()+"."+l.ProportionMetric, parent.Path()+"."+l.ProportionMetric)
	if err != nil {
		return "", err
	}
	return format.Value(ratio, format.KindPercent, l.EdgeDigits)
}

var escaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// Escape makes s safe inside a double-quoted DOT string
func Escape(s string) string {
	return escaper.Replace(s)
}
