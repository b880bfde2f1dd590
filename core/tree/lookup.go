package tree

import (
	"github.com/shopspring/decimal"

	"github.com/Shopify/visualization-tools/internal/errors"
)

// LookupKind tags the result of a name lookup on a node
type LookupKind int

const (
	// NotFound means the name is neither a metric nor a calculation
	NotFound LookupKind = iota
	// RawMetric means the name is an aggregated metric
	RawMetric
	// Calculated means the name is a registered calculation
	Calculated
)

// String returns the kind name
func (k LookupKind) String() string {
	switch k {
	case RawMetric:
		return "metric"
	case Calculated:
		return "calculation"
	default:
		return "not-found"
	}
}

// Lookup is the tagged result of resolving a name on a node. Calculated
// lookups are not evaluated until Resolve is called.
type Lookup struct {
	Kind        LookupKind
	Name        string
	Metric      decimal.Decimal
	Calculation Calculation

	node *Node
}

// Lookup resolves name in order: declared metric, then calculation.
func (n *Node) Lookup(name string) Lookup {
	if v, ok := n.metrics[name]; ok {
		return Lookup{Kind: RawMetric, Name: name, Metric: v, node: n}
	}
	if fn, ok := n.tree.calcs.Get(name); ok {
		return Lookup{Kind: Calculated, Name: name, Calculation: fn, node: n}
	}
	return Lookup{Kind: NotFound, Name: name, node: n}
}

// Resolve returns the value of the lookup, evaluating calculations.
func (l Lookup) Resolve() (decimal.Decimal, error) {
	switch l.Kind {
	case RawMetric:
		return l.Metric, nil
	case Calculated:
		v, err := l.Calculation(l.node)
		if err != nil {
			if errors.TypeOf(err) != "" {
				return decimal.Zero, err
			}
			return decimal.Zero, errors.Wrap(errors.TypeInternal, "calculation "+l.Name+" on "+l.node.path, err)
		}
		return v, nil
	default:
		return decimal.Zero, errors.AttributeNotFound(l.Name, l.node.path)
	}
}
