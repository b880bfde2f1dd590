package tree

import (
	"github.com/shopspring/decimal"
)

// Node is one distinct path prefix in the rollup tree.
// Structure and metrics are fixed once Build returns.
type Node struct {
	path     string
	name     string
	depth    int
	parent   *Node
	children []*Node
	metrics  map[string]decimal.Decimal

	// tree is a non-owning back-reference used to resolve calculations
	tree *Tree
}

// Path returns the unique path of the node
func (n *Node) Path() string { return n.path }

// Name returns the display name: the last path segment, or the root name
func (n *Node) Name() string { return n.name }

// Depth returns the number of levels below the root
func (n *Node) Depth() int { return n.depth }

// Parent returns the parent node, nil for the root
func (n *Node) Parent() *Node { return n.parent }

// Children returns the child nodes in first-discovery order
func (n *Node) Children() []*Node { return append([]*Node(nil), n.children...) }

// IsRoot reports whether n is the root
func (n *Node) IsRoot() bool { return n.parent == nil }

// IsLeaf reports whether n has no children
func (n *Node) IsLeaf() bool { return len(n.children) == 0 }

// Tree returns the tree owning n
func (n *Node) Tree() *Tree { return n.tree }

// Root returns the root of the tree owning n
func (n *Node) Root() *Node { return n.tree.root }

// Segments returns the level values of the node, without the root token
func (n *Node) Segments() []string {
	if n.IsRoot() {
		return nil
	}
	return n.tree.codec.Decode(n.path)
}

// Metric returns a raw aggregated metric
func (n *Node) Metric(name string) (decimal.Decimal, bool) {
	v, ok := n.metrics[name]
	return v, ok
}

// Metrics returns a copy of the raw aggregated metrics
func (n *Node) Metrics() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(n.metrics))
	for k, v := range n.metrics {
		out[k] = v
	}
	return out
}

// Value resolves name to a raw metric or a calculated metric.
// Calculations are evaluated on every call.
func (n *Node) Value(name string) (decimal.Decimal, error) {
	return n.Lookup(name).Resolve()
}

// Float is Value converted to float64 for display and plotting.
func (n *Node) Float(name string) (float64, error) {
	v, err := n.Value(name)
	if err != nil {
		return 0, err
	}
	return v.InexactFloat64(), nil
}
