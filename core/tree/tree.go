// Package tree builds hierarchical rollups: a tree whose nodes are every distinct
// prefix of a categorical path, each carrying the sum of its descendants'
// metrics, with lazily evaluated calculated metrics.
//
// Tree (root + descendants) → Node (one path prefix) → metrics (decimal sums).
// A tree is built once from a table and never mutated afterwards; changing the
// input or the requested metrics means building a new tree.
package tree

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Shopify/visualization-tools/core/pathcodec"
	"github.com/Shopify/visualization-tools/internal/errors"
)

// Tree is the root node plus all of its descendants
type Tree struct {
	// ID identifies this build in logs
	ID uuid.UUID

	root    *Node
	codec   pathcodec.Codec
	levels  []string
	metrics []string

	// nodes is the construction order: every parent precedes its children
	nodes []*Node
	index map[string]*Node

	// populated holds the paths seeded directly from grouped rows
	populated map[string]struct{}

	calcs    *Calculations
	warnings []errors.Warning
	logger   *zap.Logger
}

// Root returns the root node
func (t *Tree) Root() *Node { return t.root }

// Codec returns the path codec the tree was built with
func (t *Tree) Codec() pathcodec.Codec { return t.codec }

// Levels returns the level columns, outermost first
func (t *Tree) Levels() []string { return append([]string(nil), t.levels...) }

// Metrics returns the aggregated metric names, in request order
func (t *Tree) Metrics() []string { return append([]string(nil), t.metrics...) }

// Calculations returns the attached calculation names, in registration order
func (t *Tree) Calculations() []string { return t.calcs.Names() }

// Warnings returns the non-fatal conditions met while building
func (t *Tree) Warnings() []errors.Warning { return append([]errors.Warning(nil), t.warnings...) }

// Len returns the number of nodes
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the node with the given path
func (t *Tree) Node(path string) (*Node, bool) {
	n, ok := t.index[path]
	return n, ok
}

// Nodes returns every node in construction order (parents before children).
func (t *Tree) Nodes() []*Node { return append([]*Node(nil), t.nodes...) }

// Populated reports whether path was seeded directly from an input group.
func (t *Tree) Populated(path string) bool {
	_, ok := t.populated[path]
	return ok
}

// Walk visits nodes depth-first, parents before children, children in order.
// A non-nil error from fn stops the walk.
func (t *Tree) Walk(fn func(n *Node) error) error {
	var visit func(n *Node) error
	visit = func(n *Node) error {
		if err := fn(n); err != nil {
			return err
		}
		for _, c := range n.children {
			if err := visit(c); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(t.root)
}

// Attach propagates calculations to every node of the tree. Names already
// attached are overwritten; later registrations on c are not seen until c is
// attached again.
func (t *Tree) Attach(c *Calculations) {
	if c == nil {
		return
	}
	for _, name := range c.Names() {
		if _, shadowed := t.root.metrics[name]; shadowed {
			w := errors.Warning{
				Type:    errors.WarnShadowed,
				Message: "calculation " + name + " is hidden by the metric of the same name",
			}
			t.warnings = append(t.warnings, w)
			t.logger.Warn(w.Message, zap.String("warning", string(w.Type)), zap.Stringer("build_id", t.ID))
		}
	}
	t.calcs.merge(c)
}
