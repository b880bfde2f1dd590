package tree

import (
	"github.com/shopspring/decimal"

	"github.com/Shopify/visualization-tools/core/pathcodec"
	"github.com/Shopify/visualization-tools/internal/errors"
)

// rollup sets every node's metrics bottom-up. nodes is in construction order,
// so walking it backwards reaches every child before its parent. A node's
// value is its own seeded group (if any) plus the sum of its children.
func rollup(nodes []*Node, seeds map[string]map[string]decimal.Decimal, metrics []string) error {
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		seed, populated := seeds[n.path]
		sums := make(map[string]decimal.Decimal, len(metrics))
		for _, m := range metrics {
			v := decimal.Zero
			if populated {
				s, ok := seed[m]
				if !ok {
					return errors.MetricNotFound(m).WithContext("path", n.path)
				}
				v = s
			}
			for _, c := range n.children {
				v = v.Add(c.metrics[m])
			}
			sums[m] = v
		}
		n.metrics = sums
	}
	return nil
}

// rollupCrossJoin is the reference O(nodes × groups) aggregation: every node
// sums every seeded group whose path it prefixes. It must agree exactly with
// rollup and is kept to check that.
func rollupCrossJoin(codec pathcodec.Codec, nodes []*Node, seeds map[string]map[string]decimal.Decimal, metrics []string) (map[string]map[string]decimal.Decimal, error) {
	out := make(map[string]map[string]decimal.Decimal, len(nodes))
	for _, n := range nodes {
		sums := make(map[string]decimal.Decimal, len(metrics))
		for _, m := range metrics {
			sums[m] = decimal.Zero
		}
		for path, seed := range seeds {
			if !codec.IsPrefix(n.path, path) {
				continue
			}
			for _, m := range metrics {
				s, ok := seed[m]
				if !ok {
					return nil, errors.MetricNotFound(m).WithContext("path", path)
				}
				sums[m] = sums[m].Add(s)
			}
		}
		out[n.path] = sums
	}
	return out, nil
}

// CheckInvariants verifies path uniqueness, depth ordering and that every
// internal node's metrics equal the sum over its children.
func (t *Tree) CheckInvariants() error {
	if len(t.index) != len(t.nodes) {
		return errors.Newf(errors.TypeDuplicateNode, "%d nodes share %d paths", len(t.nodes), len(t.index))
	}
	constructed := make(map[*Node]struct{}, len(t.nodes))
	for _, n := range t.nodes {
		if n.parent != nil {
			if _, ok := constructed[n.parent]; !ok {
				return errors.Newf(errors.TypeInternal, "node %s constructed before its parent", n.path)
			}
		}
		constructed[n] = struct{}{}
	}
	for _, n := range t.nodes {
		if n.IsLeaf() || t.Populated(n.path) {
			continue
		}
		for _, m := range t.metrics {
			sum := decimal.Zero
			for _, c := range n.children {
				sum = sum.Add(c.metrics[m])
			}
			if !sum.Equal(n.metrics[m]) {
				return errors.Newf(errors.TypeInternal, "node %s metric %s = %s, children sum to %s", n.path, m, n.metrics[m], sum)
			}
		}
	}
	return nil
}
