package tree

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Shopify/visualization-tools/core/pathcodec"
	"github.com/Shopify/visualization-tools/core/table"
	"github.com/Shopify/visualization-tools/internal/errors"
	"github.com/Shopify/visualization-tools/internal/logging"
)

// DefaultRootName is the display name of the root node
const DefaultRootName = "Total"

// Options configures Build
type Options struct {
	// Levels are the categorical columns forming the path, outermost first.
	// Empty means every string column of the table.
	Levels []string

	// Metrics are the numeric columns to aggregate.
	// Empty means every numeric column of the table.
	Metrics []string

	// Codec encodes level values into paths. Empty fields take the
	// pathcodec defaults.
	Codec pathcodec.Codec

	// RootName is the display name of the root. Empty means DefaultRootName.
	RootName string

	// Calculations are attached to the tree once it is built
	Calculations *Calculations

	// Logger receives build logs. Nil means the global logger.
	Logger *zap.Logger
}

// Build groups rows by the full level tuple, summing metrics, and builds the
// tree of every distinct path prefix with each node's metrics set to the sum
// over the groups below it. Any structural error aborts the build; no partial
// tree is returned.
func Build(rows *table.Table, opts Options) (*Tree, error) {
	logger := logging.Or(opts.Logger)

	levels := opts.Levels
	if len(levels) == 0 {
		levels = rows.StringColumns()
	}
	metrics := opts.Metrics
	if len(metrics) == 0 {
		metrics = rows.NumberColumns()
	}
	for _, m := range metrics {
		if _, ok := rows.Column(m); !ok {
			return nil, errors.MetricNotFound(m)
		}
	}

	src, warnings, err := rows.AsStrings("levels", levels...)
	if err != nil {
		return nil, err
	}
	grouped, err := src.GroupSum(levels, metrics)
	if err != nil {
		return nil, err
	}

	t := &Tree{
		ID:        uuid.New(),
		codec:     opts.Codec.WithDefaults(),
		levels:    append([]string(nil), levels...),
		metrics:   append([]string(nil), metrics...),
		index:     make(map[string]*Node),
		populated: make(map[string]struct{}),
		calcs:     NewCalculations(),
		warnings:  warnings,
		logger:    logger.With(zap.String("component", "tree")),
	}
	if err := t.codec.Validate(); err != nil {
		return nil, err
	}
	rootName := opts.RootName
	if rootName == "" {
		rootName = DefaultRootName
	}
	logging.Warnings(t.logger, warnings)

	seeds := make(map[string]map[string]decimal.Decimal, len(grouped.Groups))
	leafPaths := make([]string, 0, len(grouped.Groups))
	for _, g := range grouped.Groups {
		path, err := t.codec.Encode(g.Keys)
		if err != nil {
			return nil, err
		}
		if _, dup := seeds[path]; dup {
			return nil, errors.DuplicateNode(path)
		}
		seeds[path] = g.Sums
		leafPaths = append(leafPaths, path)
		t.populated[path] = struct{}{}
	}

	if err := t.link(t.codec.DistinctAncestors(leafPaths), rootName); err != nil {
		return nil, err
	}
	if err := rollup(t.nodes, seeds, metrics); err != nil {
		return nil, err
	}
	t.Attach(opts.Calculations)

	t.logger.Debug("tree built",
		zap.Stringer("build_id", t.ID),
		zap.Int("rows", rows.Len()),
		zap.Int("groups", len(grouped.Groups)),
		zap.Int("nodes", len(t.nodes)),
		zap.Strings("levels", levels),
		zap.Strings("metrics", metrics),
	)
	return t, nil
}

// link creates the root and then every path in depth order under its
// already-created parent.
func (t *Tree) link(paths []string, rootName string) error {
	rootPath := t.codec.RootPath()
	t.root = t.newNode(rootPath, rootName, nil)

	for _, path := range paths {
		if path == rootPath {
			continue
		}
		if _, exists := t.index[path]; exists {
			return errors.DuplicateNode(path)
		}
		parentPath, ok := t.codec.Parent(path)
		if !ok {
			return errors.NodeNotFound(path)
		}
		parent, ok := t.index[parentPath]
		if !ok {
			return errors.NodeNotFound(parentPath).WithContext("child", path)
		}
		child := t.newNode(path, t.codec.Name(path), parent)
		parent.children = append(parent.children, child)
	}
	return nil
}

func (t *Tree) newNode(path, name string, parent *Node) *Node {
	n := &Node{
		path:   path,
		name:   name,
		parent: parent,
		tree:   t,
	}
	if parent != nil {
		n.depth = parent.depth + 1
	}
	t.index[path] = n
	t.nodes = append(t.nodes, n)
	return n
}
