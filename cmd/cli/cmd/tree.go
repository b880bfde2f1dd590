// Package cmd - tree command
package cmd

import (
	"bytes"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Shopify/visualization-tools/adapters/input"
	"github.com/Shopify/visualization-tools/adapters/treespec"
	"github.com/Shopify/visualization-tools/core/calc"
	"github.com/Shopify/visualization-tools/core/format"
	"github.com/Shopify/visualization-tools/core/pathcodec"
	"github.com/Shopify/visualization-tools/core/render"
	"github.com/Shopify/visualization-tools/core/table"
	"github.com/Shopify/visualization-tools/core/tree"
	"github.com/Shopify/visualization-tools/core/ui"
	"github.com/Shopify/visualization-tools/internal/config"
	"github.com/Shopify/visualization-tools/internal/errors"
	"github.com/Shopify/visualization-tools/internal/logging"
)

var (
	treeSpecFile    string
	treeLevels      []string
	treeMetrics     []string
	treeCalcs       []string
	treeProportion  string
	treeFormat      string
	treeOutput      string
	treeSheet       string
	treeShowSummary bool
)

// treeCmd represents the tree command
var treeCmd = &cobra.Command{
	Use:   "tree <input>",
	Short: "Build a labelled aggregation tree from a CSV, TSV or XLSX file",
	Long: `Group the input by the level columns, roll the metrics up to every
prefix and render the result.

Without --levels every text column is a level; without --metrics every
numeric column is a metric. A spec file (HCL) can declare levels, metrics,
calculations and display formats in one place; flags override it.

Examples:
  vizt tree funnel.csv --levels channel,step --metrics sessions,orders
  vizt tree funnel.csv --calc "conversion=orders / sessions" --proportion sessions
  vizt tree funnel.xlsx --sheet march --spec funnel.hcl --format json -o tree.json`,
	Args: cobra.ExactArgs(1),
	RunE: runTree,
}

func init() {
	treeCmd.Flags().StringVarP(&treeSpecFile, "spec", "s", "", "HCL file with levels, metrics, calculations and formats")
	treeCmd.Flags().StringSliceVarP(&treeLevels, "levels", "l", nil, "level columns, outermost first")
	treeCmd.Flags().StringSliceVarP(&treeMetrics, "metrics", "m", nil, "metric columns to aggregate")
	treeCmd.Flags().StringArrayVarP(&treeCalcs, "calc", "c", nil, "calculated metric as name=expression (repeatable)")
	treeCmd.Flags().StringVarP(&treeProportion, "proportion", "p", "", "metric whose child/parent share labels each edge")
	treeCmd.Flags().StringVarP(&treeFormat, "format", "f", "", "output format (dot, outline, json)")
	treeCmd.Flags().StringVarP(&treeOutput, "output", "o", "", "write to a file instead of stdout")
	treeCmd.Flags().StringVar(&treeSheet, "sheet", "", "XLSX sheet to read (default is the first)")
	treeCmd.Flags().BoolVar(&treeShowSummary, "summary", false, "print a summary of the tree to stderr")
}

func runTree(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	logger := logging.Or(nil).With(zap.String("command", "tree"))

	rows, err := loadTable(cmd, args[0], treeSheet, logger)
	if err != nil {
		return err
	}

	opts, spec, proportion, err := treeSettings(cfg)
	if err != nil {
		return err
	}
	opts.Logger = logger

	t, err := tree.Build(rows, opts)
	if err != nil {
		return err
	}

	labeler, err := render.NewLabeler(t, spec)
	if err != nil {
		return err
	}
	labeler.ProportionMetric = proportion
	labeler.EdgeDigits = cfg.Output.EdgeDigits
	if shape := cfg.Output.NodeShape; shape != "" {
		labeler.NodeShape = func(*tree.Node) string { return "shape=" + shape }
	}

	name := treeFormat
	if name == "" {
		name = cfg.Output.DefaultFormat
	}
	formatter, err := render.DefaultRegistry().Get(render.Format(name))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := formatter.Render(&buf, t, labeler); err != nil {
		return err
	}
	if err := writeOutput(cmd.OutOrStdout(), treeOutput, buf.Bytes()); err != nil {
		return err
	}

	w := ui.NewWriter(cmd.ErrOrStderr())
	w.Warnings(t.Warnings())
	if treeShowSummary {
		s := w.NewSummary("Tree " + args[0])
		s.Nodes = t.Len()
		s.Levels = t.Levels()
		s.Metrics = t.Metrics()
		s.Warnings = len(t.Warnings())
		s.Render()
	}
	logger.Info("tree rendered",
		zap.String("tree_id", t.ID.String()),
		zap.String("format", name),
		zap.Int("nodes", t.Len()),
	)
	return nil
}

// treeSettings merges the spec file, the flags and the config. Flags win over
// the spec file, which wins over the config.
func treeSettings(cfg *config.Config) (tree.Options, *format.Spec, string, error) {
	opts := tree.Options{
		Codec:    pathcodec.Codec{Separator: cfg.Tree.Separator, Root: cfg.Tree.RootToken},
		RootName: cfg.Tree.RootName,
	}
	var spec *format.Spec
	proportion := ""

	if treeSpecFile != "" {
		s, err := treespec.Load(treeSpecFile)
		if err != nil {
			return opts, nil, "", err
		}
		opts.Levels = s.Options.Levels
		opts.Metrics = s.Options.Metrics
		opts.Codec = opts.Codec.Override(s.Options.Codec)
		if s.Options.RootName != "" {
			opts.RootName = s.Options.RootName
		}
		opts.Calculations = s.Options.Calculations
		spec = s.Format
		proportion = s.ProportionMetric
	}
	if err := opts.Codec.Validate(); err != nil {
		return opts, nil, "", err
	}

	if len(treeLevels) > 0 {
		opts.Levels = treeLevels
	}
	if len(treeMetrics) > 0 {
		opts.Metrics = treeMetrics
	}
	if treeProportion != "" {
		proportion = treeProportion
	}
	if len(treeCalcs) > 0 {
		if opts.Calculations == nil {
			opts.Calculations = tree.NewCalculations()
		}
		if err := calc.Register(opts.Calculations, treeCalcs...); err != nil {
			return opts, nil, "", err
		}
	}
	return opts, spec, proportion, nil
}

func loadTable(cmd *cobra.Command, path, sheet string, logger *zap.Logger) (*table.Table, error) {
	readers := input.NewRegistry(logger)
	if sheet != "" {
		readers.Register(input.NewXLSXReader(sheet))
	}
	return readers.Load(cmd.Context(), path)
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.TypeInternal, "failed to write output", err).
			WithContext("path", path)
	}
	return nil
}
