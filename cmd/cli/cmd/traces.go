// Package cmd - traces command
package cmd

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Shopify/visualization-tools/core/traces"
	"github.com/Shopify/visualization-tools/core/ui"
	"github.com/Shopify/visualization-tools/internal/config"
	"github.com/Shopify/visualization-tools/internal/errors"
	"github.com/Shopify/visualization-tools/internal/logging"
)

var (
	tracesX         string
	tracesValue     string
	tracesRatio     string
	tracesPlotBy    []string
	tracesColorBy   []string
	tracesColumns   int
	tracesFirstSeen bool
	tracesKeepGrain bool
	tracesOutput    string
	tracesSheet     string
)

// tracesCmd represents the traces command
var tracesCmd = &cobra.Command{
	Use:   "traces <input>",
	Short: "Group rows into coloured series laid out on a subplot grid",
	Long: `Sum a value (or a ratio of two sums) per x, one series per color-by key and
one subplot per plot-by key, and print the figure as JSON.

Examples:
  vizt traces daily.csv --x day --value orders
  vizt traces daily.csv --x day --value orders --plot-by shop --color-by channel
  vizt traces daily.csv --x day --ratio "conversion=orders/sessions" --columns 3`,
	Args: cobra.ExactArgs(1),
	RunE: runTraces,
}

func init() {
	tracesCmd.Flags().StringVar(&tracesX, "x", "", "x-axis column")
	tracesCmd.Flags().StringVar(&tracesValue, "value", "", "numeric column summed on the y axis")
	tracesCmd.Flags().StringVar(&tracesRatio, "ratio", "", "ratio of two sums as name=numerator/denominator")
	tracesCmd.Flags().StringSliceVar(&tracesPlotBy, "plot-by", nil, "columns splitting rows into subplots")
	tracesCmd.Flags().StringSliceVar(&tracesColorBy, "color-by", nil, "columns splitting subplots into series")
	tracesCmd.Flags().IntVar(&tracesColumns, "columns", 0, "subplot grid width (default from config)")
	tracesCmd.Flags().BoolVar(&tracesFirstSeen, "first-seen", false, "keep subplots, series and x values in input order instead of sorting by key")
	tracesCmd.Flags().BoolVar(&tracesKeepGrain, "keep-grain", false, "warn when summing changes the number of rows")
	tracesCmd.Flags().StringVarP(&tracesOutput, "output", "o", "", "write to a file instead of stdout")
	tracesCmd.Flags().StringVar(&tracesSheet, "sheet", "", "XLSX sheet to read (default is the first)")
	_ = tracesCmd.MarkFlagRequired("x")
}

func runTraces(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	logger := logging.Or(nil).With(zap.String("command", "traces"))

	rows, err := loadTable(cmd, args[0], tracesSheet, logger)
	if err != nil {
		return err
	}

	opts, err := tracesOptions(cfg)
	if err != nil {
		return err
	}
	opts.Logger = logger

	fig, err := traces.Build(rows, opts)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(fig, "", "  ")
	if err != nil {
		return errors.Wrap(errors.TypeInternal, "failed to encode figure", err)
	}
	if err := writeOutput(cmd.OutOrStdout(), tracesOutput, append(data, '\n')); err != nil {
		return err
	}
	ui.NewWriter(cmd.ErrOrStderr()).Warnings(fig.Warnings)
	return nil
}

func tracesOptions(cfg *config.Config) (traces.Options, error) {
	opts := traces.Options{
		X:           tracesX,
		Value:       tracesValue,
		PlotBy:      tracesPlotBy,
		ColorBy:     tracesColorBy,
		Columns:     cfg.Traces.Columns,
		MaxSubplots: cfg.Traces.MaxSubplots,
		FirstSeen:   tracesFirstSeen,
		KeepGrain:   tracesKeepGrain,
	}
	if tracesColumns > 0 {
		opts.Columns = tracesColumns
	}
	if tracesRatio != "" {
		r, err := parseRatio(tracesRatio)
		if err != nil {
			return opts, err
		}
		opts.Ratio = r
	}
	return opts, nil
}

// parseRatio reads "name=numerator/denominator"
func parseRatio(s string) (*traces.Ratio, error) {
	name, fraction, ok := strings.Cut(s, "=")
	num, den, ok2 := strings.Cut(fraction, "/")
	r := &traces.Ratio{
		Name:        strings.TrimSpace(name),
		Numerator:   strings.TrimSpace(num),
		Denominator: strings.TrimSpace(den),
	}
	if !ok || !ok2 || r.Name == "" || r.Numerator == "" || r.Denominator == "" {
		return nil, errors.Newf(errors.TypeInput, "ratio %q must look like name=numerator/denominator", s)
	}
	return r, nil
}
