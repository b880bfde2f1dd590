// Package traces - Grouped series for multi-panel line charts
// Rows are split into subplots by the plot-by columns and into coloured
// traces by the color-by columns; each trace sums a value (or a ratio of two
// sums) per x.
package traces

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Shopify/visualization-tools/core/table"
	"github.com/Shopify/visualization-tools/internal/errors"
	"github.com/Shopify/visualization-tools/internal/logging"
)

// MaxSubplots caps the number of distinct plot-by keys
const MaxSubplots = 20

// DefaultColumns is the subplot grid width when none is given
const DefaultColumns = 2

// Palette is assigned to colour keys in order; its length caps the number of
// distinct colour keys.
var Palette = []string{
	"#3366CC",
	"#DC3912",
	"#FF9900",
	"#109618",
	"#990099",
	"#3B3EAC",
	"#0099C6",
	"#DD4477",
	"#66AA00",
	"#B82E2E",
	"#316395",
	"#994499",
	"#22AA99",
	"#AAAA11",
	"#6633CC",
	"#E67300",
	"#8B0707",
	"#329262",
	"#5574A6",
	"#3B3EAC",
}

// KeySeparator joins multi-column plot-by and color-by values
const KeySeparator = "-"

const (
	subplotColumn = "__subplot__"
	colorColumn   = "__color__"
	xColumn       = "__x__"
)

// Ratio plots sum(Numerator) / sum(Denominator) under Name
type Ratio struct {
	Name        string `json:"name"`
	Numerator   string `json:"numerator"`
	Denominator string `json:"denominator"`
}

// Options configures Build
type Options struct {
	// X is the x-axis column
	X string

	// Value is the numeric column summed on the y axis. Exactly one of Value
	// and Ratio is set.
	Value string
	Ratio *Ratio

	// PlotBy columns split rows into subplots
	PlotBy []string

	// ColorBy columns split each subplot into traces
	ColorBy []string

	// Columns is the subplot grid width. Zero means DefaultColumns.
	Columns int

	// MaxSubplots caps distinct plot-by keys. Zero means MaxSubplots.
	MaxSubplots int

	// FirstSeen keeps subplots, colours and x values in order of first
	// appearance. By default they are ordered by key, numeric x columns
	// numerically.
	FirstSeen bool

	// KeepGrain warns when summing changed the number of rows
	KeepGrain bool

	// Logger receives warnings. Nil means the global logger.
	Logger *zap.Logger
}

// Trace is one coloured series
type Trace struct {
	Name        string            `json:"name"`
	LegendGroup string            `json:"legendgroup"`
	ShowLegend  bool              `json:"showlegend"`
	Color       string            `json:"color"`
	X           []string          `json:"x"`
	Y           []decimal.Decimal `json:"y"`
}

// Subplot is one panel of the figure. Row and Col are 1-based.
type Subplot struct {
	Key    string  `json:"key"`
	Title  string  `json:"title"`
	XTitle string  `json:"xaxis_title"`
	YTitle string  `json:"yaxis_title"`
	Row    int     `json:"row"`
	Col    int     `json:"col"`
	Traces []Trace `json:"traces"`
}

// Figure is the subplot grid
type Figure struct {
	Rows     int              `json:"rows"`
	Columns  int              `json:"columns"`
	Subplots []Subplot        `json:"subplots"`
	Warnings []errors.Warning `json:"-"`
}

func (o Options) yName() string {
	if o.Ratio != nil {
		return o.Ratio.Name
	}
	return o.Value
}

func (o Options) maxSubplots() int {
	if o.MaxSubplots > 0 {
		return o.MaxSubplots
	}
	return MaxSubplots
}

func (o Options) validate(rows *table.Table) error {
	if o.X == "" {
		return errors.Input("an x column is required")
	}
	if _, ok := rows.Column(o.X); !ok {
		return errors.Newf(errors.TypeInput, "x column %q not in table", o.X)
	}
	switch {
	case o.Ratio != nil && o.Value != "":
		return errors.Input("value and ratio are mutually exclusive")
	case o.Ratio != nil:
		r := o.Ratio
		if r.Name == "" || r.Numerator == "" || r.Denominator == "" {
			return errors.Input("a ratio needs a name, a numerator and a denominator")
		}
		for _, col := range []string{r.Numerator, r.Denominator} {
			if err := numeric(rows, col); err != nil {
				return err
			}
		}
	case o.Value != "":
		return numeric(rows, o.Value)
	default:
		return errors.Input("a value column or a ratio is required")
	}
	return nil
}

func numeric(rows *table.Table, name string) error {
	c, ok := rows.Column(name)
	if !ok {
		return errors.MetricNotFound(name)
	}
	if c.Kind != table.KindNumber {
		return errors.Newf(errors.TypeInput, "the value column %s is not numeric", name)
	}
	return nil
}

// Build groups rows per Options and lays the result out as a figure
func Build(rows *table.Table, opts Options) (*Figure, error) {
	if err := opts.validate(rows); err != nil {
		return nil, err
	}
	logger := logging.Or(opts.Logger).With(zap.String("component", "traces"))

	src, warnings, err := coerce(rows, opts)
	if err != nil {
		return nil, err
	}

	metrics := []string{opts.Value}
	if opts.Ratio != nil {
		metrics = []string{opts.Ratio.Numerator, opts.Ratio.Denominator}
	}
	keyed, err := keyTable(src, opts, metrics)
	if err != nil {
		return nil, err
	}

	for _, c := range []struct {
		column string
		what   string
		max    int
	}{
		{subplotColumn, "subplots", opts.maxSubplots()},
		{colorColumn, "colors", len(Palette)},
	} {
		distinct, err := keyed.Distinct(c.column)
		if err != nil {
			return nil, err
		}
		if len(distinct) > c.max {
			return nil, errors.Cardinality(c.what, len(distinct), c.max)
		}
	}

	grouped, err := keyed.GroupSum([]string{subplotColumn, colorColumn, xColumn}, metrics)
	if err != nil {
		return nil, err
	}
	if opts.KeepGrain && len(grouped.Groups) != rows.Len() {
		warnings = append(warnings, errors.Warning{
			Type:    errors.WarnGrainChanged,
			Message: "the input rows were summed per subplot, colour and x, so the grain changed",
		})
	}
	groups := grouped.Groups
	if !opts.FirstSeen {
		xKind := table.KindString
		if c, _ := rows.Column(opts.X); c.Kind == table.KindNumber {
			xKind = table.KindNumber
		}
		sortGroups(groups, xKind)
	}

	points, err := evaluate(groups, opts)
	if err != nil {
		return nil, err
	}
	fig := layout(points, opts)
	fig.Warnings = warnings
	logging.Warnings(logger, warnings)
	logger.Debug("figure built",
		zap.Int("rows", rows.Len()),
		zap.Int("groups", len(groups)),
		zap.Int("subplots", len(fig.Subplots)),
	)
	return fig, nil
}

// coerce turns plot-by and color-by columns into strings, with warnings, and
// the x column into strings silently.
func coerce(rows *table.Table, opts Options) (*table.Table, []errors.Warning, error) {
	var warnings []errors.Warning
	src, w, err := rows.AsStrings("plot_by", opts.PlotBy...)
	if err != nil {
		return nil, nil, err
	}
	warnings = append(warnings, w...)
	if src, w, err = src.AsStrings("color_by", opts.ColorBy...); err != nil {
		return nil, nil, err
	}
	warnings = append(warnings, w...)
	if src, _, err = src.AsStrings("x", opts.X); err != nil {
		return nil, nil, err
	}
	return src, warnings, nil
}

// keyTable derives the subplot, colour and x key of every row
func keyTable(src *table.Table, opts Options, metrics []string) (*table.Table, error) {
	cols := []table.Column{
		{Name: subplotColumn, Kind: table.KindString},
		{Name: colorColumn, Kind: table.KindString},
		{Name: xColumn, Kind: table.KindString},
	}
	for _, m := range metrics {
		cols = append(cols, table.Column{Name: m, Kind: table.KindNumber})
	}
	out, err := table.New(cols...)
	if err != nil {
		return nil, err
	}

	for r := 0; r < src.Len(); r++ {
		sub, err := joinKey(src, r, opts.PlotBy)
		if err != nil {
			return nil, err
		}
		color, err := joinKey(src, r, opts.ColorBy)
		if err != nil {
			return nil, err
		}
		x, err := src.String(r, opts.X)
		if err != nil {
			return nil, err
		}
		values := []any{sub, color, x}
		for _, m := range metrics {
			v, err := src.Number(r, m)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		if err := out.AddRow(values...); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func joinKey(src *table.Table, row int, columns []string) (string, error) {
	parts := make([]string, len(columns))
	for i, c := range columns {
		s, err := src.String(row, c)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, KeySeparator), nil
}

type point struct {
	subplot string
	color   string
	x       string
	y       decimal.Decimal
}

func evaluate(groups []table.Group, opts Options) ([]point, error) {
	points := make([]point, len(groups))
	for i, g := range groups {
		p := point{subplot: g.Keys[0], color: g.Keys[1], x: g.Keys[2]}
		if r := opts.Ratio; r != nil {
			den := g.Sums[r.Denominator]
			if den.IsZero() {
				return nil, errors.DivisionByZero(r.Numerator, r.Denominator).
					WithContext("subplot", p.subplot).
					WithContext("color", p.color).
					WithContext("x", p.x)
			}
			p.y = g.Sums[r.Numerator].Div(den)
		} else {
			p.y = g.Sums[opts.Value]
		}
		points[i] = p
	}
	return points, nil
}

// layout assigns palette colours and legends and places subplots on the grid.
// A colour shows in the legend only in the first subplot it appears in.
func layout(points []point, opts Options) *Figure {
	colors := make(map[string]string)
	legendIn := make(map[string]string)
	var subplotOrder []string
	subplots := make(map[string]*Subplot)
	traceIdx := make(map[string]map[string]int)

	y := opts.yName()
	for _, p := range points {
		if _, ok := colors[p.color]; !ok {
			colors[p.color] = Palette[len(colors)]
			legendIn[p.color] = p.subplot
		}
		sp, ok := subplots[p.subplot]
		if !ok {
			sp = &Subplot{
				Key:    p.subplot,
				Title:  title(y, p.subplot, opts),
				XTitle: opts.X,
				YTitle: y,
			}
			subplots[p.subplot] = sp
			traceIdx[p.subplot] = make(map[string]int)
			subplotOrder = append(subplotOrder, p.subplot)
		}
		i, ok := traceIdx[p.subplot][p.color]
		if !ok {
			i = len(sp.Traces)
			traceIdx[p.subplot][p.color] = i
			sp.Traces = append(sp.Traces, Trace{
				Name:        p.color,
				LegendGroup: p.color,
				ShowLegend:  legendIn[p.color] == p.subplot,
				Color:       colors[p.color],
			})
		}
		t := &sp.Traces[i]
		t.X = append(t.X, p.x)
		t.Y = append(t.Y, p.y)
	}

	fig := &Figure{}
	n := len(subplotOrder)
	if n == 0 {
		return fig
	}
	cols := opts.Columns
	if cols <= 0 {
		cols = DefaultColumns
	}
	if n == 1 {
		cols = 1
	}
	fig.Columns = cols
	fig.Rows = int(math.Ceil(float64(n) / float64(cols)))
	for i, key := range subplotOrder {
		sp := subplots[key]
		sp.Row = i/cols + 1
		sp.Col = i%cols + 1
		fig.Subplots = append(fig.Subplots, *sp)
	}
	return fig
}

// title is "<y> per <x> per <color-by> for <subplot>", leaving out the parts
// whose options are unset.
func title(y, subplot string, opts Options) string {
	var sb strings.Builder
	sb.WriteString(y + " per " + opts.X)
	if len(opts.ColorBy) > 0 {
		sb.WriteString(" per " + strings.Join(opts.ColorBy, KeySeparator))
	}
	if len(opts.PlotBy) > 0 {
		sb.WriteString(" for " + subplot)
	}
	return sb.String()
}
