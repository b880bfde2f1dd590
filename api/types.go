// Package api - API types for tree and trace rendering
// Requests carry the table inline; the API is stateless.
package api

import (
	"github.com/Shopify/visualization-tools/core/render"
	"github.com/Shopify/visualization-tools/core/traces"
	"github.com/Shopify/visualization-tools/internal/errors"
)

// TableInput is a table sent inline: a header row and string records.
// Column kinds are inferred the same way as for CSV files.
type TableInput struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// TreeRequest is the input to POST /tree
type TreeRequest struct {
	Table TableInput `json:"table"`

	// Spec is an optional HCL tree spec. Fields below override it.
	Spec string `json:"spec,omitempty"`

	Levels  []string `json:"levels,omitempty"`
	Metrics []string `json:"metrics,omitempty"`

	// Calculations are "name=expression" assignments
	Calculations []string `json:"calculations,omitempty"`

	ProportionMetric string `json:"proportion_metric,omitempty"`

	// Format is dot, outline or json. Empty uses the configured default.
	Format string `json:"format,omitempty"`
}

// TreeResponse is the output of POST /tree. Exactly one of Output and Tree
// is set, depending on the format.
type TreeResponse struct {
	ID        string           `json:"id"`
	InputHash string           `json:"input_hash"`
	Format    string           `json:"format"`
	Nodes     int              `json:"nodes"`
	Output    string           `json:"output,omitempty"`
	Tree      *render.Document `json:"tree,omitempty"`
	Warnings  []errors.Warning `json:"warnings,omitempty"`
}

// TracesRequest is the input to POST /traces
type TracesRequest struct {
	Table     TableInput    `json:"table"`
	X         string        `json:"x"`
	Value     string        `json:"value,omitempty"`
	Ratio     *traces.Ratio `json:"ratio,omitempty"`
	PlotBy    []string      `json:"plot_by,omitempty"`
	ColorBy   []string      `json:"color_by,omitempty"`
	Columns   int           `json:"columns,omitempty"`
	FirstSeen bool          `json:"first_seen,omitempty"`
	KeepGrain bool          `json:"keep_grain,omitempty"`
}

// TracesResponse is the output of POST /traces
type TracesResponse struct {
	InputHash string           `json:"input_hash"`
	Figure    *traces.Figure   `json:"figure"`
	Warnings  []errors.Warning `json:"warnings,omitempty"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody describes a failed request
type ErrorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}
