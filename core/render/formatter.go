package render

import (
	"io"
	"sort"

	"github.com/Shopify/visualization-tools/core/tree"
	"github.com/Shopify/visualization-tools/internal/errors"
)

// Format represents output format type
type Format string

const (
	// FormatDOT is a Graphviz program
	FormatDOT Format = "dot"

	// FormatOutline is an indented human-readable table
	FormatOutline Format = "outline"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"
)

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// Render writes t, labelled by l
	Render(w io.Writer, t *tree.Tree, l *Labeler) error
}

// Registry manages formatter registration
type Registry struct {
	formatters map[Format]Formatter
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{formatters: make(map[Format]Formatter)}
}

// DefaultRegistry holds the DOT, outline and JSON formatters
func DefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register(DOT{})
	_ = r.Register(Outline{})
	_ = r.Register(JSON{Indent: "  "})
	return r
}

// Register adds a formatter to the registry
func (r *Registry) Register(f Formatter) error {
	if _, ok := r.formatters[f.Format()]; ok {
		return errors.Newf(errors.TypeConfig, "formatter %q already registered", f.Format())
	}
	r.formatters[f.Format()] = f
	return nil
}

// Get returns the formatter for a format type
func (r *Registry) Get(format Format) (Formatter, error) {
	f, ok := r.formatters[format]
	if !ok {
		return nil, errors.Newf(errors.TypeConfig, "unknown output format %q", format).
			WithContext("available", r.Formats())
	}
	return f, nil
}

// Formats returns the registered format names, sorted
func (r *Registry) Formats() []Format {
	out := make([]Format, 0, len(r.formatters))
	for f := range r.formatters {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
