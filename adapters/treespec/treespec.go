// Package treespec reads HCL files describing how to build and label a tree:
//
//	levels            = ["channel", "step"]
//	metrics           = ["sessions", "orders"]
//	proportion_metric = "sessions"
//
//	calculation "conversion" {
//	  value = orders / sessions
//	}
//
//	format "conversion" {
//	  kind   = "percent"
//	  digits = 2
//	}
package treespec

import (
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/Shopify/visualization-tools/core/calc"
	"github.com/Shopify/visualization-tools/core/format"
	"github.com/Shopify/visualization-tools/core/pathcodec"
	"github.com/Shopify/visualization-tools/core/tree"
	"github.com/Shopify/visualization-tools/internal/errors"
)

// File is the decoded HCL document
type File struct {
	Levels           []string           `hcl:"levels,optional"`
	Metrics          []string           `hcl:"metrics,optional"`
	ProportionMetric string             `hcl:"proportion_metric,optional"`
	Separator        string             `hcl:"separator,optional"`
	RootToken        string             `hcl:"root_token,optional"`
	RootName         string             `hcl:"root_name,optional"`
	Calculations     []CalculationBlock `hcl:"calculation,block"`
	Formats          []FormatBlock      `hcl:"format,block"`
}

// CalculationBlock declares a calculated metric as an expression
type CalculationBlock struct {
	Name  string         `hcl:"name,label"`
	Value hcl.Expression `hcl:"value"`
}

// FormatBlock declares how a metric or calculation is displayed
type FormatBlock struct {
	Name   string `hcl:"name,label"`
	Kind   string `hcl:"kind"`
	Digits *int   `hcl:"digits,optional"`
}

// Spec is a build and display configuration ready to use
type Spec struct {
	// Options has Levels, Metrics, Codec, RootName and Calculations set
	Options tree.Options

	// Format is nil when the file has no format blocks
	Format *format.Spec

	ProportionMetric string

	// Expressions are the compiled calculations, in file order
	Expressions []*calc.Expression
}

// Load reads and parses the file at path
func Load(path string) (*Spec, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "failed to read tree spec", err).
			WithContext("path", path)
	}
	return Parse(src, path)
}

// Parse decodes src. filename only appears in diagnostics.
func Parse(src []byte, filename string) (*Spec, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diagError(filename, diags)
	}

	var f File
	if diags := gohcl.DecodeBody(file.Body, nil, &f); diags.HasErrors() {
		return nil, diagError(filename, diags)
	}
	return f.Spec()
}

// Spec compiles the decoded file
func (f *File) Spec() (*Spec, error) {
	// fields left out stay empty so the caller's settings fill them; a file
	// setting both is checked here
	codec := pathcodec.Codec{Separator: f.Separator, Root: f.RootToken}
	if codec.Separator != "" && codec.Root != "" {
		if err := codec.Validate(); err != nil {
			return nil, err
		}
	}

	s := &Spec{
		Options: tree.Options{
			Levels:   f.Levels,
			Metrics:  f.Metrics,
			Codec:    codec,
			RootName: f.RootName,
		},
		ProportionMetric: f.ProportionMetric,
	}

	calcs := tree.NewCalculations()
	for _, block := range f.Calculations {
		if _, dup := calcs.Get(block.Name); dup {
			return nil, errors.Newf(errors.TypeConfig, "calculation %q declared twice", block.Name)
		}
		e, err := calc.New(block.Name, block.Value)
		if err != nil {
			return nil, err
		}
		calcs.Register(block.Name, e.Calculation())
		s.Expressions = append(s.Expressions, e)
	}
	s.Options.Calculations = calcs

	if len(f.Formats) > 0 {
		s.Format = format.NewSpec()
		for _, block := range f.Formats {
			kind, err := format.ParseKind(block.Kind)
			if err != nil {
				return nil, errors.Wrap(errors.TypeFormatKind, "format "+block.Name, err)
			}
			digits := format.FloatDigits
			if kind == format.KindInt {
				digits = format.IntDigits
			}
			if block.Digits != nil {
				digits = *block.Digits
			}
			if digits < 0 {
				return nil, errors.Newf(errors.TypeConfig, "format %q: digits must not be negative", block.Name)
			}
			s.Format.Set(format.Entry{Name: block.Name, Kind: kind, Digits: digits})
		}
	}
	return s, nil
}

func diagError(filename string, diags hcl.Diagnostics) error {
	err := errors.Parsing("invalid tree spec "+filename, diags)
	for _, d := range diags {
		if d.Severity == hcl.DiagError && d.Subject != nil {
			err = err.WithContext("line", d.Subject.Start.Line)
			break
		}
	}
	return err
}
