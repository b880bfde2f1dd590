// Package calc compiles calculated metrics written as HCL expressions, such as
// "orders / sessions" or "V / root.V", into tree calculations.
//
// Every variable an expression references is resolved through Node.Value when
// the calculation is evaluated, so expressions can use raw metrics and other
// calculations alike. root.<name> and parent.<name> resolve on the root and the
// parent node.
package calc

import (
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/shopspring/decimal"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/Shopify/visualization-tools/core/tree"
	"github.com/Shopify/visualization-tools/internal/errors"
)

const (
	scopeRoot   = "root"
	scopeParent = "parent"
)

var functions = map[string]function.Function{
	"abs":   stdlib.AbsoluteFunc,
	"ceil":  stdlib.CeilFunc,
	"floor": stdlib.FloorFunc,
	"max":   stdlib.MaxFunc,
	"min":   stdlib.MinFunc,
}

// Expression is a compiled calculation
type Expression struct {
	name string
	src  string
	expr hcl.Expression
	refs []reference
}

type reference struct {
	scope string
	name  string
}

func (r reference) String() string {
	if r.scope == "" {
		return r.name
	}
	return r.scope + "." + r.name
}

// Parse compiles src as an HCL expression.
func Parse(name, src string) (*Expression, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), name, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, errors.Parsing("calculation "+name, diags)
	}
	e, err := New(name, expr)
	if err != nil {
		return nil, err
	}
	e.src = src
	return e, nil
}

// New wraps an already-parsed expression, e.g. an attribute decoded from an
// HCL file.
func New(name string, expr hcl.Expression) (*Expression, error) {
	e := &Expression{name: name, expr: expr}
	seen := make(map[reference]struct{})
	for _, tr := range expr.Variables() {
		ref, err := referenceOf(tr)
		if err != nil {
			return nil, errors.Wrap(errors.TypeParsing, "calculation "+name, err)
		}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		e.refs = append(e.refs, ref)
	}
	return e, nil
}

func referenceOf(tr hcl.Traversal) (reference, error) {
	root := tr.RootName()
	if len(tr) == 1 {
		return reference{name: root}, nil
	}
	if len(tr) == 2 && (root == scopeRoot || root == scopeParent) {
		switch step := tr[1].(type) {
		case hcl.TraverseAttr:
			return reference{scope: root, name: step.Name}, nil
		case hcl.TraverseIndex:
			if step.Key.Type() == cty.String && step.Key.IsKnown() && !step.Key.IsNull() {
				return reference{scope: root, name: step.Key.AsString()}, nil
			}
		}
	}
	return reference{}, errors.Newf(errors.TypeParsing, "unsupported reference at %s", tr.SourceRange())
}

// Name returns the calculation name
func (e *Expression) Name() string { return e.name }

// Source returns the expression text; empty for expressions built with New
func (e *Expression) Source() string { return e.src }

// References returns the names the expression reads, scoped ones as root.x / parent.x
func (e *Expression) References() []string {
	out := make([]string, len(e.refs))
	for i, r := range e.refs {
		out[i] = r.String()
	}
	return out
}

// Calculation adapts the expression to the tree registry
func (e *Expression) Calculation() tree.Calculation {
	return e.Evaluate
}

// Evaluate computes the expression on n.
func (e *Expression) Evaluate(n *tree.Node) (decimal.Decimal, error) {
	vars := make(map[string]cty.Value)
	scoped := make(map[string]map[string]cty.Value)
	for _, ref := range e.refs {
		target := n
		switch ref.scope {
		case scopeRoot:
			target = n.Root()
		case scopeParent:
			target = n.Parent()
			if target == nil {
				return decimal.Zero, errors.Newf(errors.TypeAttributeNotFound, "calculation %s: root node has no parent", e.name)
			}
		}
		v, err := target.Value(ref.name)
		if err != nil {
			return decimal.Zero, err
		}
		cv, err := cty.ParseNumberVal(v.String())
		if err != nil {
			return decimal.Zero, errors.Internal("convert "+ref.String(), err)
		}
		if ref.scope == "" {
			vars[ref.name] = cv
			continue
		}
		if scoped[ref.scope] == nil {
			scoped[ref.scope] = make(map[string]cty.Value)
		}
		scoped[ref.scope][ref.name] = cv
	}
	for scope, attrs := range scoped {
		vars[scope] = cty.ObjectVal(attrs)
	}

	val, diags := e.expr.Value(&hcl.EvalContext{Variables: vars, Functions: functions})
	if diags.HasErrors() {
		if strings.Contains(diags.Error(), "divide") {
			return decimal.Zero, errors.DivisionByZero(e.name, "denominator").WithContext("path", n.Path())
		}
		return decimal.Zero, errors.Wrap(errors.TypeInput, "evaluate calculation "+e.name+" on "+n.Path(), diags)
	}
	return toDecimal(e.name, val)
}

func toDecimal(name string, val cty.Value) (decimal.Decimal, error) {
	if val.IsNull() || !val.IsKnown() || val.Type() != cty.Number {
		return decimal.Zero, errors.Newf(errors.TypeInput, "calculation %s must produce a number, got %s", name, val.Type().FriendlyName())
	}
	bf := val.AsBigFloat()
	if bf.IsInf() {
		return decimal.Zero, errors.DivisionByZero(name, "denominator")
	}
	d, err := decimal.NewFromString(bf.Text('f', -1))
	if err != nil {
		return decimal.Zero, errors.Internal("convert result of "+name, err)
	}
	if d.Exponent() < -int32(decimal.DivisionPrecision) {
		d = d.Round(int32(decimal.DivisionPrecision))
	}
	return d, nil
}

// Register compiles each "name=expression" assignment into reg.
func Register(reg *tree.Calculations, assignments ...string) error {
	for _, a := range assignments {
		name, src, ok := strings.Cut(a, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return errors.Newf(errors.TypeInput, "calculation %q must look like name=expression", a)
		}
		e, err := Parse(name, strings.TrimSpace(src))
		if err != nil {
			return err
		}
		reg.Register(name, e.Calculation())
	}
	return nil
}
