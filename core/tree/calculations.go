package tree

import (
	"github.com/shopspring/decimal"

	"github.com/Shopify/visualization-tools/internal/errors"
)

// Calculation derives a value for a node from its metrics, other calculations
// and constants. Calculations must be pure; a calculation set that refers to
// itself, directly or through another calculation, never terminates and is the
// caller's responsibility.
type Calculation func(n *Node) (decimal.Decimal, error)

// Calculations is an ordered registry of named calculations.
type Calculations struct {
	names []string
	fns   map[string]Calculation
}

// NewCalculations creates an empty registry
func NewCalculations() *Calculations {
	return &Calculations{fns: make(map[string]Calculation)}
}

// Register adds or overwrites a calculation. Overwriting keeps the original position.
func (c *Calculations) Register(name string, fn Calculation) *Calculations {
	if _, ok := c.fns[name]; !ok {
		c.names = append(c.names, name)
	}
	c.fns[name] = fn
	return c
}

// Get returns a calculation by name
func (c *Calculations) Get(name string) (Calculation, bool) {
	if c == nil {
		return nil, false
	}
	fn, ok := c.fns[name]
	return fn, ok
}

// Names returns calculation names in registration order
func (c *Calculations) Names() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.names...)
}

// Len returns the number of registered calculations
func (c *Calculations) Len() int {
	if c == nil {
		return 0
	}
	return len(c.names)
}

// merge copies every calculation of other into c.
func (c *Calculations) merge(other *Calculations) {
	for _, name := range other.Names() {
		c.Register(name, other.fns[name])
	}
}

// Ratio returns a calculation dividing one name by another on the same node.
func Ratio(numerator, denominator string) Calculation {
	return func(n *Node) (decimal.Decimal, error) {
		num, err := n.Value(numerator)
		if err != nil {
			return decimal.Zero, err
		}
		den, err := n.Value(denominator)
		if err != nil {
			return decimal.Zero, err
		}
		return Div(num, den, numerator, denominator)
	}
}

// ShareOfRoot returns a calculation dividing name on the node by name on the root.
func ShareOfRoot(name string) Calculation {
	return func(n *Node) (decimal.Decimal, error) {
		return share(n, n.Root(), name)
	}
}

// ShareOfParent returns a calculation dividing name on the node by name on its
// parent. The root's share of itself is 1.
func ShareOfParent(name string) Calculation {
	return func(n *Node) (decimal.Decimal, error) {
		if n.IsRoot() {
			return decimal.NewFromInt(1), nil
		}
		return share(n, n.Parent(), name)
	}
}

func share(n, of *Node, name string) (decimal.Decimal, error) {
	num, err := n.Value(name)
	if err != nil {
		return decimal.Zero, err
	}
	den, err := of.Value(name)
	if err != nil {
		return decimal.Zero, err
	}
	return Div(num, den, n.Path()+"."+name, of.Path()+"."+name)
}

// Div divides num by den, failing instead of panicking on a zero denominator.
func Div(num, den decimal.Decimal, numName, denName string) (decimal.Decimal, error) {
	if den.IsZero() {
		return decimal.Zero, errors.DivisionByZero(numName, denName)
	}
	return num.Div(den), nil
}
