package format

import (
	"github.com/shopspring/decimal"

	"github.com/Shopify/visualization-tools/core/tree"
)

// Default digit counts used by Infer
const (
	IntDigits   = 0
	FloatDigits = 2
)

// Entry describes how one metric or calculation is displayed
type Entry struct {
	Name   string `json:"name"`
	Kind   Kind   `json:"kind"`
	Digits int    `json:"digits"`
}

// Format formats v per the entry
func (e Entry) Format(v decimal.Decimal) (string, error) {
	return Value(v, e.Kind, e.Digits)
}

// Spec is an ordered display specification. Labels list entries in order.
type Spec struct {
	entries []Entry
	index   map[string]int
}

// NewSpec creates a spec from entries; later duplicates replace earlier ones
func NewSpec(entries ...Entry) *Spec {
	s := &Spec{index: make(map[string]int)}
	for _, e := range entries {
		s.Set(e)
	}
	return s
}

// Set adds e, or replaces the entry with the same name in place
func (s *Spec) Set(e Entry) *Spec {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[e.Name]; ok {
		s.entries[i] = e
		return s
	}
	s.index[e.Name] = len(s.entries)
	s.entries = append(s.entries, e)
	return s
}

// Get returns the entry for name
func (s *Spec) Get(name string) (Entry, bool) {
	if s == nil {
		return Entry{}, false
	}
	i, ok := s.index[name]
	if !ok {
		return Entry{}, false
	}
	return s.entries[i], true
}

// Entries returns the entries in display order
func (s *Spec) Entries() []Entry {
	if s == nil {
		return nil
	}
	return append([]Entry(nil), s.entries...)
}

// Len returns the number of entries
func (s *Spec) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Update applies every entry of other on top of s
func (s *Spec) Update(other *Spec) *Spec {
	for _, e := range other.Entries() {
		s.Set(e)
	}
	return s
}

// Infer derives a spec from the root of t: every metric, then every
// calculation, is int with 0 digits when its root value is whole, float with
// 2 digits otherwise. Only the root is inspected, so a ratio that happens to
// be whole at the root is displayed as an int everywhere.
func Infer(t *tree.Tree) (*Spec, error) {
	root := t.Root()
	s := NewSpec()
	names := append(t.Metrics(), t.Calculations()...)
	for _, name := range names {
		v, err := root.Value(name)
		if err != nil {
			return nil, err
		}
		if v.IsInteger() {
			s.Set(Entry{Name: name, Kind: KindInt, Digits: IntDigits})
		} else {
			s.Set(Entry{Name: name, Kind: KindFloat, Digits: FloatDigits})
		}
	}
	return s, nil
}
