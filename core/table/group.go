package table

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Group is one distinct key tuple with its summed metrics
type Group struct {
	// Keys holds the key column values, in key column order
	Keys []string

	// Sums maps metric name to the sum over all rows with these keys
	Sums map[string]decimal.Decimal

	// Rows is the number of input rows folded into this group
	Rows int
}

// Grouping is the result of GroupSum
type Grouping struct {
	Keys    []string
	Metrics []string
	Groups  []Group
}

// GroupSum groups rows by the key columns and sums each metric column.
// Groups are returned in first-seen order. Key columns must be string
// columns; a missing metric column is a METRIC_NOT_FOUND error.
func (t *Table) GroupSum(keys, metrics []string) (*Grouping, error) {
	keyIdx := make([]int, len(keys))
	for i, k := range keys {
		idx, err := t.lookup(k, KindString)
		if err != nil {
			return nil, err
		}
		keyIdx[i] = idx
	}
	metricIdx := make([]int, len(metrics))
	for i, m := range metrics {
		idx, err := t.lookup(m, KindNumber)
		if err != nil {
			return nil, err
		}
		metricIdx[i] = idx
	}

	g := &Grouping{
		Keys:    append([]string(nil), keys...),
		Metrics: append([]string(nil), metrics...),
	}
	positions := make(map[string]int)
	var buf []byte
	for _, row := range t.rows {
		buf = buf[:0]
		for _, idx := range keyIdx {
			buf = strconv.AppendInt(buf, int64(len(row[idx].Str)), 10)
			buf = append(buf, ':')
			buf = append(buf, row[idx].Str...)
		}
		key := string(buf)

		pos, ok := positions[key]
		if !ok {
			values := make([]string, len(keyIdx))
			for i, idx := range keyIdx {
				values[i] = row[idx].Str
			}
			sums := make(map[string]decimal.Decimal, len(metrics))
			for _, m := range metrics {
				sums[m] = decimal.Zero
			}
			pos = len(g.Groups)
			positions[key] = pos
			g.Groups = append(g.Groups, Group{Keys: values, Sums: sums})
		}

		grp := &g.Groups[pos]
		grp.Rows++
		for i, idx := range metricIdx {
			grp.Sums[metrics[i]] = grp.Sums[metrics[i]].Add(row[idx].Num)
		}
	}
	return g, nil
}

// Collapsed reports whether grouping merged any input rows, i.e. the grain of
// the grouped table is coarser than the input.
func (g *Grouping) Collapsed() bool {
	for _, grp := range g.Groups {
		if grp.Rows > 1 {
			return true
		}
	}
	return false
}

// Distinct returns the distinct values of a string column in first-seen order.
func (t *Table) Distinct(column string) ([]string, error) {
	idx, err := t.lookup(column, KindString)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []string
	for _, row := range t.rows {
		v := row[idx].Str
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}
