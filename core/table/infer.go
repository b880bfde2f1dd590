package table

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Shopify/visualization-tools/internal/errors"
)

// Infer builds a table from a header and string records. A column is numeric
// when every non-empty cell parses as a decimal and at least one cell is
// non-empty; empty cells in numeric columns become zero.
func Infer(header []string, records [][]string) (*Table, error) {
	numeric := make([]bool, len(header))
	seen := make([]bool, len(header))
	for i := range numeric {
		numeric[i] = true
	}
	for r, rec := range records {
		if len(rec) != len(header) {
			return nil, errors.Newf(errors.TypeInput, "record %d has %d fields, header has %d", r+1, len(rec), len(header))
		}
		for i, cell := range rec {
			cell = strings.TrimSpace(cell)
			if cell == "" || !numeric[i] {
				continue
			}
			seen[i] = true
			if _, err := decimal.NewFromString(cell); err != nil {
				numeric[i] = false
			}
		}
	}

	columns := make([]Column, len(header))
	for i, name := range header {
		columns[i] = Column{Name: strings.TrimSpace(name), Kind: KindString}
		if numeric[i] && seen[i] {
			columns[i].Kind = KindNumber
		}
	}
	t, err := New(columns...)
	if err != nil {
		return nil, err
	}

	for r, rec := range records {
		row := make([]Cell, len(rec))
		for i, cell := range rec {
			if columns[i].Kind == KindString {
				row[i].Str = cell
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			d, err := decimal.NewFromString(cell)
			if err != nil {
				return nil, errors.Parsing("record "+strconv.Itoa(r+1), err)
			}
			row[i].Num = d
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}
