package traces

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Shopify/visualization-tools/core/table"
)

// sortGroups orders groups by subplot key, colour key, then x. Numeric x
// values were rendered to strings and compare by their decimal value.
func sortGroups(groups []table.Group, xKind table.Kind) {
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i].Keys, groups[j].Keys
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		if a[1] != b[1] {
			return a[1] < b[1]
		}
		return lessX(a[2], b[2], xKind)
	})
}

func lessX(a, b string, kind table.Kind) bool {
	if kind == table.KindNumber {
		da, errA := decimal.NewFromString(a)
		db, errB := decimal.NewFromString(b)
		if errA == nil && errB == nil {
			return da.LessThan(db)
		}
	}
	return a < b
}
