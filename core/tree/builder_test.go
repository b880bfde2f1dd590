package tree_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Shopify/visualization-tools/core/pathcodec"
	"github.com/Shopify/visualization-tools/core/table"
	"github.com/Shopify/visualization-tools/core/tree"
	"github.com/Shopify/visualization-tools/internal/errors"
)

func exampleTable(t *testing.T) *table.Table {
	t.Helper()
	tbl := table.MustNew(
		table.Column{Name: "L1", Kind: table.KindString},
		table.Column{Name: "L2", Kind: table.KindString},
		table.Column{Name: "V", Kind: table.KindNumber},
	)
	for _, r := range []struct {
		l1, l2 string
		v      int
	}{{"A", "X", 10}, {"A", "Y", 5}, {"B", "X", 3}} {
		if err := tbl.AddRow(r.l1, r.l2, r.v); err != nil {
			t.Fatal(err)
		}
	}
	return tbl
}

func build(t *testing.T, tbl *table.Table, opts tree.Options) *tree.Tree {
	t.Helper()
	opts.Logger = zap.NewNop()
	tr, err := tree.Build(tbl, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tr
}

func metric(t *testing.T, tr *tree.Tree, path, name string) string {
	t.Helper()
	n, ok := tr.Node(path)
	if !ok {
		t.Fatalf("node %s missing", path)
	}
	v, ok := n.Metric(name)
	if !ok {
		t.Fatalf("node %s has no metric %s", path, name)
	}
	return v.String()
}

// TestExampleScenario builds the three-row example and checks every node
func TestExampleScenario(t *testing.T) {
	tr := build(t, exampleTable(t), tree.Options{})

	want := map[string]string{
		"root":       "18",
		"root->A":    "15",
		"root->A->X": "10",
		"root->A->Y": "5",
		"root->B":    "3",
		"root->B->X": "3",
	}
	if tr.Len() != len(want) {
		t.Fatalf("tree has %d nodes, want %d", tr.Len(), len(want))
	}
	for path, v := range want {
		if got := metric(t, tr, path, "V"); got != v {
			t.Errorf("%s V = %s, want %s", path, got, v)
		}
	}

	root := tr.Root()
	if root.Name() != "Total" || !root.IsRoot() {
		t.Errorf("root name = %q", root.Name())
	}
	a, _ := tr.Node("root->A")
	children := a.Children()
	if len(children) != 2 || children[0].Name() != "X" || children[1].Name() != "Y" {
		t.Errorf("unexpected children of A: %v", children)
	}
	if children[0].Parent() != a || children[0].Depth() != 2 {
		t.Errorf("bad parent link for %s", children[0].Path())
	}
	if err := tr.CheckInvariants(); err != nil {
		t.Errorf("CheckInvariants: %v", err)
	}
}

func TestDefaultsInferLevelsAndMetrics(t *testing.T) {
	tr := build(t, exampleTable(t), tree.Options{})
	if got := tr.Levels(); len(got) != 2 || got[0] != "L1" || got[1] != "L2" {
		t.Errorf("Levels = %v", got)
	}
	if got := tr.Metrics(); len(got) != 1 || got[0] != "V" {
		t.Errorf("Metrics = %v", got)
	}
}

func TestPathUniquenessAndDepthOrder(t *testing.T) {
	tr := build(t, exampleTable(t), tree.Options{})

	seen := map[string]bool{}
	built := map[*tree.Node]bool{}
	for _, n := range tr.Nodes() {
		if seen[n.Path()] {
			t.Errorf("duplicate path %s", n.Path())
		}
		seen[n.Path()] = true
		if p := n.Parent(); p != nil && !built[p] {
			t.Errorf("%s built before its parent", n.Path())
		}
		built[n] = true
	}
}

func TestRootTotalsAndPrefixSum(t *testing.T) {
	tbl := table.MustNew(
		table.Column{Name: "channel", Kind: table.KindString},
		table.Column{Name: "device", Kind: table.KindString},
		table.Column{Name: "step", Kind: table.KindString},
		table.Column{Name: "sessions", Kind: table.KindNumber},
		table.Column{Name: "revenue", Kind: table.KindNumber},
	)
	rows := []struct {
		c, d, s  string
		sessions int
		revenue  float64
	}{
		{"web", "desktop", "cart", 120, 10.10},
		{"web", "mobile", "cart", 80, 0.20},
		{"web", "mobile", "paid", 30, 0.10},
		{"app", "mobile", "cart", 55, 99.99},
		{"app", "mobile", "cart", 5, 0.01},
		{"email", "desktop", "paid", 7, 1.30},
	}
	total := decimal.Zero
	for _, r := range rows {
		if err := tbl.AddRow(r.c, r.d, r.s, r.sessions, r.revenue); err != nil {
			t.Fatal(err)
		}
		total = total.Add(decimal.NewFromFloat(r.revenue))
	}

	tr := build(t, tbl, tree.Options{})
	if got := metric(t, tr, "root", "sessions"); got != "297" {
		t.Errorf("root sessions = %s, want 297", got)
	}
	rootRevenue, _ := tr.Root().Metric("revenue")
	if !rootRevenue.Equal(total) {
		t.Errorf("root revenue = %s, want %s", rootRevenue, total)
	}
	if got := metric(t, tr, "root->app->mobile->cart", "sessions"); got != "60" {
		t.Errorf("grouped duplicate rows = %s, want 60", got)
	}
	if err := tr.CheckInvariants(); err != nil {
		t.Errorf("CheckInvariants: %v", err)
	}
}

func TestConcatenatedInputDoublesEveryNode(t *testing.T) {
	tbl := exampleTable(t)
	double, err := tbl.Concat(tbl)
	if err != nil {
		t.Fatal(err)
	}
	single := build(t, tbl, tree.Options{})
	doubled := build(t, double, tree.Options{})

	if single.Len() != doubled.Len() {
		t.Fatalf("node counts differ: %d vs %d", single.Len(), doubled.Len())
	}
	for _, n := range single.Nodes() {
		d, ok := doubled.Node(n.Path())
		if !ok {
			t.Fatalf("node %s missing from doubled tree", n.Path())
		}
		v, _ := n.Metric("V")
		dv, _ := d.Metric("V")
		if !dv.Equal(v.Mul(decimal.NewFromInt(2))) {
			t.Errorf("%s: doubled V = %s, want 2 × %s", n.Path(), dv, v)
		}
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name    string
		table   func(t *testing.T) *table.Table
		opts    tree.Options
		errType errors.Type
	}{
		{
			name:    "missing metric",
			table:   exampleTable,
			opts:    tree.Options{Metrics: []string{"orders"}},
			errType: errors.TypeMetricNotFound,
		},
		{
			name: "separator in level value",
			table: func(t *testing.T) *table.Table {
				tbl := exampleTable(t)
				if err := tbl.AddRow("C->D", "X", 1); err != nil {
					t.Fatal(err)
				}
				return tbl
			},
			errType: errors.TypeEncoding,
		},
		{
			name:    "missing level column",
			table:   exampleTable,
			opts:    tree.Options{Levels: []string{"L3"}},
			errType: errors.TypeInput,
		},
		{
			name:    "root token contains separator",
			table:   exampleTable,
			opts:    tree.Options{Codec: pathcodec.Codec{Separator: "/", Root: "a/b"}},
			errType: errors.TypeConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Logger = zap.NewNop()
			tr, err := tree.Build(tt.table(t), tt.opts)
			if tr != nil {
				t.Error("a failed build must not return a partial tree")
			}
			if !errors.IsType(err, tt.errType) {
				t.Errorf("expected %s, got %v", tt.errType, err)
			}
		})
	}
}

func TestNumericLevelIsCoercedWithWarning(t *testing.T) {
	tbl := table.MustNew(
		table.Column{Name: "year", Kind: table.KindNumber},
		table.Column{Name: "V", Kind: table.KindNumber},
	)
	_ = tbl.AddRow(2023, 4)
	_ = tbl.AddRow(2024, 6)

	tr := build(t, tbl, tree.Options{Levels: []string{"year"}, Metrics: []string{"V"}})
	if got := metric(t, tr, "root->2024", "V"); got != "6" {
		t.Errorf("root->2024 V = %s", got)
	}
	w := tr.Warnings()
	if len(w) != 1 || w[0].Type != errors.WarnCoercion {
		t.Errorf("warnings = %v", w)
	}
}

func TestEmptyTableHasOnlyRoot(t *testing.T) {
	tbl := table.MustNew(
		table.Column{Name: "L1", Kind: table.KindString},
		table.Column{Name: "V", Kind: table.KindNumber},
	)
	tr := build(t, tbl, tree.Options{})
	if tr.Len() != 1 {
		t.Fatalf("Len = %d, want 1", tr.Len())
	}
	if got := metric(t, tr, "root", "V"); got != "0" {
		t.Errorf("root V = %s", got)
	}
}

func TestCustomCodecAndRootName(t *testing.T) {
	tr := build(t, exampleTable(t), tree.Options{
		Codec:    pathcodec.Codec{Separator: "/", Root: "all"},
		RootName: "Everything",
	})
	if tr.Root().Path() != "all" || tr.Root().Name() != "Everything" {
		t.Errorf("root = %s (%s)", tr.Root().Path(), tr.Root().Name())
	}
	if got := metric(t, tr, "all/A/Y", "V"); got != "5" {
		t.Errorf("all/A/Y V = %s", got)
	}
	n, _ := tr.Node("all/A/Y")
	if segs := n.Segments(); len(segs) != 2 || segs[0] != "A" || segs[1] != "Y" {
		t.Errorf("Segments = %v", segs)
	}
}

func TestPartialCodecFieldsDefaultIndependently(t *testing.T) {
	tests := []struct {
		name  string
		codec pathcodec.Codec
		want  pathcodec.Codec
		path  string
	}{
		{"root only", pathcodec.Codec{Root: "all"}, pathcodec.Codec{Separator: "->", Root: "all"}, "all->A"},
		{"separator only", pathcodec.Codec{Separator: "/"}, pathcodec.Codec{Separator: "/", Root: "root"}, "root/A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := build(t, exampleTable(t), tree.Options{Codec: tt.codec})
			if got := tr.Codec(); got != tt.want {
				t.Errorf("Codec() = %+v, want %+v", got, tt.want)
			}
			if got := metric(t, tr, tt.path, "V"); got != "15" {
				t.Errorf("%s V = %s", tt.path, got)
			}
		})
	}
}

func TestWalkIsPreOrder(t *testing.T) {
	tr := build(t, exampleTable(t), tree.Options{})
	var order []string
	if err := tr.Walk(func(n *tree.Node) error {
		order = append(order, n.Path())
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	want := []string{"root", "root->A", "root->A->X", "root->A->Y", "root->B", "root->B->X"}
	if len(order) != len(want) {
		t.Fatalf("Walk visited %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("Walk[%d] = %s, want %s", i, order[i], want[i])
		}
	}
}
