package treespec_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Shopify/visualization-tools/adapters/treespec"
	"github.com/Shopify/visualization-tools/core/format"
	"github.com/Shopify/visualization-tools/core/pathcodec"
	"github.com/Shopify/visualization-tools/core/table"
	"github.com/Shopify/visualization-tools/core/tree"
	"github.com/Shopify/visualization-tools/internal/errors"
)

const funnelSpec = `
levels            = ["channel", "step"]
metrics           = ["sessions", "orders"]
proportion_metric = "sessions"
separator         = "/"
root_token        = "all"
root_name         = "All traffic"

calculation "conversion" {
  value = orders / sessions
}

calculation "share_of_sessions" {
  value = sessions / root.sessions
}

format "sessions" {
  kind = "int"
}

format "conversion" {
  kind   = "percentage"
  digits = 1
}
`

func funnelTable(t *testing.T) *table.Table {
	t.Helper()
	tbl := table.MustNew(
		table.Column{Name: "channel", Kind: table.KindString},
		table.Column{Name: "step", Kind: table.KindString},
		table.Column{Name: "device", Kind: table.KindString},
		table.Column{Name: "sessions", Kind: table.KindNumber},
		table.Column{Name: "orders", Kind: table.KindNumber},
		table.Column{Name: "revenue", Kind: table.KindNumber},
	)
	require.NoError(t, tbl.AddRow("web", "cart", "mobile", 200, 20, 100))
	require.NoError(t, tbl.AddRow("web", "paid", "desktop", 50, 10, 100))
	require.NoError(t, tbl.AddRow("app", "cart", "mobile", 250, 5, 40))
	return tbl
}

func TestParseAndBuild(t *testing.T) {
	spec, err := treespec.Parse([]byte(funnelSpec), "funnel.hcl")
	require.NoError(t, err)

	assert.Equal(t, "sessions", spec.ProportionMetric)
	assert.Equal(t, []string{"channel", "step"}, spec.Options.Levels)
	assert.Equal(t, "All traffic", spec.Options.RootName)
	require.Len(t, spec.Expressions, 2)
	assert.Equal(t, []string{"sessions", "root.sessions"}, spec.Expressions[1].References())

	entries := spec.Format.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, format.Entry{Name: "sessions", Kind: format.KindInt, Digits: 0}, entries[0])
	assert.Equal(t, format.Entry{Name: "conversion", Kind: format.KindPercent, Digits: 1}, entries[1])

	opts := spec.Options
	opts.Logger = zap.NewNop()
	tr, err := tree.Build(funnelTable(t), opts)
	require.NoError(t, err)
	assert.Equal(t, "all", tr.Root().Path())
	assert.Equal(t, []string{"sessions", "orders"}, tr.Metrics())

	web, ok := tr.Node("all/web")
	require.True(t, ok)
	v, err := web.Value("conversion")
	require.NoError(t, err)
	assert.Equal(t, "0.12", v.String())

	v, err = web.Value("share_of_sessions")
	require.NoError(t, err)
	assert.Equal(t, "0.5", v.String())
}

func TestDefaults(t *testing.T) {
	spec, err := treespec.Parse([]byte(`format "v" { kind = "float" }`), "min.hcl")
	require.NoError(t, err)
	assert.Empty(t, spec.Options.Levels)
	assert.Equal(t, pathcodec.Codec{}, spec.Options.Codec)
	assert.Equal(t, 0, spec.Options.Calculations.Len())

	e, ok := spec.Format.Get("v")
	require.True(t, ok)
	assert.Equal(t, format.FloatDigits, e.Digits)

	spec, err = treespec.Parse([]byte(``), "empty.hcl")
	require.NoError(t, err)
	assert.Nil(t, spec.Format)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		errType errors.Type
	}{
		{"syntax", `levels = [`, errors.TypeParsing},
		{"unknown attribute", `colour = "red"`, errors.TypeParsing},
		{"wrong type", `levels = "channel"`, errors.TypeParsing},
		{"bad reference", "calculation \"c\" {\n  value = orders.total\n}", errors.TypeParsing},
		{"duplicate calculation", "calculation \"c\" {\n  value = 1\n}\ncalculation \"c\" {\n  value = 2\n}", errors.TypeConfig},
		{"bad kind", `format "c" { kind = "currency" }`, errors.TypeFormatKind},
		{"negative digits", `format "c" {
  kind = "float"
  digits = -1
}`, errors.TypeConfig},
		{"root token contains separator", "separator = \"/\"\nroot_token = \"a/b\"", errors.TypeConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := treespec.Parse([]byte(tt.src), "bad.hcl")
			assert.True(t, errors.IsType(err, tt.errType), "expected %s, got %v", tt.errType, err)
		})
	}
}

func TestCodecKeepsOnlyFileFields(t *testing.T) {
	spec, err := treespec.Parse([]byte(`root_token = "all"`), "root.hcl")
	require.NoError(t, err)
	assert.Equal(t, pathcodec.Codec{Root: "all"}, spec.Options.Codec)

	spec, err = treespec.Parse([]byte(`separator = "/"`), "sep.hcl")
	require.NoError(t, err)
	assert.Equal(t, pathcodec.Codec{Separator: "/"}, spec.Options.Codec)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "funnel.hcl")
	require.NoError(t, os.WriteFile(path, []byte(funnelSpec), 0o644))

	spec, err := treespec.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, spec.Options.Calculations.Len())

	_, err = treespec.Load(filepath.Join(t.TempDir(), "missing.hcl"))
	assert.True(t, errors.IsType(err, errors.TypeConfig), "got %v", err)
}
