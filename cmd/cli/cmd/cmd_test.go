package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shopify/visualization-tools/core/render"
	"github.com/Shopify/visualization-tools/core/traces"
	"github.com/Shopify/visualization-tools/internal/errors"
)

const exampleCSV = `level_1,level_2,V
A,X,10
A,Y,5
B,Z,3
`

// execute runs the root command with fresh flag values and a private HOME
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, c := range []*cobra.Command{rootCmd, treeCmd, tracesCmd, configInitCmd} {
		resetFlags(c.Flags())
		resetFlags(c.PersistentFlags())
	}

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func resetFlags(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTreeDOT(t *testing.T) {
	input := writeFile(t, "example.csv", exampleCSV)

	out, _, err := execute(t, "tree", input, "--calc", "share=V / root.V", "--proportion", "V")
	require.NoError(t, err)
	assert.Contains(t, out, "digraph tree {\n")
	assert.Contains(t, out, `"root" -> "root->A" [label="83.33%"];`)
	assert.Contains(t, out, `"root->B" -> "root->B->Z" [label="100.00%"];`)
	assert.Contains(t, out, `Total\n-----------\nV: 18`)
}

func TestTreeOutline(t *testing.T) {
	input := writeFile(t, "example.csv", exampleCSV)

	out, stderr, err := execute(t, "tree", input, "--levels", "level_1", "--format", "outline", "--summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Total")
	assert.Contains(t, out, "18")
	assert.NotContains(t, out, "X")
	assert.Contains(t, stderr, "Nodes:   3")
	assert.Contains(t, stderr, "Levels:  level_1")
}

func TestTreeJSONFile(t *testing.T) {
	input := writeFile(t, "example.csv", exampleCSV)
	output := filepath.Join(t.TempDir(), "tree.json")

	out, _, err := execute(t, "tree", input, "-f", "json", "-o", output)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var doc render.Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, []string{"level_1", "level_2"}, doc.Levels)
	require.Len(t, doc.Nodes, 6)
	assert.Equal(t, "root", doc.Nodes[0].Path)
	assert.Equal(t, "18", doc.Nodes[0].Metrics["V"])
}

func TestTreeSpecFile(t *testing.T) {
	input := writeFile(t, "example.csv", exampleCSV)
	spec := writeFile(t, "example.hcl", `
levels            = ["level_1", "level_2"]
proportion_metric = "V"
separator         = "/"
root_token        = "all"
root_name         = "Everything"

calculation "share" {
  value = V / root.V
}

format "V" {
  kind = "int"
}

format "share" {
  kind = "percent"
}
`)

	out, _, err := execute(t, "tree", input, "--spec", spec)
	require.NoError(t, err)
	assert.Contains(t, out, `"all" -> "all/A" [label="83.33%"];`)
	assert.Contains(t, out, `X\n-----------\nV: 10\nshare: 55.56%`)
	assert.Contains(t, out, `Everything\n-----------\nV: 18\nshare: 100.00%`)
}

func TestTreeSpecKeepsConfigSeparator(t *testing.T) {
	input := writeFile(t, "example.csv", exampleCSV)
	cfg := writeFile(t, "vizt.json", `{"tree": {"separator": "/"}}`)
	spec := writeFile(t, "example.hcl", `levels = ["level_1", "level_2"]`)

	out, _, err := execute(t, "--config", cfg, "tree", input, "--spec", spec)
	require.NoError(t, err)
	assert.Contains(t, out, `"root" -> "root/A"`)
	assert.Contains(t, out, `"root/A" -> "root/A/X"`)
	assert.NotContains(t, out, "->A")
}

func TestTreeErrors(t *testing.T) {
	input := writeFile(t, "example.csv", exampleCSV)

	tests := []struct {
		name    string
		args    []string
		errType errors.Type
	}{
		{"unknown format", []string{"tree", input, "--format", "svg"}, errors.TypeConfig},
		{"missing metric", []string{"tree", input, "--metrics", "orders"}, errors.TypeMetricNotFound},
		{"bad calculation", []string{"tree", input, "--calc", "share"}, errors.TypeInput},
		{"missing file", []string{"tree", filepath.Join(t.TempDir(), "none.csv")}, errors.TypeInput},
		{"unknown extension", []string{"tree", writeFile(t, "data.parquet", "")}, errors.TypeInput},
		{"missing spec", []string{"tree", input, "--spec", filepath.Join(t.TempDir(), "none.hcl")}, errors.TypeConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			assert.True(t, errors.IsType(err, tt.errType), "expected %s, got %v", tt.errType, err)
		})
	}
}

const dailyCSV = `day,shop,cohort,orders,sessions
1,a,2020,2,10
2,a,2020,3,10
1,b,2021,4,20
1,b,2021,1,5
`

func TestTraces(t *testing.T) {
	input := writeFile(t, "daily.csv", dailyCSV)

	out, stderr, err := execute(t, "traces", input, "--x", "day", "--value", "orders", "--plot-by", "shop", "--color-by", "cohort")
	require.NoError(t, err)
	assert.Contains(t, stderr, "the type of column cohort in color_by has been changed to string")

	var fig traces.Figure
	require.NoError(t, json.Unmarshal([]byte(out), &fig))
	assert.Equal(t, 2, fig.Columns)
	require.Len(t, fig.Subplots, 2)
	assert.Equal(t, "orders per day per cohort for a", fig.Subplots[0].Title)

	b := fig.Subplots[1].Traces
	require.Len(t, b, 1)
	assert.Equal(t, "2021", b[0].Name)
	assert.Equal(t, "5", b[0].Y[0].String())
}

func TestTracesRatio(t *testing.T) {
	input := writeFile(t, "daily.csv", dailyCSV)

	out, _, err := execute(t, "traces", input, "--x", "day", "--ratio", "conversion=orders/sessions", "--columns", "3")
	require.NoError(t, err)

	var fig traces.Figure
	require.NoError(t, json.Unmarshal([]byte(out), &fig))
	require.Len(t, fig.Subplots, 1)
	assert.Equal(t, 1, fig.Columns)
	sp := fig.Subplots[0]
	assert.Equal(t, "conversion", sp.YTitle)
	require.Len(t, sp.Traces, 1)
	assert.Equal(t, []string{"1", "2"}, sp.Traces[0].X)
	assert.Equal(t, "0.2", sp.Traces[0].Y[0].String())
	assert.Equal(t, "0.3", sp.Traces[0].Y[1].String())
}

func TestParseRatio(t *testing.T) {
	r, err := parseRatio(" conversion = orders / sessions ")
	require.NoError(t, err)
	assert.Equal(t, traces.Ratio{Name: "conversion", Numerator: "orders", Denominator: "sessions"}, *r)

	for _, bad := range []string{"conversion", "conversion=orders", "=a/b", "c=/b", "c=a/"} {
		_, err := parseRatio(bad)
		assert.True(t, errors.IsType(err, errors.TypeInput), "%q: got %v", bad, err)
	}
}

func TestTracesRequiresX(t *testing.T) {
	input := writeFile(t, "daily.csv", dailyCSV)
	_, _, err := execute(t, "traces", input, "--value", "orders")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "vizt version "+Version+"\n", out)
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vizt.json")

	out, _, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, _, err = execute(t, "config", "init", path)
	assert.Error(t, err)

	out, _, err = execute(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"default_format": "dot"`)
	assert.Contains(t, out, `"max_subplots": 20`)
}
