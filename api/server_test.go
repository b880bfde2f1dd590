package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Shopify/visualization-tools/internal/config"
	"github.com/Shopify/visualization-tools/internal/errors"
)

var exampleTable = TableInput{
	Columns: []string{"level_1", "level_2", "V"},
	Rows: [][]string{
		{"A", "X", "10"},
		{"A", "Y", "5"},
		{"B", "Z", "3"},
	},
}

func newTestServer() *Server {
	return NewServer("test", nil, zap.NewNop())
}

func post(t *testing.T, s *Server, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestTreeJSON(t *testing.T) {
	rec := post(t, newTestServer(), "/tree", TreeRequest{
		Table:            exampleTable,
		Calculations:     []string{"share = V / root.V"},
		ProportionMetric: "V",
		Format:           "json",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp TreeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "json", resp.Format)
	assert.Equal(t, 6, resp.Nodes)
	assert.Len(t, resp.InputHash, 64)
	require.NotNil(t, resp.Tree)
	assert.Empty(t, resp.Output)

	byPath := make(map[string]int)
	for i, n := range resp.Tree.Nodes {
		byPath[n.Path] = i
	}
	root := resp.Tree.Nodes[byPath["root"]]
	assert.Equal(t, "Total", root.Name)
	assert.Equal(t, "18", root.Metrics["V"])

	a := resp.Tree.Nodes[byPath["root->A"]]
	assert.Equal(t, "15", a.Metrics["V"])
	assert.Equal(t, "83.33%", a.Proportion)

	x := resp.Tree.Nodes[byPath["root->A->X"]]
	assert.Equal(t, "0.5555555555555556", x.Calculations["share"])
}

func TestTreeDOTFromSpec(t *testing.T) {
	rec := post(t, newTestServer(), "/tree", TreeRequest{
		Table: exampleTable,
		Spec: `
levels = ["level_1"]
root_name = "Everything"
format "V" {
  kind = "int"
}
`,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp TreeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "dot", resp.Format)
	assert.Equal(t, 3, resp.Nodes)
	assert.Nil(t, resp.Tree)
	assert.Contains(t, resp.Output, "digraph tree {")
	assert.Contains(t, resp.Output, `Everything\n-----------\nV: 18`)
	assert.Contains(t, resp.Output, `"root" -> "root->A"`)
}

func TestTreeSpecKeepsConfigSeparator(t *testing.T) {
	cfg := config.Default()
	cfg.Tree.Separator = "/"
	rec := post(t, NewServer("test", cfg, zap.NewNop()), "/tree", TreeRequest{
		Table:  exampleTable,
		Spec:   `root_token = "all"`,
		Format: "json",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp TreeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Tree)
	paths := make([]string, 0, len(resp.Tree.Nodes))
	for _, n := range resp.Tree.Nodes {
		paths = append(paths, n.Path)
	}
	assert.Contains(t, paths, "all")
	assert.Contains(t, paths, "all/A/X")
}

func TestTreeErrors(t *testing.T) {
	tests := []struct {
		name   string
		req    TreeRequest
		status int
		code   errors.Type
	}{
		{
			name:   "no columns",
			req:    TreeRequest{},
			status: http.StatusBadRequest,
			code:   errors.TypeInput,
		},
		{
			name:   "unknown metric",
			req:    TreeRequest{Table: exampleTable, Metrics: []string{"orders"}},
			status: http.StatusUnprocessableEntity,
			code:   errors.TypeMetricNotFound,
		},
		{
			name:   "bad calculation",
			req:    TreeRequest{Table: exampleTable, Calculations: []string{"c = V +"}},
			status: http.StatusBadRequest,
			code:   errors.TypeParsing,
		},
		{
			name:   "unknown format",
			req:    TreeRequest{Table: exampleTable, Format: "svg"},
			status: http.StatusBadRequest,
			code:   errors.TypeConfig,
		},
		{
			name:   "separator in value",
			req:    TreeRequest{Table: TableInput{Columns: []string{"l", "V"}, Rows: [][]string{{"a->b", "1"}}}},
			status: http.StatusUnprocessableEntity,
			code:   errors.TypeEncoding,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, newTestServer(), "/tree", tt.req)
			assert.Equal(t, tt.status, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, string(tt.code), resp.Error.Code)
			assert.NotEmpty(t, resp.Error.Message)
		})
	}
}

func TestInvalidBody(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/tree", bytes.NewBufferString(`{"tabel": {}}`))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTraces(t *testing.T) {
	rec := post(t, newTestServer(), "/traces", TracesRequest{
		Table: TableInput{
			Columns: []string{"day", "shop", "orders"},
			Rows: [][]string{
				{"1", "a", "2"},
				{"2", "a", "3"},
				{"1", "b", "4"},
				{"1", "b", "1"},
			},
		},
		X:      "day",
		Value:  "orders",
		PlotBy: []string{"shop"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp TracesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Figure)
	assert.Equal(t, 1, resp.Figure.Rows)
	assert.Equal(t, 2, resp.Figure.Columns)
	require.Len(t, resp.Figure.Subplots, 2)

	b := resp.Figure.Subplots[1]
	assert.Equal(t, "b", b.Key)
	assert.Equal(t, "orders per day for b", b.Title)
	require.Len(t, b.Traces, 1)
	assert.Equal(t, []string{"1"}, b.Traces[0].X)
	assert.Equal(t, "5", b.Traces[0].Y[0].String())
}

func TestTracesCardinality(t *testing.T) {
	rows := make([][]string, 0, 25)
	for i := 0; i < 25; i++ {
		rows = append(rows, []string{"1", string(rune('a' + i)), "1"})
	}
	rec := post(t, newTestServer(), "/traces", TracesRequest{
		Table:  TableInput{Columns: []string{"day", "shop", "orders"}, Rows: rows},
		X:      "day",
		Value:  "orders",
		PlotBy: []string{"shop"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHealthAndVersion(t *testing.T) {
	s := newTestServer()

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var v struct {
		Version string   `json:"version"`
		Formats []string `json:"formats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, "test", v.Version)
	assert.Equal(t, []string{"dot", "json", "outline"}, v.Formats)
}
