package input

import (
	"context"
	"encoding/csv"
	"os"

	"github.com/Shopify/visualization-tools/core/table"
	"github.com/Shopify/visualization-tools/internal/errors"
)

// CSVReader reads delimited text files with a header row
type CSVReader struct {
	// Comma is the field delimiter, ',' when zero
	Comma rune
}

// NewCSVReader creates a comma-separated reader
func NewCSVReader() *CSVReader {
	return &CSVReader{Comma: ','}
}

// Name returns the reader name
func (r *CSVReader) Name() string { return "csv" }

// CanRead accepts .csv and .tsv files
func (r *CSVReader) CanRead(path string) bool {
	return hasExt(path, ".csv", ".tsv")
}

// Read parses the whole file
func (r *CSVReader) Read(ctx context.Context, path string) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.TypeInput, "failed to open "+path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.Comma = r.Comma
	if cr.Comma == 0 {
		cr.Comma = ','
	}
	if hasExt(path, ".tsv") {
		cr.Comma = '\t'
	}
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.TypeParsing, "failed to parse "+path, err)
	}
	header, body, err := records(path, rows)
	if err != nil {
		return nil, err
	}
	return table.Infer(header, body)
}
