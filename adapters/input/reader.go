// Package input reads tabular files into tables.
// Readers are thin: they only produce header + string records, and column
// kinds are inferred by table.Infer.
package input

import (
	"context"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Shopify/visualization-tools/core/table"
	"github.com/Shopify/visualization-tools/internal/errors"
	"github.com/Shopify/visualization-tools/internal/logging"
)

// Reader reads one kind of tabular file
type Reader interface {
	// Name returns the reader name
	Name() string

	// CanRead reports whether the reader handles path
	CanRead(path string) bool

	// Read loads the file at path
	Read(ctx context.Context, path string) (*table.Table, error)
}

// Registry dispatches on file extension
type Registry struct {
	readers []Reader
	logger  *zap.Logger
}

// NewRegistry creates a registry with the CSV and XLSX readers
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		readers: []Reader{NewCSVReader(), NewXLSXReader("")},
		logger:  logging.Or(logger).With(zap.String("component", "input")),
	}
}

// Register adds a reader ahead of the defaults
func (r *Registry) Register(reader Reader) {
	r.readers = append([]Reader{reader}, r.readers...)
}

// Load reads path with the first reader that accepts it
func (r *Registry) Load(ctx context.Context, path string) (*table.Table, error) {
	for _, reader := range r.readers {
		if !reader.CanRead(path) {
			continue
		}
		t, err := reader.Read(ctx, path)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("input loaded",
			zap.String("reader", reader.Name()),
			zap.String("path", path),
			zap.Int("rows", t.Len()),
			zap.Strings("string_columns", t.StringColumns()),
			zap.Strings("number_columns", t.NumberColumns()),
		)
		return t, nil
	}
	return nil, errors.Newf(errors.TypeInput, "no reader for %q", path).
		WithContext("extension", filepath.Ext(path))
}

// Load reads path with the default registry
func Load(ctx context.Context, path string) (*table.Table, error) {
	return NewRegistry(nil).Load(ctx, path)
}

func hasExt(path string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// records splits raw rows into header and records, padding short records
// with empty cells.
func records(path string, rows [][]string) ([]string, [][]string, error) {
	if len(rows) == 0 {
		return nil, nil, errors.Newf(errors.TypeInput, "%s has no header row", path)
	}
	header := rows[0]
	body := make([][]string, 0, len(rows)-1)
	for _, r := range rows[1:] {
		if len(r) < len(header) {
			r = append(r, make([]string, len(header)-len(r))...)
		}
		body = append(body, r)
	}
	return header, body, nil
}
