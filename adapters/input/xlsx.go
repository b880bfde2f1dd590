package input

import (
	"context"

	"github.com/xuri/excelize/v2"

	"github.com/Shopify/visualization-tools/core/table"
	"github.com/Shopify/visualization-tools/internal/errors"
)

// XLSXReader reads one sheet of an Excel workbook. The first row is the header.
type XLSXReader struct {
	// Sheet is the sheet name; empty means the first sheet
	Sheet string
}

// NewXLSXReader creates a reader for sheet
func NewXLSXReader(sheet string) *XLSXReader {
	return &XLSXReader{Sheet: sheet}
}

// Name returns the reader name
func (r *XLSXReader) Name() string { return "xlsx" }

// CanRead accepts .xlsx and .xlsm files
func (r *XLSXReader) CanRead(path string) bool {
	return hasExt(path, ".xlsx", ".xlsm")
}

// Read loads the sheet's formatted cell values
func (r *XLSXReader) Read(ctx context.Context, path string) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.TypeInput, "failed to open "+path, err)
	}
	defer f.Close()

	sheet := r.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.Newf(errors.TypeInput, "%s has no sheets", path)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrap(errors.TypeInput, "failed to read sheet "+sheet, err).
			WithContext("path", path)
	}
	header, body, err := records(path, rows)
	if err != nil {
		return nil, err
	}
	return table.Infer(header, body)
}
