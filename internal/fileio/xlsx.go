package fileio

import (
	"fmt"
	"io"

	excelize "github.com/xuri/excelize/v2"

	"merchant-recon/internal/reconcile/model"
)

// dataSheet returns the sheet a user sees on open: the active one when it is
// visible, otherwise the first visible sheet in tab order.
func dataSheet(f *excelize.File) (string, bool) {
	sheets := f.GetSheetList()
	visible := func(name string) bool {
		ok, err := f.GetSheetVisible(name)
		return err == nil && ok
	}
	if i := f.GetActiveSheetIndex(); i >= 0 && i < len(sheets) && visible(sheets[i]) {
		return sheets[i], true
	}
	for _, name := range sheets {
		if visible(name) {
			return name, true
		}
	}
	return "", false
}

// readXLSX streams the data sheet row by row and trims every cell the way the
// legacy .xls reader does.
func readXLSX(r io.Reader, headerRow int) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", model.ErrMalformedDataset, err)
	}
	defer f.Close()

	sheet, ok := dataSheet(f)
	if !ok {
		return nil, fmt.Errorf("%w: workbook has no visible sheet", model.ErrMalformedDataset)
	}

	it, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	defer it.Close()

	var rows [][]string
	for it.Next() {
		cols, err := it.Columns()
		if err != nil {
			return nil, fmt.Errorf("sheet %q row %d: %w", sheet, len(rows)+1, err)
		}
		for i := range cols {
			cols[i] = normalizeCell(cols[i])
		}
		rows = append(rows, cols)
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	return tableFromRows(rows, headerRow), nil
}
