package fileio

import (
	"bytes"
	"errors"
	"io"
	"strings"

	xls "github.com/extrame/xls"
)

// computeMaxCols scans every row for the last non-empty column; Row.LastCol
// is unreliable for sheets exported by older tools.
func computeMaxCols(sheet *xls.WorkSheet) int {
	const scanCols = 512
	maxCols := 0
	for i := 0; i <= int(sheet.MaxRow); i++ {
		r := sheet.Row(i)
		if r == nil {
			continue
		}
		for j := maxCols; j < scanCols; j++ {
			if normalizeCell(r.Col(j)) != "" {
				maxCols = j + 1
			}
		}
	}
	return max(maxCols, 1)
}

// normalizeCell trims regular and non-breaking spaces around a cell value.
func normalizeCell(s string) string {
	return strings.Trim(s, " \t\r\n\u00a0\u202f")
}

func readXLS(r io.Reader, headerRow int) (*Table, error) {
	if headerRow <= 0 {
		return nil, errors.New("headerRow must be 1-based and >= 1")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	// legacy workbooks carry their own codepage; try the common ones in order
	var wb *xls.WorkBook
	tryCharsets := []string{"utf-8", "windows-1252", "windows-1251"}
	var lastErr error
	for _, ch := range tryCharsets {
		wb, err = xls.OpenReader(bytes.NewReader(b), ch)
		if err == nil && wb != nil {
			lastErr = nil
			break
		}
		lastErr = err
	}
	if wb == nil {
		if lastErr == nil {
			lastErr = errors.New("xls: failed to open workbook")
		}
		return nil, lastErr
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return &Table{}, nil
	}

	maxCols := computeMaxCols(sheet)
	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		cols := make([]string, maxCols)
		if row != nil {
			for j := 0; j < maxCols; j++ {
				cols[j] = normalizeCell(row.Col(j))
			}
		}
		rows = append(rows, cols)
	}

	return tableFromRows(rows, headerRow), nil
}
