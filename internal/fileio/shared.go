package fileio

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"merchant-recon/internal/reconcile/model"
)

// Table is a sheet read into header-keyed rows. Headers keep file order.
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// ReadTable picks a reader by file extension. headerRow is 1-based.
func ReadTable(r io.Reader, filename string, headerRow int) (*Table, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	headerRow = max(headerRow, 1)
	var (
		t   *Table
		err error
	)
	switch ext {
	case ".xlsx":
		t, err = readXLSX(r, headerRow)
	case ".xls":
		t, err = readXLS(r, headerRow)
	case ".csv", ".txt":
		t, err = readCSV(r, headerRow)
	default:
		return nil, fmt.Errorf("%w: %s", model.ErrUnsupportedFile, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	return t, nil
}

// tableFromRows turns an array of rows into a Table using headerRow as the header.
func tableFromRows(rows [][]string, headerRow int) *Table {
	if len(rows) == 0 {
		return &Table{}
	}
	h := pickHeader(rows, headerRow)
	return &Table{Headers: h, Rows: rowsToMaps(rows, h, headerRow)}
}

// pickHeader takes the header row and names empty cells "Column N".
// Duplicate names get the first free numeric suffix so no column is lost,
// including when a suffixed name already appears later in the row.
func pickHeader(rows [][]string, headerRow int) []string {
	idx := headerRow - 1
	if idx < 0 || idx >= len(rows) {
		idx = 0
	}
	h := rows[idx]
	out := make([]string, len(h))
	reserved := make(map[string]bool, len(h))
	for i, v := range h {
		v = strings.TrimSpace(strings.TrimPrefix(v, "\ufeff"))
		if v == "" {
			v = fmt.Sprintf("Column %d", i+1)
		}
		out[i] = v
		reserved[v] = true
	}

	used := make(map[string]bool, len(h))
	for i, v := range out {
		name := v
		for n := 1; used[name] || (name != v && reserved[name]); n++ {
			name = fmt.Sprintf("%s.%d", v, n)
		}
		used[name] = true
		out[i] = name
	}
	return out
}

// rowsToMaps converts the rows below the header, skipping fully empty ones.
func rowsToMaps(rows [][]string, headers []string, headerRow int) []map[string]string {
	start := max(headerRow, 1)
	var out []map[string]string
	for r := start; r < len(rows); r++ {
		rec := rows[r]
		m := make(map[string]string, len(headers))
		empty := true
		for c, h := range headers {
			var v string
			if c < len(rec) {
				v = rec[c]
			}
			if strings.TrimSpace(v) != "" {
				empty = false
			}
			m[h] = v
		}
		if !empty {
			out = append(out, m)
		}
	}
	return out
}
