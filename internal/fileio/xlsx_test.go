package fileio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	excelize "github.com/xuri/excelize/v2"

	"merchant-recon/internal/reconcile/model"
)

func workbook(t *testing.T, build func(f *excelize.File)) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	build(f)
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestReadXLSXActiveSheet(t *testing.T) {
	buf := workbook(t, func(f *excelize.File) {
		require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"notes"}))
		idx, err := f.NewSheet("Stores")
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Stores", "A1", &[]any{" name ", "lat", "lon"}))
		require.NoError(t, f.SetSheetRow("Stores", "A2", &[]any{"Joe's Pizza ", 32.7767, -96.797}))
		f.SetActiveSheet(idx)
	})

	tbl, err := ReadTable(buf, "stores.xlsx", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "lat", "lon"}, tbl.Headers)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "Joe's Pizza", tbl.Rows[0]["name"])
	assert.Equal(t, "32.7767", tbl.Rows[0]["lat"])
}

func TestReadXLSXFirstSheetByDefault(t *testing.T) {
	buf := workbook(t, func(f *excelize.File) {
		require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"name", "lat", "lon"}))
		require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"A", 1, 2}))
		_, err := f.NewSheet("Extra")
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Extra", "A1", &[]any{"other"}))
	})

	tbl, err := ReadTable(buf, "stores.xlsx", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "lat", "lon"}, tbl.Headers)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "A", tbl.Rows[0]["name"])
}

func TestReadXLSXCorrupt(t *testing.T) {
	_, err := ReadTable(strings.NewReader("not a zip"), "stores.xlsx", 1)
	assert.ErrorIs(t, err, model.ErrMalformedDataset)
}
