package table

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestRead_XLSXBasic(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"id", "latitude", "longitude", "value"},
			{"p1", "40.0", "-111.9", "12.5"},
			{"p2", "40.1", "-111.8", "3"},
		},
	})

	tbl, err := Read(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "latitude", "longitude", "value"}, tbl.Columns())
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "12.5", tbl.Get(0, "value"))
}

func TestRead_XLSXSheetByName(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Ignore": {{"wrong"}},
		"Points": {
			{"id", "value"},
			{"p1", "7"},
		},
	})

	tbl, err := Read(path, Options{Sheet: "Points"})
	require.NoError(t, err)
	assert.Equal(t, "7", tbl.Get(0, "value"))
}

func TestRead_XLSXSheetNotFound(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {{"a"}},
	})

	_, err := Read(path, Options{Sheet: "Missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
