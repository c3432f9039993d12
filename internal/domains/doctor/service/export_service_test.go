package service

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/bcmedia-dr/doctor-management-system/internal/domains/doctor/model"
)

func TestExporter_Build(t *testing.T) {
	doctors := sampleDoctors()

	f, err := NewExporter().Build(doctors)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{exportSheetName}, f.GetSheetList())

	rows, err := f.GetRows(exportSheetName)
	require.NoError(t, err)
	require.Len(t, rows, len(doctors)+1)

	assert.Equal(t, canonicalLabels(), rows[0])

	first := rows[1]
	assert.Equal(t, "1", first[0])
	assert.Equal(t, "Wang Da-Ming", first[1])
	assert.Equal(t, "wang@example.com", first[2])
	assert.Equal(t, "contracted", first[5])
	assert.Equal(t, "Ms. Lin", first[6])
	assert.Equal(t, "https://social.example/wang", first[10])
	assert.Equal(t, "2024-01-02 09:30:00", first[11])

	// Absent optional values are written as empty cells, never as a marker.
	third := rows[3]
	assert.Equal(t, "3", third[0])
	assert.Equal(t, "Chen Zhi-Ming", third[1])
	for _, idx := range []int{2, 3, 4, 6, 7, 8, 9, 10} {
		v := ""
		if idx < len(third) {
			v = third[idx]
		}
		assert.Empty(t, v, "column %d", idx)
	}
}

func TestExporter_Layout(t *testing.T) {
	f, err := NewExporter().Build(sampleDoctors())
	require.NoError(t, err)
	defer f.Close()

	panes, err := f.GetPanes(exportSheetName)
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
	assert.Equal(t, 1, panes.YSplit)
	assert.Equal(t, "A2", panes.TopLeftCell)

	width, err := f.GetColWidth(exportSheetName, "C")
	require.NoError(t, err)
	assert.Equal(t, CanonicalColumns[2].Width, width)

	styleID, err := f.GetCellStyle(exportSheetName, "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)
	assert.Equal(t, float64(12), style.Font.Size)
	assert.Len(t, style.Fill.Color, 1)
}

func TestExporter_EmptyList(t *testing.T) {
	data, err := NewExporter().Bytes(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, canonicalLabels(), rows[0])
}

func TestExporter_SaveAs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doctors.xlsx")
	require.NoError(t, NewExporter().SaveAs(path, sampleDoctors()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestExporter_SaveAsBadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "doctors.xlsx")
	err := NewExporter().SaveAs(path, []model.Doctor{{Name: "x", Status: model.StatusNotContacted}})
	assert.Error(t, err)
}
