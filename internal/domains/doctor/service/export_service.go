package service

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/bcmedia-dr/doctor-management-system/internal/domains/doctor/model"
)

const exportSheetName = "Doctors"

// Exporter renders doctors into a styled workbook using CanonicalColumns.
type Exporter struct {
	columns []Column
	sheet   string
}

func NewExporter() *Exporter {
	return &Exporter{columns: CanonicalColumns, sheet: exportSheetName}
}

// Build creates the workbook in memory. The caller owns the returned file.
func (e *Exporter) Build(doctors []model.Doctor) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := e.fill(f, doctors); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// WriteTo streams the workbook to w.
func (e *Exporter) WriteTo(w io.Writer, doctors []model.Doctor) error {
	f, err := e.Build(doctors)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Bytes returns the encoded workbook.
func (e *Exporter) Bytes(doctors []model.Doctor) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.WriteTo(&buf, doctors); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveAs writes the workbook to path.
func (e *Exporter) SaveAs(path string, doctors []model.Doctor) error {
	f, err := e.Build(doctors)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func (e *Exporter) fill(f *excelize.File, doctors []model.Doctor) error {
	if err := f.SetSheetName("Sheet1", e.sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(e.columns))
	for i, col := range e.columns {
		header[i] = col.Label
	}
	if err := f.SetSheetRow(e.sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := range doctors {
		row := make([]interface{}, len(e.columns))
		for j, col := range e.columns {
			row[j] = col.export(i, &doctors[i])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(e.sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	return e.applyLayout(f, len(doctors))
}

func (e *Exporter) applyLayout(f *excelize.File, rowCount int) error {
	borders := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 12},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    borders,
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	dataStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
		Border:    borders,
	})
	if err != nil {
		return fmt.Errorf("create data style: %w", err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(e.columns))
	if err != nil {
		return err
	}

	if err := f.SetCellStyle(e.sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if rowCount > 0 {
		if err := f.SetCellStyle(e.sheet, "A2", fmt.Sprintf("%s%d", lastCol, rowCount+1), dataStyle); err != nil {
			return fmt.Errorf("style rows: %w", err)
		}
	}

	for i, col := range e.columns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(e.sheet, name, name, col.Width); err != nil {
			return fmt.Errorf("set width %s: %w", name, err)
		}
	}

	return f.SetPanes(e.sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
