package export

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Report"

// XLSXExporter renders datasets into a single-sheet workbook.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render writes headers on the first row (after an optional title row) and one row per record.
// Numeric-looking cells are stored as numbers so spreadsheets can aggregate them.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate("xlsx"); err != nil {
		return nil, err
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	row := 1
	if data.Title != "" {
		if err := f.SetCellValue(sheetName, "A1", data.Title); err != nil {
			return nil, fmt.Errorf("write xlsx title: %w", err)
		}
		row = 2
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create xlsx style: %w", err)
	}
	headerCells := make([]interface{}, len(data.Headers))
	for i, h := range data.Headers {
		headerCells[i] = h
	}
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return nil, err
	}
	last, err := excelize.CoordinatesToCellName(len(data.Headers), row)
	if err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheetName, first, &headerCells); err != nil {
		return nil, fmt.Errorf("write xlsx headers: %w", err)
	}
	if err := f.SetCellStyle(sheetName, first, last, bold); err != nil {
		return nil, fmt.Errorf("style xlsx headers: %w", err)
	}

	for _, record := range data.Rows {
		row++
		cells := make([]interface{}, len(data.Headers))
		for i, h := range data.Headers {
			cells[i] = cellValue(record[h])
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
			return nil, fmt.Errorf("write xlsx row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// identifiers such as roll number "007" keep their leading zeros
func cellValue(raw string) interface{} {
	if len(raw) > 1 && raw[0] == '0' && raw[1] != '.' {
		return raw
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	return raw
}
