// Package tableexport renders the tables extracted from a document as CSV or
// XLSX for spreadsheet tooling.
package tableexport

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"docstruct/internal/doctags"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes every table to w as CSV. Tables are separated by a blank
// line; a caption, when present, becomes a single-cell row above its table.
func WriteCSV(w io.Writer, tables []*doctags.Table) error {
	if _, err := w.Write(BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	for i, t := range tables {
		if i > 0 {
			cw.Flush()
			if err := cw.Error(); err != nil {
				return err
			}
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if t.Caption != "" {
			if err := cw.Write([]string{t.Caption}); err != nil {
				return err
			}
		}
		for _, row := range t.Grid() {
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the tables to w as an xlsx workbook, one sheet per table.
func WriteXLSX(w io.Writer, tables []*doctags.Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, t := range tables {
		sheet := fmt.Sprintf("Table %d", i+1)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return err
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return err
			}
		}
		rowOffset := 0
		if t.Caption != "" {
			cell, err := excelize.CoordinatesToCellName(1, 1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, t.Caption); err != nil {
				return err
			}
			rowOffset = 1
		}
		for r, row := range t.Grid() {
			for c, val := range row {
				cell, err := excelize.CoordinatesToCellName(c+1, r+rowOffset+1)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(sheet, cell, val); err != nil {
					return err
				}
			}
		}
	}
	return f.Write(w)
}

// RenderCSV renders to a byte slice.
func RenderCSV(tables []*doctags.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, tables); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderXLSX renders to a byte slice.
func RenderXLSX(tables []*doctags.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, tables); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
