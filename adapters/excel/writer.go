package excel

import (
	"io"

	"molintel/domain/compound"
	"molintel/internal/errors"

	"github.com/xuri/excelize/v2"
)

// WorkbookFileName is the download name of the XLSX export
const WorkbookFileName = "chemical_master_report.xlsx"

// SheetName is the sheet the export writes to
const SheetName = "Compounds"

// WriteWorkbook writes the view as a single-sheet workbook: a bold header
// row with the view's columns, then one row per compound. MW and LogP are
// numeric cells; passthrough columns are text.
func WriteWorkbook(w io.Writer, view compound.View) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return errors.ExportError("xlsx", err)
	}

	header := make([]interface{}, len(view.Columns))
	for i, col := range view.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return errors.ExportError("xlsx", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.ExportError("xlsx", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return errors.ExportError("xlsx", err)
	}

	for i, c := range view.Compounds {
		row := make([]interface{}, len(view.Columns))
		for j, col := range view.Columns {
			switch col {
			case compound.ColumnMW:
				row[j] = c.MW
			case compound.ColumnLogP:
				row[j] = c.LogP
			default:
				row[j] = c.Value(col)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.ExportError("xlsx", err)
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return errors.ExportError("xlsx", err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return errors.ExportError("xlsx", err)
	}

	if err := f.Write(w); err != nil {
		return errors.ExportError("xlsx", err)
	}
	return nil
}
