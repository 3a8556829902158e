package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"molintel/domain/compound"
	"molintel/internal/errors"

	"github.com/xuri/excelize/v2"
)

// DataReader serves the compound table from an Excel or CSV file. It
// satisfies ports.CompoundSource.
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	sheet    string // xlsx only; "" means the first sheet
}

// NewDataReader creates a reader for an .xlsx or .csv file
func NewDataReader(filePath, sheet string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType, sheet: sheet}
}

// Describe names the source in logs and diagnostics
func (r *DataReader) Describe() string {
	return fmt.Sprintf("%s file %s", r.fileType, filepath.Base(r.filePath))
}

// FetchAll reads every row of the file. The file is opened and closed
// within the call.
func (r *DataReader) FetchAll(ctx context.Context) (*compound.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(r.filePath); err != nil {
		return nil, errors.SourceError(fmt.Sprintf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath), err)
	}

	var rows [][]string
	var err error
	start := time.Now()
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	default:
		rows, err = r.readExcelRows()
	}
	if err != nil {
		return nil, err
	}
	log.Printf("[DataReader] %s read in %.2fms (%d rows)", r.Describe(), float64(time.Since(start).Nanoseconds())/1e6, len(rows))

	return toRawTable(rows)
}

func (r *DataReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.SourceError("failed to open Excel file", err)
	}
	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.SourceError("Excel file has no sheets", nil)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.SourceError(fmt.Sprintf("failed to read sheet %s", sheet), err)
	}
	return rows, nil
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.SourceError("failed to open CSV file", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.SourceError("failed to read CSV file", err)
	}
	return rows, nil
}

// toRawTable uses the first row as header. Cells are kept as text; the
// loader does the numeric coercion.
func toRawTable(rows [][]string) (*compound.RawTable, error) {
	if len(rows) == 0 {
		return nil, errors.SourceError("file has no header row", nil)
	}
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	table := &compound.RawTable{
		Columns: headers,
		Rows:    make([][]interface{}, 0, len(rows)-1),
	}
	for _, row := range rows[1:] {
		values := make([]interface{}, len(headers))
		for j := range headers {
			if j < len(row) {
				values[j] = strings.TrimSpace(row[j])
			}
		}
		table.Rows = append(table.Rows, values)
	}
	return table, nil
}
