// Package export renders a filtered view as delimited text and reads it
// back.
package export

import (
	"bytes"
	"encoding/csv"
	"io"

	"molintel/domain/compound"
	"molintel/internal/errors"
	"molintel/internal/loader"
)

// CSVFileName is the download name of the CSV export
const CSVFileName = "chemical_master_report.csv"

// WriteCSV writes a header row with the view's columns followed by one row
// per compound in view order
func WriteCSV(w io.Writer, view compound.View) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(view.Columns); err != nil {
		return errors.ExportError("csv", err)
	}
	record := make([]string, len(view.Columns))
	for _, c := range view.Compounds {
		for i, col := range view.Columns {
			record[i] = c.Value(col)
		}
		if err := cw.Write(record); err != nil {
			return errors.ExportError("csv", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.ExportError("csv", err)
	}
	return nil
}

// CSVBytes is WriteCSV into memory
func CSVBytes(view compound.View) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, view); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseCSV reads an export back into a view. MW and LogP are coerced the
// same way the loader coerces them; rows that fail are dropped.
func ParseCSV(r io.Reader) (compound.View, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return compound.View{}, errors.Wrap(err, "failed to read CSV")
	}
	if len(rows) == 0 {
		return compound.View{}, errors.InvalidInput("CSV has no header row")
	}

	raw := &compound.RawTable{Columns: rows[0]}
	for _, row := range rows[1:] {
		values := make([]interface{}, len(row))
		for i, v := range row {
			values[i] = v
		}
		raw.Rows = append(raw.Rows, values)
	}

	ds, _, err := loader.Clean(raw, false)
	if err != nil {
		return compound.View{}, errors.Wrap(err, "CSV is not a compound table")
	}
	return compound.View{Columns: ds.Columns, Compounds: ds.Compounds}, nil
}
