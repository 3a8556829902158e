package compound

// RawTable is an uncoerced result set: the source's column names in order
// and one value slice per row, aligned with Columns.
type RawTable struct {
	Columns []string
	Rows    [][]interface{}
}

// ColumnIndex returns the position of a column, or -1
func (t *RawTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}
