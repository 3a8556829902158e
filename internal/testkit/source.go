package testkit

import (
	"context"

	"molintel/domain/compound"
)

// StaticSource serves a fixed raw table in place of a database. Each
// FetchAll returns a fresh copy of the rows.
type StaticSource struct {
	name  string
	table *compound.RawTable
	err   error
	calls int
}

// NewStaticSource serves table under the given name
func NewStaticSource(name string, table *compound.RawTable) *StaticSource {
	return &StaticSource{name: name, table: table}
}

// NewFailingSource fails every fetch with err
func NewFailingSource(name string, err error) *StaticSource {
	return &StaticSource{name: name, err: err}
}

// Describe names the source
func (s *StaticSource) Describe() string {
	return s.name
}

// Calls reports how many times FetchAll ran
func (s *StaticSource) Calls() int {
	return s.calls
}

// FetchAll returns a copy of the table, or the configured error
func (s *StaticSource) FetchAll(ctx context.Context) (*compound.RawTable, error) {
	s.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	out := &compound.RawTable{
		Columns: append([]string(nil), s.table.Columns...),
		Rows:    make([][]interface{}, len(s.table.Rows)),
	}
	for i, row := range s.table.Rows {
		out.Rows[i] = append([]interface{}(nil), row...)
	}
	return out, nil
}
