package sqlstore

import (
	"context"
	"fmt"

	"molintel/domain/compound"
	"molintel/internal/errors"

	"github.com/jmoiron/sqlx"
)

// CompoundSource runs SELECT * against the compound table. It satisfies
// ports.CompoundSource.
type CompoundSource struct {
	db    *sqlx.DB
	table string
}

// NewCompoundSource creates a source over table. The table name is
// interpolated into SQL and must already be validated.
func NewCompoundSource(db *sqlx.DB, table string) *CompoundSource {
	return &CompoundSource{db: db, table: table}
}

// Describe names the source in logs and diagnostics
func (s *CompoundSource) Describe() string {
	return fmt.Sprintf("%s table %s", s.db.DriverName(), s.table)
}

// FetchAll acquires one connection, reads every row of the table and
// releases the connection before returning.
func (s *CompoundSource) FetchAll(ctx context.Context) (*compound.RawTable, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, errors.DatabaseError("failed to acquire connection", err)
	}
	defer conn.Close()

	rows, err := conn.QueryxContext(ctx, "SELECT * FROM "+s.table)
	if err != nil {
		return nil, errors.DatabaseError(fmt.Sprintf("failed to query %s", s.table), err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.DatabaseError("failed to read columns", err)
	}

	table := &compound.RawTable{Columns: columns}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, errors.DatabaseError("failed to scan row", err)
		}
		table.Rows = append(table.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("failed to iterate rows", err)
	}
	return table, nil
}
