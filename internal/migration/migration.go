package migration

import (
	"context"
	"fmt"

	"molintel/domain/compound"
	"molintel/internal/errors"

	"github.com/jmoiron/sqlx"
)

// MigrationRunner creates and seeds the compound table for development.
// The dashboard itself only ever reads.
type MigrationRunner struct {
	version string
	table   string
}

// NewRunner creates a migration runner for table
func NewRunner(table string) *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
		table:   table,
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run creates the compound table if it does not exist. MW and LogP are
// text columns, the way the upstream registry stores them, so the loader's
// coercion is exercised.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createCompoundsTable(ctx, db); err != nil {
		return errors.Wrapf(err, "failed to create %s table", r.table)
	}
	return nil
}

func (r *MigrationRunner) createCompoundsTable(ctx context.Context, db *sqlx.DB) error {
	idColumn := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.DriverName() == "postgres" {
		idColumn = "id SERIAL PRIMARY KEY"
	}
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			%s,
			Name TEXT NOT NULL,
			Formula TEXT,
			MW TEXT,
			LogP TEXT,
			Source TEXT
		)
	`, r.table, idColumn))
	if err != nil {
		return errors.DatabaseError("create table failed", err)
	}
	return nil
}

// Reset drops the compound table
func (r *MigrationRunner) Reset(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+r.table); err != nil {
		return errors.DatabaseError(fmt.Sprintf("failed to drop %s", r.table), err)
	}
	return nil
}

// Seed inserts the rows of table in one transaction. Columns are matched
// by name; Name, Formula, MW, LogP and Source are recognised.
func (r *MigrationRunner) Seed(ctx context.Context, db *sqlx.DB, table *compound.RawTable) (int, error) {
	idx := map[string]int{}
	for _, col := range []string{"Name", "Formula", "MW", "LogP", "Source"} {
		idx[col] = table.ColumnIndex(col)
	}
	if idx["Name"] < 0 {
		return 0, compound.NewMissingColumnError("Name")
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.DatabaseError("failed to begin seed transaction", err)
	}
	defer tx.Rollback()

	query := tx.Rebind(fmt.Sprintf(
		"INSERT INTO %s (Name, Formula, MW, LogP, Source) VALUES (?, ?, ?, ?, ?)", r.table))
	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return 0, errors.DatabaseError("failed to prepare seed insert", err)
	}
	defer stmt.Close()

	value := func(row []interface{}, col string) interface{} {
		i := idx[col]
		if i < 0 || i >= len(row) {
			return nil
		}
		return row[i]
	}

	for n, row := range table.Rows {
		if _, err := stmt.ExecContext(ctx,
			value(row, "Name"), value(row, "Formula"), value(row, "MW"), value(row, "LogP"), value(row, "Source"),
		); err != nil {
			return n, errors.DatabaseError(fmt.Sprintf("failed to insert row %d", n+1), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.DatabaseError("failed to commit seed", err)
	}
	return len(table.Rows), nil
}
