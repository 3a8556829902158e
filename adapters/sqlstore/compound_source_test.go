package sqlstore

import (
	"context"
	"path/filepath"
	"testing"

	"molintel/domain/compound"
	"molintel/internal/errors"
	"molintel/internal/loader"
	"molintel/internal/migration"
	"molintel/internal/testkit"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open(context.Background(), "sqlite3", filepath.Join(t.TempDir(), "compounds.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seededDB(t *testing.T, table *compound.RawTable) *sqlx.DB {
	t.Helper()
	db := openTestDB(t)
	runner := migration.NewRunner(compound.DefaultTable)
	require.NoError(t, runner.Run(context.Background(), db))
	n, err := runner.Seed(context.Background(), db, table)
	require.NoError(t, err)
	require.Equal(t, len(table.Rows), n)
	return db
}

func TestCompoundSource_FetchAll(t *testing.T) {
	db := seededDB(t, &compound.RawTable{
		Columns: []string{"Name", "MW", "LogP"},
		Rows: [][]interface{}{
			{"Aspirin", "180.16", "1.19"},
			{"Caffeine", "194.19", "-0.07"},
			{"Unknown", "abc", "1"},
			{"Blank", nil, "1"},
		},
	})

	source := NewCompoundSource(db, compound.DefaultTable)
	assert.Equal(t, "sqlite3 table Compounds_Master", source.Describe())

	raw, err := source.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "Name", "Formula", "MW", "LogP", "Source"}, raw.Columns)
	require.Len(t, raw.Rows, 4)

	ds, dropped, err := loader.Clean(raw, true)
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, []string{"Caffeine", "Aspirin"}, ds.Names())
	assert.Equal(t, "1", ds.Compounds[1].Extra["id"])
}

func TestCompoundSource_GeneratedTable(t *testing.T) {
	generated := testkit.NewCompoundGenerator(testkit.DefaultCompoundConfig()).GenerateTable()
	db := seededDB(t, generated)

	result := loader.New(NewCompoundSource(db, compound.DefaultTable), false).Load(context.Background())
	require.False(t, result.Failed(), result.Diagnostic)

	expected, dropped, err := loader.Clean(generated, false)
	require.NoError(t, err)
	assert.Equal(t, dropped, result.Dropped)
	assert.Equal(t, expected.Names(), result.Dataset.Names(), "storage order is preserved")
}

func TestCompoundSource_MissingTable(t *testing.T) {
	db := openTestDB(t)
	_, err := NewCompoundSource(db, "No_Such_Table").FetchAll(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))
}

func TestLoader_RecoversFromMissingTable(t *testing.T) {
	db := openTestDB(t)
	result := loader.New(NewCompoundSource(db, "No_Such_Table"), true).Load(context.Background())

	assert.True(t, result.Failed())
	assert.Contains(t, result.Diagnostic, "No_Such_Table")
	assert.Equal(t, 0, result.Dataset.Len())
}

func TestOpen_RequiresURL(t *testing.T) {
	_, err := Open(context.Background(), "sqlite3", "")
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestMigration_ResetIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	runner := migration.NewRunner(compound.DefaultTable)
	require.NoError(t, runner.Reset(context.Background(), db))
	require.NoError(t, runner.Run(context.Background(), db))
	require.NoError(t, runner.Run(context.Background(), db))
	require.NoError(t, runner.Reset(context.Background(), db))
}
