package loader

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"molintel/domain/compound"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCompoundSource is a testify mock of ports.CompoundSource
type MockCompoundSource struct {
	mock.Mock
}

func (m *MockCompoundSource) FetchAll(ctx context.Context) (*compound.RawTable, error) {
	args := m.Called(ctx)
	table, _ := args.Get(0).(*compound.RawTable)
	return table, args.Error(1)
}

func (m *MockCompoundSource) Describe() string {
	return "mock source"
}

func fixedClock() time.Time {
	return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
}

func TestClean_DropsUnparseableValues(t *testing.T) {
	raw := &compound.RawTable{
		Columns: []string{"Name", "MW", "LogP"},
		Rows: [][]interface{}{
			{"Ethanol", "12.5", "0.1"},
			{"Junk", "abc", "0.2"},
			{"Missing", nil, "0.3"},
		},
	}

	ds, dropped, err := Clean(raw, false)
	require.NoError(t, err)

	assert.Equal(t, 2, dropped)
	require.Len(t, ds.Compounds, 1)
	assert.Equal(t, "Ethanol", ds.Compounds[0].Name)
	assert.Equal(t, 12.5, ds.Compounds[0].MW)
}

func TestClean_DropsRowsWithBadLogP(t *testing.T) {
	raw := &compound.RawTable{
		Columns: []string{"Name", "MW", "LogP"},
		Rows: [][]interface{}{
			{"A", 100.0, "n/a"},
			{"B", 110.0, ""},
			{"C", 120.0, -1.5},
		},
	}

	ds, dropped, err := Clean(raw, false)
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, []string{"C"}, ds.Names())
}

func TestClean_SortVariants(t *testing.T) {
	raw := &compound.RawTable{
		Columns: []string{"Name", "MW", "LogP"},
		Rows: [][]interface{}{
			{"Aspirin", "180.16", "1.19"},
			{"Caffeine", "194.19", "-0.07"},
			{"Water", "18.015", "-1.38"},
			{"Glucose", "180.16", "-3.24"},
		},
	}

	sorted, _, err := Clean(raw, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Caffeine", "Aspirin", "Glucose", "Water"}, sorted.Names(),
		"MW descending, ties keep storage order")

	natural, _, err := Clean(raw, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Aspirin", "Caffeine", "Water", "Glucose"}, natural.Names())
}

func TestClean_PassthroughAndCaseFolding(t *testing.T) {
	raw := &compound.RawTable{
		Columns: []string{"id", "name", "formula", "mw", "logp"},
		Rows: [][]interface{}{
			{int64(7), []byte("Caffeine"), "C8H10N4O2", []byte("194.19"), "-0.07"},
		},
	}

	ds, _, err := Clean(raw, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "Name", "formula", "MW", "LogP"}, ds.Columns)
	require.Len(t, ds.Compounds, 1)
	c := ds.Compounds[0]
	assert.Equal(t, "Caffeine", c.Name)
	assert.Equal(t, "7", c.Extra["id"])
	assert.Equal(t, "C8H10N4O2", c.Extra["formula"])
	assert.Equal(t, "194.19", c.Value("MW"))
}

func TestClean_MissingColumn(t *testing.T) {
	raw := &compound.RawTable{Columns: []string{"Name", "MW"}}

	_, _, err := Clean(raw, false)
	require.Error(t, err)
	assert.True(t, compound.IsMissingColumnError(err))
}

func TestClean_ShortRowIsDropped(t *testing.T) {
	raw := &compound.RawTable{
		Columns: []string{"Name", "MW", "LogP"},
		Rows:    [][]interface{}{{"Truncated", "10"}},
	}
	ds, dropped, err := Clean(raw, false)
	require.NoError(t, err)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, 0, ds.Len())
}

func TestLoader_Load(t *testing.T) {
	source := new(MockCompoundSource)
	source.On("FetchAll", mock.Anything).Return(&compound.RawTable{
		Columns: []string{"Name", "MW", "LogP"},
		Rows: [][]interface{}{
			{"Aspirin", "180.16", "1.19"},
			{"Caffeine", "194.19", "-0.07"},
			{"Broken", "x", "1"},
		},
	}, nil).Once()

	l := New(source, true, WithClock(fixedClock))
	result := l.Load(context.Background())

	assert.False(t, result.Failed())
	assert.Equal(t, 3, result.Rows)
	assert.Equal(t, 1, result.Dropped)
	assert.Equal(t, fixedClock(), result.LoadedAt)
	assert.Equal(t, []string{"Caffeine", "Aspirin"}, result.Dataset.Names())
	source.AssertExpectations(t)
}

func TestLoader_Load_SourceFailureRecovers(t *testing.T) {
	source := new(MockCompoundSource)
	source.On("FetchAll", mock.Anything).Return(nil, stderrors.New("connection refused")).Once()

	result := New(source, true).Load(context.Background())

	assert.True(t, result.Failed())
	assert.Contains(t, result.Diagnostic, "connection refused")
	assert.Equal(t, 0, result.Dataset.Len())
	assert.Equal(t, []string{"Name", "MW", "LogP"}, result.Dataset.Columns)
}

func TestLoader_Load_BadSchemaRecovers(t *testing.T) {
	source := new(MockCompoundSource)
	source.On("FetchAll", mock.Anything).Return(&compound.RawTable{
		Columns: []string{"Name", "Weight"},
	}, nil).Once()

	result := New(source, false).Load(context.Background())

	assert.True(t, result.Failed())
	assert.Contains(t, result.Diagnostic, "MW")
	assert.Equal(t, 0, result.Dataset.Len())
}
