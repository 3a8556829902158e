package dashboard

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"molintel/domain/compound"
	"molintel/internal/cache"
	"molintel/internal/engine"
	"molintel/internal/loader"
	"molintel/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	table *compound.RawTable
	err   error
	calls int
}

func (s *stubSource) FetchAll(ctx context.Context) (*compound.RawTable, error) {
	s.calls++
	return s.table, s.err
}

func (s *stubSource) Describe() string { return "stub" }

func newService(source *stubSource) *Service {
	memo := cache.NewMemo(loader.New(source, true), time.Minute)
	return NewService(memo)
}

func demoTable() *compound.RawTable {
	return testkit.NewCompoundGenerator(testkit.CompoundGeneratorConfig{
		SyntheticCount:   20,
		InvalidRate:      0.2,
		IncludeReference: true,
		Seed:             3,
	}).GenerateTable()
}

func TestRun_OK(t *testing.T) {
	source := &stubSource{table: demoTable()}
	svc := newService(source)

	result := svc.Run(context.Background(), Request{Criteria: compound.Criteria{Search: "caffeine"}})

	assert.True(t, result.Outcome.OK())
	assert.NotEmpty(t, result.ID)
	require.Equal(t, 1, result.Metrics.Count)
	assert.Equal(t, "Caffeine", result.View.Compounds[0].Name)
	assert.True(t, result.Bounds.Valid)
	assert.Contains(t, result.Names, "Aspirin")
	assert.Equal(t, len(demoTable().Rows), result.Load.Rows)
	assert.Equal(t, result.Load.Rows-result.Load.Dropped, result.Load.Total)
	assert.False(t, result.Load.Cached)
}

func TestRun_UsesCacheUntilRefresh(t *testing.T) {
	source := &stubSource{table: demoTable()}
	svc := newService(source)

	svc.Run(context.Background(), Request{})
	second := svc.Run(context.Background(), Request{})
	assert.True(t, second.Load.Cached)
	assert.Equal(t, 1, source.calls)

	third := svc.Run(context.Background(), Request{Refresh: true})
	assert.False(t, third.Load.Cached)
	assert.Equal(t, 2, source.calls)

	svc.Invalidate()
	svc.Run(context.Background(), Request{})
	assert.Equal(t, 3, source.calls)
}

func TestRun_LoadFailureIsRecovered(t *testing.T) {
	source := &stubSource{err: stderrors.New("login timeout")}
	svc := newService(source)

	result := svc.Run(context.Background(), Request{Criteria: compound.Criteria{Search: "a"}})

	assert.Equal(t, StatusRecovered, result.Outcome.Status)
	assert.Contains(t, result.Outcome.Message, "login timeout")
	assert.Equal(t, 0, result.Metrics.Count)
	assert.False(t, result.Metrics.MeanMW.Valid)
	assert.False(t, result.Bounds.Valid)
	assert.Equal(t, []string{"Name", "MW", "LogP"}, result.View.Columns)
}

func TestRun_PanicBecomesFatalOutcome(t *testing.T) {
	source := &stubSource{table: demoTable()}
	svc := newService(source)
	svc.apply = func(compound.Dataset, compound.Criteria) (compound.View, compound.Metrics) {
		panic("index out of range")
	}

	result := svc.Run(context.Background(), Request{})

	assert.Equal(t, StatusFatal, result.Outcome.Status)
	assert.Contains(t, result.Outcome.Message, "index out of range")
	assert.Equal(t, 0, result.View.Len())
	assert.Equal(t, 0, result.Metrics.Count)

	// the service stays usable for the next pass
	svc.apply = engine.Apply
	next := svc.Run(context.Background(), Request{})
	assert.True(t, next.Outcome.OK())
	assert.NotZero(t, next.Metrics.Count)
}
