// Package loader turns the raw compound table into a cleaned Dataset:
// MW and LogP are coerced to numbers and rows that fail coercion are
// dropped.
package loader

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"molintel/domain/compound"
	"molintel/internal"
	"molintel/internal/coerce"
	"molintel/internal/errors"
	"molintel/ports"
)

// Loader implements ports.CompoundLoader over a CompoundSource
type Loader struct {
	source   ports.CompoundSource
	sortByMW bool
	now      func() time.Time
	logger   *internal.Logger
}

// Option configures a Loader
type Option func(*Loader)

// WithClock overrides time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(l *Loader) { l.now = now }
}

// WithLogger replaces the default logger
func WithLogger(logger *internal.Logger) Option {
	return func(l *Loader) { l.logger = logger.With("Loader") }
}

// New creates a loader. With sortByMW the dataset is ordered by MW
// descending; otherwise storage order is kept.
func New(source ports.CompoundSource, sortByMW bool, opts ...Option) *Loader {
	l := &Loader{
		source:   source,
		sortByMW: sortByMW,
		now:      time.Now,
		logger:   internal.DefaultLogger.With("Loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load runs the single query and cleans the result. It never returns an
// error: failures yield the empty dataset and a diagnostic message.
func (l *Loader) Load(ctx context.Context) compound.LoadResult {
	start := l.now()
	result := compound.LoadResult{
		Dataset:  compound.EmptyDataset(),
		LoadedAt: start,
	}

	raw, err := l.source.FetchAll(ctx)
	if err != nil {
		err = errors.Wrapf(err, "failed to query %s", l.source.Describe())
		l.logger.Error("%v", err)
		result.Diagnostic = fmt.Sprintf("Database connection error: %v", err)
		return result
	}

	ds, dropped, err := Clean(raw, l.sortByMW)
	if err != nil {
		l.logger.Error("%s returned an unusable table: %v", l.source.Describe(), err)
		result.Diagnostic = fmt.Sprintf("Compound table error: %v", err)
		return result
	}

	result.Dataset = ds
	result.Rows = len(raw.Rows)
	result.Dropped = dropped
	if dropped > 0 {
		l.logger.Debug("dropped %d of %d rows with non-numeric MW or LogP", dropped, len(raw.Rows))
	}
	l.logger.Info("loaded %d compounds from %s in %s", ds.Len(), l.source.Describe(), l.now().Sub(start))
	return result
}

type columnLayout struct {
	name, mw, logp int
	columns        []string
}

// resolveColumns finds Name, MW and LogP case-insensitively, since some
// engines fold unquoted identifiers to lower case. The key columns take
// their canonical spelling in the returned column list.
func resolveColumns(raw *compound.RawTable) (columnLayout, error) {
	layout := columnLayout{name: -1, mw: -1, logp: -1, columns: make([]string, len(raw.Columns))}
	for i, col := range raw.Columns {
		layout.columns[i] = col
		switch {
		case layout.name < 0 && strings.EqualFold(col, compound.ColumnName):
			layout.name = i
			layout.columns[i] = compound.ColumnName
		case layout.mw < 0 && strings.EqualFold(col, compound.ColumnMW):
			layout.mw = i
			layout.columns[i] = compound.ColumnMW
		case layout.logp < 0 && strings.EqualFold(col, compound.ColumnLogP):
			layout.logp = i
			layout.columns[i] = compound.ColumnLogP
		}
	}
	switch {
	case layout.name < 0:
		return layout, compound.NewMissingColumnError(compound.ColumnName)
	case layout.mw < 0:
		return layout, compound.NewMissingColumnError(compound.ColumnMW)
	case layout.logp < 0:
		return layout, compound.NewMissingColumnError(compound.ColumnLogP)
	}
	return layout, nil
}

// Clean coerces MW and LogP on every row and drops rows where either is
// absent. It returns the dataset and the number of dropped rows.
func Clean(raw *compound.RawTable, sortByMW bool) (compound.Dataset, int, error) {
	if raw == nil {
		return compound.EmptyDataset(), 0, nil
	}
	layout, err := resolveColumns(raw)
	if err != nil {
		return compound.EmptyDataset(), 0, err
	}

	ds := compound.Dataset{
		Columns:   layout.columns,
		Compounds: make([]compound.Compound, 0, len(raw.Rows)),
	}
	dropped := 0
	for _, row := range raw.Rows {
		c, ok := cleanRow(row, layout)
		if !ok {
			dropped++
			continue
		}
		ds.Compounds = append(ds.Compounds, c)
	}

	if sortByMW {
		sort.SliceStable(ds.Compounds, func(i, j int) bool {
			return ds.Compounds[i].MW > ds.Compounds[j].MW
		})
	}
	return ds, dropped, nil
}

func cleanRow(row []interface{}, layout columnLayout) (compound.Compound, bool) {
	at := func(i int) interface{} {
		if i < len(row) {
			return row[i]
		}
		return nil
	}

	mw, ok := coerce.Number(at(layout.mw))
	if !ok {
		return compound.Compound{}, false
	}
	logp, ok := coerce.Number(at(layout.logp))
	if !ok {
		return compound.Compound{}, false
	}

	c := compound.Compound{
		Name: coerce.Text(at(layout.name)),
		MW:   mw,
		LogP: logp,
	}
	for i, col := range layout.columns {
		if i == layout.name || i == layout.mw || i == layout.logp {
			continue
		}
		if c.Extra == nil {
			c.Extra = make(map[string]string, len(layout.columns)-3)
		}
		c.Extra[col] = coerce.Text(at(i))
	}
	return c, true
}
