// Package engine filters a compound Dataset and derives summary metrics.
// Everything here is a pure function of its inputs.
package engine

import (
	"strings"

	"molintel/domain/compound"
)

// Apply filters the dataset with the conjunction of all set criteria and
// computes metrics over the result. The view keeps dataset order and the
// input dataset is never modified.
func Apply(ds compound.Dataset, criteria compound.Criteria) (compound.View, compound.Metrics) {
	view := Filter(ds, criteria)
	return view, Summarize(view)
}

// Filter returns the order-preserving subsequence of ds matching criteria
func Filter(ds compound.Dataset, criteria compound.Criteria) compound.View {
	columns := append([]string(nil), ds.Columns...)
	matches := make([]compound.Compound, 0, len(ds.Compounds))

	match := newMatcher(criteria)
	for _, c := range ds.Compounds {
		if match(c) {
			matches = append(matches, c)
		}
	}
	return compound.View{Columns: columns, Compounds: matches}
}

// newMatcher builds a single predicate from the criteria. Unset criteria
// contribute nothing, so empty criteria match every compound.
func newMatcher(criteria compound.Criteria) func(compound.Compound) bool {
	var preds []func(compound.Compound) bool

	if criteria.Search != "" {
		needle := strings.ToLower(criteria.Search)
		preds = append(preds, func(c compound.Compound) bool {
			return strings.Contains(strings.ToLower(c.Name), needle)
		})
	}
	if criteria.Names != nil {
		names := criteria.Names
		preds = append(preds, func(c compound.Compound) bool {
			return names.Has(c.Name)
		})
	}
	if criteria.MW != nil {
		r := *criteria.MW
		preds = append(preds, func(c compound.Compound) bool {
			return r.Contains(c.MW)
		})
	}
	if criteria.LogP != nil {
		r := *criteria.LogP
		preds = append(preds, func(c compound.Compound) bool {
			return r.Contains(c.LogP)
		})
	}

	return func(c compound.Compound) bool {
		for _, p := range preds {
			if !p(c) {
				return false
			}
		}
		return true
	}
}

// DeriveBounds returns the observed min/max of MW and LogP. Bounds of an
// empty dataset are invalid.
func DeriveBounds(ds compound.Dataset) compound.Bounds {
	if len(ds.Compounds) == 0 {
		return compound.Bounds{}
	}
	first := ds.Compounds[0]
	b := compound.Bounds{
		MW:    compound.Range{Lo: first.MW, Hi: first.MW},
		LogP:  compound.Range{Lo: first.LogP, Hi: first.LogP},
		Valid: true,
	}
	for _, c := range ds.Compounds[1:] {
		b.MW.Lo = min(b.MW.Lo, c.MW)
		b.MW.Hi = max(b.MW.Hi, c.MW)
		b.LogP.Lo = min(b.LogP.Lo, c.LogP)
		b.LogP.Hi = max(b.LogP.Hi, c.LogP)
	}
	return b
}

// DefaultCriteria restricts nothing but spans the full observed ranges,
// which is what a freshly opened dashboard shows.
func DefaultCriteria(b compound.Bounds) compound.Criteria {
	if !b.Valid {
		return compound.Criteria{}
	}
	return compound.Criteria{}.WithMW(b.MW).WithLogP(b.LogP)
}
