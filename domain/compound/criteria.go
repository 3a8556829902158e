package compound

import (
	"fmt"
	"math"
)

// Range is an inclusive numeric interval
type Range struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// NewRange builds a range, swapping the bounds when given in reverse order.
// NaN bounds are rejected.
func NewRange(lo, hi float64) (Range, error) {
	if math.IsNaN(lo) || math.IsNaN(hi) {
		return Range{}, fmt.Errorf("%w: NaN bound", ErrInvalidRange)
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return Range{Lo: lo, Hi: hi}, nil
}

// Contains is inclusive on both ends
func (r Range) Contains(v float64) bool {
	return v >= r.Lo && v <= r.Hi
}

// NameSet is an explicit inclusion set over compound names
type NameSet map[string]struct{}

// NewNameSet builds a set from names; an empty argument list yields a
// present-but-empty set, which matches nothing.
func NewNameSet(names ...string) NameSet {
	set := make(NameSet, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// Has reports membership
func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Criteria is the filter state of one rendering pass. Every predicate is
// optional; a nil field places no restriction on the view.
type Criteria struct {
	Search string  // case-insensitive substring of Name, "" matches all
	Names  NameSet // nil = absent (match all), empty = match nothing
	MW     *Range
	LogP   *Range
}

// IsEmpty reports whether the criteria restrict nothing
func (c Criteria) IsEmpty() bool {
	return c.Search == "" && c.Names == nil && c.MW == nil && c.LogP == nil
}

// WithMW returns a copy restricted to the given MW range
func (c Criteria) WithMW(r Range) Criteria {
	c.MW = &r
	return c
}

// WithLogP returns a copy restricted to the given LogP range
func (c Criteria) WithLogP(r Range) Criteria {
	c.LogP = &r
	return c
}
