package compound

import (
	"encoding/json"
	"math"
	"time"
)

// Canonical column names of the compound table
const (
	ColumnName = "Name"
	ColumnMW   = "MW"
	ColumnLogP = "LogP"
)

// DefaultTable is the compound master table queried by the loader
const DefaultTable = "Compounds_Master"

// Compound is one row of the compound table after numeric coercion
type Compound struct {
	Name  string            `json:"name"`
	MW    float64           `json:"mw"`
	LogP  float64           `json:"logp"`
	Extra map[string]string `json:"extra,omitempty"` // passthrough columns, keyed by source column name
}

// Value returns the textual value of any column, formatting MW and LogP
// the same way the CSV export does.
func (c Compound) Value(column string) string {
	switch column {
	case ColumnName:
		return c.Name
	case ColumnMW:
		return FormatNumber(c.MW)
	case ColumnLogP:
		return FormatNumber(c.LogP)
	default:
		return c.Extra[column]
	}
}

// Dataset is the cleaned, ordered compound table
type Dataset struct {
	Columns   []string   `json:"columns"`
	Compounds []Compound `json:"compounds"`
}

// EmptyDataset returns a dataset with the canonical columns and no rows
func EmptyDataset() Dataset {
	return Dataset{
		Columns:   []string{ColumnName, ColumnMW, ColumnLogP},
		Compounds: []Compound{},
	}
}

// Len returns the number of compounds
func (d Dataset) Len() int {
	return len(d.Compounds)
}

// Names returns every distinct compound name in dataset order
func (d Dataset) Names() []string {
	seen := make(map[string]bool, len(d.Compounds))
	names := make([]string, 0, len(d.Compounds))
	for _, c := range d.Compounds {
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		names = append(names, c.Name)
	}
	return names
}

// View is an order-preserving projection of a Dataset. It shares no
// mutable state with the dataset it was derived from.
type View struct {
	Columns   []string   `json:"columns"`
	Compounds []Compound `json:"compounds"`
}

// Len returns the number of compounds in the view
func (v View) Len() int {
	return len(v.Compounds)
}

// Head returns at most n leading compounds of the view
func (v View) Head(n int) []Compound {
	if n < 0 || n >= len(v.Compounds) {
		return v.Compounds
	}
	return v.Compounds[:n]
}

// AsDataset lets a view be filtered again
func (v View) AsDataset() Dataset {
	return Dataset{Columns: v.Columns, Compounds: v.Compounds}
}

// Optional is a float that may be absent, e.g. the mean of an empty view
type Optional struct {
	Value float64
	Valid bool
}

// Some wraps a present value
func Some(v float64) Optional {
	return Optional{Value: v, Valid: true}
}

// None is the absent value
func None() Optional {
	return Optional{}
}

// Or returns the value or the fallback when absent
func (o Optional) Or(fallback float64) float64 {
	if !o.Valid {
		return fallback
	}
	return o.Value
}

// Round returns the value rounded to the given decimal places, or "—"
// when absent.
func (o Optional) Round(places int) string {
	if !o.Valid {
		return "—"
	}
	p := math.Pow(10, float64(places))
	return FormatNumber(math.Round(o.Value*p) / p)
}

func (o Optional) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func (o *Optional) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = None()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// Trend is the least-squares fit of LogP on MW over a view
type Trend struct {
	Correlation float64 `json:"correlation"`
	Slope       float64 `json:"slope"`
	Intercept   float64 `json:"intercept"`
}

// Metrics are the scalar aggregates derived from a view
type Metrics struct {
	Count    int      `json:"count"`
	MeanMW   Optional `json:"mean_mw"`
	MaxLogP  Optional `json:"max_logp"`
	MinMW    Optional `json:"min_mw"`
	MaxMW    Optional `json:"max_mw"`
	MedianMW Optional `json:"median_mw"`
	StdDevMW Optional `json:"stddev_mw"`
	MeanLogP Optional `json:"mean_logp"`
	Trend    *Trend   `json:"trend,omitempty"`
}

// Bounds are the observed min/max of both numeric columns over a dataset.
// They seed the default filter ranges.
type Bounds struct {
	MW    Range `json:"mw"`
	LogP  Range `json:"logp"`
	Valid bool  `json:"valid"`
}

// LoadResult is what a single loader pass produced. A non-empty
// Diagnostic means the load failed and Dataset is the empty dataset.
type LoadResult struct {
	Dataset    Dataset   `json:"-"`
	Rows       int       `json:"rows"`
	Dropped    int       `json:"dropped"`
	LoadedAt   time.Time `json:"loaded_at"`
	Diagnostic string    `json:"diagnostic,omitempty"`
}

// Failed reports whether the load recovered from an error
func (r LoadResult) Failed() bool {
	return r.Diagnostic != ""
}
