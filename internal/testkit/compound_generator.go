package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"molintel/domain/compound"
)

// Reference compounds with literature MW and LogP values
var ReferenceCompounds = []compound.Compound{
	{Name: "Aspirin", MW: 180.16, LogP: 1.19, Extra: map[string]string{"Formula": "C9H8O4"}},
	{Name: "Caffeine", MW: 194.19, LogP: -0.07, Extra: map[string]string{"Formula": "C8H10N4O2"}},
	{Name: "Ibuprofen", MW: 206.28, LogP: 3.97, Extra: map[string]string{"Formula": "C13H18O2"}},
	{Name: "Paracetamol", MW: 151.16, LogP: 0.46, Extra: map[string]string{"Formula": "C8H9NO2"}},
	{Name: "Ethanol", MW: 46.07, LogP: -0.31, Extra: map[string]string{"Formula": "C2H6O"}},
	{Name: "Glucose", MW: 180.16, LogP: -3.24, Extra: map[string]string{"Formula": "C6H12O6"}},
	{Name: "Nicotine", MW: 162.23, LogP: 1.17, Extra: map[string]string{"Formula": "C10H14N2"}},
	{Name: "Morphine", MW: 285.34, LogP: 0.89, Extra: map[string]string{"Formula": "C17H19NO3"}},
	{Name: "Diazepam", MW: 284.74, LogP: 2.82, Extra: map[string]string{"Formula": "C16H13ClN2O"}},
	{Name: "Cholesterol", MW: 386.65, LogP: 8.74, Extra: map[string]string{"Formula": "C27H46O"}},
}

// GeneratedColumns is the column layout of generated tables
var GeneratedColumns = []string{"Name", "Formula", "MW", "LogP", "Source"}

// CompoundGeneratorConfig configures the compound table generator
type CompoundGeneratorConfig struct {
	// SyntheticCount is the number of rows beyond the reference compounds
	SyntheticCount int `json:"synthetic_count"`
	// InvalidRate is the share of synthetic rows with unparseable MW or LogP
	InvalidRate      float64 `json:"invalid_rate"`
	IncludeReference bool    `json:"include_reference"`
	Seed             int64   `json:"seed"`
}

// DefaultCompoundConfig returns sensible defaults for a demo table
func DefaultCompoundConfig() CompoundGeneratorConfig {
	return CompoundGeneratorConfig{
		SyntheticCount:   90,
		InvalidRate:      0.05,
		IncludeReference: true,
		Seed:             42,
	}
}

// CompoundGenerator produces deterministic compound tables with values
// stored as text, the way the source table stores them
type CompoundGenerator struct {
	config CompoundGeneratorConfig
	rng    *rand.Rand
}

// NewCompoundGenerator creates a generator seeded from config
func NewCompoundGenerator(config CompoundGeneratorConfig) *CompoundGenerator {
	return &CompoundGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

var invalidValues = []string{"", "n/a", "abc", "NaN", "--"}

// GenerateTable returns the raw table, reference rows first
func (g *CompoundGenerator) GenerateTable() *compound.RawTable {
	table := &compound.RawTable{Columns: append([]string(nil), GeneratedColumns...)}

	if g.config.IncludeReference {
		for _, c := range ReferenceCompounds {
			table.Rows = append(table.Rows, []interface{}{
				c.Name, c.Extra["Formula"], compound.FormatNumber(c.MW), compound.FormatNumber(c.LogP), "reference",
			})
		}
	}

	for i := 0; i < g.config.SyntheticCount; i++ {
		mw := round(80+g.rng.Float64()*520, 2)
		logp := round(-2+g.rng.NormFloat64()*1.5+mw/150, 2)

		mwText := compound.FormatNumber(mw)
		logpText := compound.FormatNumber(logp)
		if g.rng.Float64() < g.config.InvalidRate {
			bad := invalidValues[g.rng.Intn(len(invalidValues))]
			if g.rng.Intn(2) == 0 {
				mwText = bad
			} else {
				logpText = bad
			}
		}

		table.Rows = append(table.Rows, []interface{}{
			fmt.Sprintf("CMP-%04d", i+1),
			g.formula(),
			mwText,
			logpText,
			"synthetic",
		})
	}
	return table
}

func (g *CompoundGenerator) formula() string {
	return fmt.Sprintf("C%dH%dN%dO%d", 2+g.rng.Intn(30), 2+g.rng.Intn(50), g.rng.Intn(5), g.rng.Intn(8))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// ReferenceDataset returns the reference compounds as a cleaned dataset in
// listed order
func ReferenceDataset() compound.Dataset {
	ds := compound.Dataset{
		Columns:   []string{"Name", "Formula", "MW", "LogP"},
		Compounds: make([]compound.Compound, len(ReferenceCompounds)),
	}
	for i, c := range ReferenceCompounds {
		extra := make(map[string]string, len(c.Extra))
		for k, v := range c.Extra {
			extra[k] = v
		}
		c.Extra = extra
		ds.Compounds[i] = c
	}
	return ds
}
