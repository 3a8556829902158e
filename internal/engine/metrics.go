package engine

import (
	"math"

	"molintel/domain/compound"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Summarize computes count, mean MW and max LogP plus the secondary
// statistics shown under the table. Every aggregate of an empty view is
// absent; Count is always defined.
func Summarize(view compound.View) compound.Metrics {
	m := compound.Metrics{Count: view.Len()}
	if m.Count == 0 {
		return m
	}

	mw := make([]float64, 0, m.Count)
	logp := make([]float64, 0, m.Count)
	for _, c := range view.Compounds {
		mw = append(mw, c.MW)
		logp = append(logp, c.LogP)
	}

	m.MeanMW = optional(stats.Mean(mw))
	m.MinMW = optional(stats.Min(mw))
	m.MaxMW = optional(stats.Max(mw))
	m.MedianMW = optional(stats.Median(mw))
	m.StdDevMW = optional(stats.StandardDeviation(mw))
	m.MaxLogP = optional(stats.Max(logp))
	m.MeanLogP = optional(stats.Mean(logp))
	m.Trend = Fit(mw, logp)
	return m
}

func optional(v float64, err error) compound.Optional {
	if err != nil || math.IsNaN(v) {
		return compound.None()
	}
	return compound.Some(v)
}

// Fit regresses LogP on MW. It needs at least two points and some spread
// in MW; otherwise there is no trend.
func Fit(mw, logp []float64) *compound.Trend {
	if len(mw) < 2 || len(mw) != len(logp) {
		return nil
	}
	if stat.Variance(mw, nil) == 0 {
		return nil
	}
	intercept, slope := stat.LinearRegression(mw, logp, nil, false)
	corr := stat.Correlation(mw, logp, nil)
	if math.IsNaN(corr) {
		// constant LogP
		corr = 0
	}
	return &compound.Trend{
		Correlation: corr,
		Slope:       slope,
		Intercept:   intercept,
	}
}
