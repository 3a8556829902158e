package ui

import (
	"fmt"
	"html/template"
	"math"
	"net/url"
	"strconv"
	"strings"

	"molintel/domain/compound"
	"molintel/internal/dashboard"
)

// Themes are the selectable Plotly colour scales
var Themes = []string{"Plasma", "Turbo", "Viridis", "Magma"}

// BarChartRows is how many leading rows the weight profile chart shows
const BarChartRows = 15

const paramTheme = "theme"

type metricCard struct {
	Label string
	Value string
	Delta string
	Tone  string
}

type nameOption struct {
	Name     string
	Selected bool
}

type banner struct {
	Tone    string
	Message string
}

type rangeField struct {
	Min, Max   string
	Lo, Hi     string
	MinKey     string
	MaxKey     string
	Label      string
	Step       string
	Restricted bool
}

type barSeries struct {
	Names []string  `json:"names"`
	MW    []float64 `json:"mw"`
}

type scatterSeries struct {
	Names []string  `json:"names"`
	MW    []float64 `json:"mw"`
	LogP  []float64 `json:"logp"`
}

type trendLine struct {
	X           []float64 `json:"x"`
	Y           []float64 `json:"y"`
	Correlation float64   `json:"correlation"`
}

type chartData struct {
	Colorscale string        `json:"colorscale"`
	Bar        barSeries     `json:"bar"`
	Scatter    scatterSeries `json:"scatter"`
	Trend      *trendLine    `json:"trend,omitempty"`
}

type pageData struct {
	Title          string
	Caption        template.HTML
	RefreshSeconds int
	Theme          string
	Themes         []string
	Search         string
	Names          []nameOption
	NameSetActive  bool
	MW             rangeField
	LogP           rangeField
	Cards          []metricCard
	Columns        []string
	Rows           []compound.Compound
	Footer         []metricCard
	Banners        []banner
	Chart          chartData
	Query          template.URL
	Result         dashboard.PassResult
}

// sanitizeQuery drops range parameters that are not finite numbers, so the
// HTML page can ignore them instead of failing the request.
func sanitizeQuery(values url.Values) (url.Values, []string) {
	clean := url.Values{}
	for k, v := range values {
		clean[k] = append([]string(nil), v...)
	}

	var warnings []string
	for _, key := range []string{dashboard.ParamMWMin, dashboard.ParamMWMax, dashboard.ParamLogPMin, dashboard.ParamLogPMax} {
		text := strings.TrimSpace(clean.Get(key))
		if text == "" {
			continue
		}
		if v, err := strconv.ParseFloat(text, 64); err != nil || math.IsNaN(v) {
			warnings = append(warnings, fmt.Sprintf("Ignored %s: %q is not a number", key, text))
			clean.Del(key)
		}
	}
	return clean, warnings
}

func selectedTheme(values url.Values) string {
	requested := values.Get(paramTheme)
	for _, t := range Themes {
		if strings.EqualFold(t, requested) {
			return t
		}
	}
	return Themes[0]
}

func buildPage(opts Options, caption template.HTML, criteria compound.Criteria, theme string, result dashboard.PassResult) pageData {
	page := pageData{
		Title:          opts.Title,
		Caption:        caption,
		RefreshSeconds: int(opts.RefreshInterval.Seconds()),
		Theme:          theme,
		Themes:         Themes,
		Search:         criteria.Search,
		NameSetActive:  criteria.Names != nil,
		Columns:        result.View.Columns,
		Rows:           result.View.Compounds,
		Result:         result,
	}
	if page.RefreshSeconds < 1 {
		page.RefreshSeconds = 1
	}

	for _, name := range result.Names {
		page.Names = append(page.Names, nameOption{Name: name, Selected: criteria.Names.Has(name)})
	}

	page.MW = newRangeField("Molecular Weight (MW)", dashboard.ParamMWMin, dashboard.ParamMWMax, "0.01", result.Bounds.MW, result.Bounds.Valid, criteria.MW)
	page.LogP = newRangeField("Lipophilicity (LogP)", dashboard.ParamLogPMin, dashboard.ParamLogPMax, "0.01", result.Bounds.LogP, result.Bounds.Valid, criteria.LogP)

	page.Cards = metricCards(result)
	page.Footer = footerStats(result.Metrics)
	page.Chart = buildChart(result, theme)

	query := dashboard.EncodeCriteria(criteria)
	query.Set(paramTheme, theme)
	page.Query = template.URL(query.Encode())

	switch result.Outcome.Status {
	case dashboard.StatusRecovered:
		page.Banners = append(page.Banners, banner{Tone: "warning", Message: result.Outcome.Message})
	case dashboard.StatusFatal:
		page.Banners = append(page.Banners, banner{Tone: "error", Message: result.Outcome.Message})
	}
	return page
}

func newRangeField(label, minKey, maxKey, step string, bounds compound.Range, valid bool, selected *compound.Range) rangeField {
	f := rangeField{Label: label, MinKey: minKey, MaxKey: maxKey, Step: step}
	if valid {
		f.Min = compound.FormatNumber(bounds.Lo)
		f.Max = compound.FormatNumber(bounds.Hi)
		f.Lo, f.Hi = f.Min, f.Max
	}
	if selected != nil {
		f.Restricted = true
		if !math.IsInf(selected.Lo, 0) {
			f.Lo = compound.FormatNumber(selected.Lo)
		}
		if !math.IsInf(selected.Hi, 0) {
			f.Hi = compound.FormatNumber(selected.Hi)
		}
	}
	return f
}

func metricCards(result dashboard.PassResult) []metricCard {
	health := metricCard{Label: "Pipeline Health", Value: "LIVE", Delta: "Synced", Tone: "ok"}
	if !result.Outcome.OK() {
		health = metricCard{Label: "Pipeline Health", Value: "DEGRADED", Delta: string(result.Outcome.Status), Tone: "warning"}
	}
	return []metricCard{
		{Label: "Active Records", Value: strconv.Itoa(result.Metrics.Count)},
		{Label: "Avg Mol. Weight", Value: result.Metrics.MeanMW.Round(1), Delta: "u"},
		{Label: "Peak LogP", Value: result.Metrics.MaxLogP.Round(2)},
		health,
	}
}

func footerStats(m compound.Metrics) []metricCard {
	cards := []metricCard{
		{Label: "Min MW", Value: m.MinMW.Round(2)},
		{Label: "Median MW", Value: m.MedianMW.Round(2)},
		{Label: "Max MW", Value: m.MaxMW.Round(2)},
		{Label: "MW std. dev.", Value: m.StdDevMW.Round(2)},
		{Label: "Mean LogP", Value: m.MeanLogP.Round(2)},
	}
	if m.Trend != nil {
		cards = append(cards, metricCard{Label: "LogP~MW r", Value: compound.Some(m.Trend.Correlation).Round(3)})
	}
	return cards
}

func buildChart(result dashboard.PassResult, theme string) chartData {
	chart := chartData{
		Colorscale: theme,
		Bar:        barSeries{Names: []string{}, MW: []float64{}},
		Scatter:    scatterSeries{Names: []string{}, MW: []float64{}, LogP: []float64{}},
	}
	for _, c := range result.View.Head(BarChartRows) {
		chart.Bar.Names = append(chart.Bar.Names, c.Name)
		chart.Bar.MW = append(chart.Bar.MW, c.MW)
	}
	for _, c := range result.View.Compounds {
		chart.Scatter.Names = append(chart.Scatter.Names, c.Name)
		chart.Scatter.MW = append(chart.Scatter.MW, c.MW)
		chart.Scatter.LogP = append(chart.Scatter.LogP, c.LogP)
	}

	m := result.Metrics
	if m.Trend != nil && m.MinMW.Valid && m.MaxMW.Valid {
		lo, hi := m.MinMW.Value, m.MaxMW.Value
		chart.Trend = &trendLine{
			X:           []float64{lo, hi},
			Y:           []float64{m.Trend.Intercept + m.Trend.Slope*lo, m.Trend.Intercept + m.Trend.Slope*hi},
			Correlation: m.Trend.Correlation,
		}
	}
	return chart
}

func cellValue(c compound.Compound, column string) string {
	return c.Value(column)
}
