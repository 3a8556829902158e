package dashboard

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"molintel/domain/compound"
	"molintel/internal/errors"
)

// Query parameter names shared by the HTML page, the JSON API and the
// export endpoints
const (
	ParamSearch  = "q"
	ParamNames   = "names"
	ParamNameSet = "names_set"
	ParamMWMin   = "mw_min"
	ParamMWMax   = "mw_max"
	ParamLogPMin = "logp_min"
	ParamLogPMax = "logp_max"
)

// ParseCriteria rebuilds the filter state from query parameters. A range
// with only one bound is open on the other side. The names set is present
// when any names are given or names_set is truthy, so an explicitly
// emptied selection matches nothing. Search text and names are kept
// exactly as sent; stored names may carry padding.
func ParseCriteria(values url.Values) (compound.Criteria, error) {
	criteria := compound.Criteria{
		Search: values.Get(ParamSearch),
	}

	names := values[ParamNames]
	if len(names) > 0 || truthy(values.Get(ParamNameSet)) {
		criteria.Names = compound.NewNameSet(names...)
	}

	mw, err := parseRange(values, ParamMWMin, ParamMWMax)
	if err != nil {
		return compound.Criteria{}, err
	}
	criteria.MW = mw

	logp, err := parseRange(values, ParamLogPMin, ParamLogPMax)
	if err != nil {
		return compound.Criteria{}, err
	}
	criteria.LogP = logp

	return criteria, nil
}

// EncodeCriteria is the inverse of ParseCriteria, used to build export
// links that reproduce the current view
func EncodeCriteria(c compound.Criteria) url.Values {
	values := url.Values{}
	if c.Search != "" {
		values.Set(ParamSearch, c.Search)
	}
	if c.Names != nil {
		values.Set(ParamNameSet, "1")
		for name := range c.Names {
			values.Add(ParamNames, name)
		}
	}
	if c.MW != nil {
		values.Set(ParamMWMin, compound.FormatNumber(c.MW.Lo))
		values.Set(ParamMWMax, compound.FormatNumber(c.MW.Hi))
	}
	if c.LogP != nil {
		values.Set(ParamLogPMin, compound.FormatNumber(c.LogP.Lo))
		values.Set(ParamLogPMax, compound.FormatNumber(c.LogP.Hi))
	}
	return values
}

var inf = math.Inf(1)

func parseRange(values url.Values, loKey, hiKey string) (*compound.Range, error) {
	loText := strings.TrimSpace(values.Get(loKey))
	hiText := strings.TrimSpace(values.Get(hiKey))
	if loText == "" && hiText == "" {
		return nil, nil
	}

	lo, err := parseBound(loKey, loText, -inf)
	if err != nil {
		return nil, err
	}
	hi, err := parseBound(hiKey, hiText, inf)
	if err != nil {
		return nil, err
	}
	r, err := compound.NewRange(lo, hi)
	if err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("%s/%s: %v", loKey, hiKey, err))
	}
	return &r, nil
}

func parseBound(key, text string, open float64) (float64, error) {
	if text == "" {
		return open, nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, errors.InvalidInput(fmt.Sprintf("%s is not a number: %q", key, text))
	}
	return v, nil
}

func truthy(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}
