package api

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Sternrassler/ontap-client/pkg/query"
)

// errBadParam marks a malformed query parameter.
var errBadParam = errors.New("invalid parameter")

// parseFilter builds a beer filter from URL query parameters. A missing
// limit selects query.DefaultLimit.
func parseFilter(city string, q url.Values) (query.Filter, error) {
	f := query.Filter{
		CityName: city,
		Limit:    query.DefaultLimit,
		Style:    q.Get("style"),
		Name:     q.Get("name"),
		PubName:  q.Get("pub"),
	}

	if s := q.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil {
			return query.Filter{}, fmt.Errorf("%w: limit %q", errBadParam, s)
		}
		f.Limit = limit
	}

	bounds := []struct {
		key string
		dst **float64
	}{
		{"priceFrom", &f.PriceFrom},
		{"priceTo", &f.PriceTo},
		{"abvFrom", &f.ABVFrom},
		{"abvTo", &f.ABVTo},
	}
	for _, b := range bounds {
		v, err := parseOptionalFloat(q.Get(b.key))
		if err != nil {
			return query.Filter{}, fmt.Errorf("%w: %s: %v", errBadParam, b.key, err)
		}
		*b.dst = v
	}

	return f, nil
}

// parseOptionalFloat returns nil for an empty string. A decimal comma is accepted.
func parseOptionalFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
