package query

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/Sternrassler/ontap-client/pkg/beer"
)

// SortBy selects the ordering of a result.
type SortBy string

const (
	SortPriceAsc                SortBy = "priceAsc"
	SortPriceDesc               SortBy = "priceDesc"
	SortAlcoholAbvAsc           SortBy = "alcoholAbvAsc"
	SortAlcoholAbvDesc          SortBy = "alcoholAbvDesc"
	SortAlcoholToPriceRatioAsc  SortBy = "alcoholToPriceRatioAsc"
	SortAlcoholToPriceRatioDesc SortBy = "alcoholToPriceRatioDesc"
)

// SortKeys lists every valid sort key.
var SortKeys = []SortBy{
	SortPriceAsc,
	SortPriceDesc,
	SortAlcoholAbvAsc,
	SortAlcoholAbvDesc,
	SortAlcoholToPriceRatioAsc,
	SortAlcoholToPriceRatioDesc,
}

// ParseSortBy validates a sort key. The empty string selects SortPriceAsc.
func ParseSortBy(s string) (SortBy, error) {
	if s == "" {
		return SortPriceAsc, nil
	}
	for _, key := range SortKeys {
		if string(key) == s {
			return key, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSort, s)
}

// metric extracts the compared value of a beer, or nil when absent.
type metric func(*beer.BeerWithServings) *float64

func firstServing(get func(beer.Tap) *float64) metric {
	return func(b *beer.BeerWithServings) *float64 {
		if len(b.Servings) == 0 {
			return nil
		}
		return get(b.Servings[0].Tap)
	}
}

var (
	priceMetric = firstServing(func(t beer.Tap) *float64 { return t.HalfLiterPrice })
	ratioMetric = firstServing(func(t beer.Tap) *float64 { return t.AlcoholToPriceRatio })
	abvMetric   = func(b *beer.BeerWithServings) *float64 { return b.ABV }
)

// sortBeers orders beers in place. The sort is stable and a pair with a
// missing metric compares equal.
func sortBeers(beers []*beer.BeerWithServings, by SortBy) {
	var (
		get  metric
		desc bool
	)

	switch by {
	case SortPriceAsc:
		get = priceMetric
	case SortPriceDesc:
		get, desc = priceMetric, true
	case SortAlcoholAbvAsc:
		get = abvMetric
	case SortAlcoholAbvDesc:
		get, desc = abvMetric, true
	case SortAlcoholToPriceRatioAsc:
		get = ratioMetric
	case SortAlcoholToPriceRatioDesc:
		get, desc = ratioMetric, true
	default:
		return
	}

	slices.SortStableFunc(beers, func(a, b *beer.BeerWithServings) int {
		va, vb := get(a), get(b)
		if va == nil || vb == nil {
			return 0
		}
		if desc {
			return cmp.Compare(*vb, *va)
		}
		return cmp.Compare(*va, *vb)
	})
}
