package query

import (
	"github.com/Sternrassler/ontap-client/pkg/beer"
	"github.com/Sternrassler/ontap-client/pkg/catalog"
)

// RankedPub is one place a ranked beer is poured.
type RankedPub struct {
	PubName        string   `json:"pubName"`
	HalfLiterPrice *float64 `json:"halfLiterPrice"`
}

// RankedBeer is a beer in a query result.
type RankedBeer struct {
	BeerID  catalog.ID `json:"beerId"`
	Name    string     `json:"beerName"`
	Brewery string     `json:"brewery"`
	Style   *string    `json:"beerStyle"`

	// ABV is parsed; ABVText is the catalog's original text.
	ABV     *float64 `json:"abv"`
	ABVText *string  `json:"abvText"`

	Pubs []RankedPub `json:"pubs"`
}

// Result is a ranked, truncated beer list.
type Result struct {
	Beers []RankedBeer `json:"beers"`

	// Total counts matches before truncation.
	Total int `json:"total"`

	// SkippedPubs names pubs whose taps could not be fetched.
	SkippedPubs []string `json:"skippedPubs,omitempty"`
}

// Run filters, sorts and truncates beers. The input slice is not modified.
// A limit of zero or less yields no beers; Total is unaffected by limit.
func Run(beers []*beer.BeerWithServings, m *Matcher, by SortBy, limit int) Result {
	matched := make([]*beer.BeerWithServings, 0, len(beers))
	for _, b := range beers {
		if m == nil || m.Match(b) {
			matched = append(matched, b)
		}
	}

	sortBeers(matched, by)

	total := len(matched)
	if limit < 0 {
		limit = 0
	}
	if limit < len(matched) {
		matched = matched[:limit]
	}

	ranked := make([]RankedBeer, 0, len(matched))
	for _, b := range matched {
		ranked = append(ranked, Rank(b))
	}

	return Result{Beers: ranked, Total: total}
}

// Rank flattens an aggregate into its result shape.
func Rank(b *beer.BeerWithServings) RankedBeer {
	pubs := make([]RankedPub, 0, len(b.Servings))
	for _, s := range b.Servings {
		pubs = append(pubs, RankedPub{
			PubName:        s.Pub.Name,
			HalfLiterPrice: s.Tap.HalfLiterPrice,
		})
	}

	return RankedBeer{
		BeerID:  b.Beer.ID,
		Name:    b.Beer.Name,
		Brewery: b.Beer.Brewery,
		Style:   b.Beer.Style,
		ABV:     b.ABV,
		ABVText: b.Beer.ABV,
		Pubs:    pubs,
	}
}
