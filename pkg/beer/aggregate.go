package beer

import (
	"github.com/Sternrassler/ontap-client/pkg/catalog"
)

// PubTaps is one pub and the taps fetched for it.
type PubTaps struct {
	Pub  catalog.Pub
	Taps []catalog.Tap
}

// Serving is one tap's contribution to a beer, with the pub that pours it.
type Serving struct {
	Pub catalog.Pub `json:"pub"`
	Tap Tap         `json:"tap"`
}

// BeerWithServings is one beer identity and every tap pouring it in the city.
type BeerWithServings struct {
	Beer catalog.Beer `json:"beer"`

	// ABV is the parsed beer-level ABV.
	ABV *float64 `json:"abv"`

	// Servings are in pub processing order.
	Servings []Serving `json:"servings"`
}

// Index groups servings by beer identifier. It is built per query and never
// shared between queries.
type Index struct {
	byID  map[catalog.ID]*BeerWithServings
	order []*BeerWithServings
}

// Aggregate groups the beers of pubs by identity.
//
// A pub that appears more than once contributes only its last taps listing.
// Taps without a beer and pubs without taps contribute nothing.
func Aggregate(pubs []PubTaps) *Index {
	idx := &Index{byID: make(map[catalog.ID]*BeerWithServings)}

	last := make(map[catalog.ID]int, len(pubs))
	for i, p := range pubs {
		last[p.Pub.ID] = i
	}

	for i, p := range pubs {
		if last[p.Pub.ID] != i {
			continue
		}
		for _, raw := range p.Taps {
			if raw.Beer == nil {
				continue
			}
			idx.add(p.Pub, Normalize(raw))
		}
	}

	return idx
}

func (idx *Index) add(pub catalog.Pub, tap Tap) {
	serving := Serving{Pub: pub, Tap: tap}

	if b, ok := idx.byID[tap.Beer.ID]; ok {
		b.Servings = append(b.Servings, serving)
		return
	}

	b := &BeerWithServings{
		Beer:     *tap.Beer,
		ABV:      tap.ABV,
		Servings: []Serving{serving},
	}
	idx.byID[tap.Beer.ID] = b
	idx.order = append(idx.order, b)
}

// Beers returns the aggregates in first-seen order.
func (idx *Index) Beers() []*BeerWithServings {
	return idx.order
}

// Get returns the aggregate for a beer identifier.
func (idx *Index) Get(id catalog.ID) (*BeerWithServings, bool) {
	b, ok := idx.byID[id]
	return b, ok
}

// Len returns the number of distinct beers.
func (idx *Index) Len() int {
	return len(idx.order)
}

// ServingCount returns the total number of servings across all beers.
func (idx *Index) ServingCount() int {
	n := 0
	for _, b := range idx.order {
		n += len(b.Servings)
	}
	return n
}
