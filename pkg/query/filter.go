// Package query filters, sorts and truncates an aggregated beer index.
package query

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/Sternrassler/ontap-client/pkg/beer"
	"github.com/Sternrassler/ontap-client/pkg/catalog"
)

// DefaultLimit caps a result when the caller gives no limit.
const DefaultLimit = 30

var (
	// ErrInvalidFilter indicates a filter pattern that does not compile.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrInvalidSort indicates an unknown sort key.
	ErrInvalidSort = errors.New("invalid sort")
)

// Filter is a structured beer query for one city. Empty patterns and nil
// bounds are not applied. All applied criteria must hold.
type Filter struct {
	CityName string `json:"cityName"`
	Limit    int    `json:"limitBeers"`

	// Style, Name and PubName are case-insensitive regular expressions.
	Style   string `json:"styleRegex,omitempty"`
	Name    string `json:"nameRegex,omitempty"`
	PubName string `json:"pubNameRegex,omitempty"`

	// Price bounds are inclusive, in major units per 0.5l.
	PriceFrom *float64 `json:"priceFrom,omitempty"`
	PriceTo   *float64 `json:"priceTo,omitempty"`

	// ABV bounds are inclusive percentages.
	ABVFrom *float64 `json:"abvFrom,omitempty"`
	ABVTo   *float64 `json:"abvTo,omitempty"`
}

// Matcher is a compiled Filter.
type Matcher struct {
	style *regexp.Regexp
	name  *regexp.Regexp
	pub   *regexp.Regexp

	priceFrom, priceTo *float64
	abvFrom, abvTo     *float64
}

// Compile validates the filter's patterns.
func (f Filter) Compile() (*Matcher, error) {
	m := &Matcher{
		priceFrom: f.PriceFrom,
		priceTo:   f.PriceTo,
		abvFrom:   f.ABVFrom,
		abvTo:     f.ABVTo,
	}

	var err error
	if m.style, err = compilePattern("style", f.Style); err != nil {
		return nil, err
	}
	if m.name, err = compilePattern("name", f.Name); err != nil {
		return nil, err
	}
	if m.pub, err = compilePattern("pub name", f.PubName); err != nil {
		return nil, err
	}

	return m, nil
}

func compilePattern(field, pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %s pattern %q: %v", ErrInvalidFilter, field, pattern, err)
	}
	return re, nil
}

// MatchPub reports whether a pub passes the pub-name pattern.
//
// The pattern is applied to the pub list before taps are fetched and is not
// part of Match, so it is evaluated exactly once per query.
func (m *Matcher) MatchPub(p catalog.Pub) bool {
	return m.pub == nil || m.pub.MatchString(p.Name)
}

// Match reports whether an aggregated beer passes every other criterion.
func (m *Matcher) Match(b *beer.BeerWithServings) bool {
	if m.style != nil {
		if b.Beer.Style == nil || !m.style.MatchString(*b.Beer.Style) {
			return false
		}
	}

	if m.name != nil && !m.name.MatchString(b.Beer.Name) {
		return false
	}

	if m.priceFrom != nil && !anyServing(b, func(price float64) bool { return price >= *m.priceFrom }) {
		return false
	}
	if m.priceTo != nil && !anyServing(b, func(price float64) bool { return price <= *m.priceTo }) {
		return false
	}

	if m.abvFrom != nil && (b.ABV == nil || *b.ABV < *m.abvFrom) {
		return false
	}
	if m.abvTo != nil && (b.ABV == nil || *b.ABV > *m.abvTo) {
		return false
	}

	return true
}

// anyServing reports whether at least one priced serving satisfies ok.
func anyServing(b *beer.BeerWithServings, ok func(price float64) bool) bool {
	for _, s := range b.Servings {
		if s.Tap.HalfLiterPrice != nil && ok(*s.Tap.HalfLiterPrice) {
			return true
		}
	}
	return false
}
