// Package catalog defines the wire shapes returned by the ontap catalog API.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
)

// ID is a catalog identifier. The API is not consistent about sending
// identifiers as JSON strings or numbers, so both decode to the same value.
type ID string

// UnmarshalJSON accepts both "123" and 123.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// String returns the identifier as used in request paths.
func (id ID) String() string {
	return string(id)
}

// City is a city known to the catalog.
type City struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Pub is a single venue within a city.
type Pub struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`

	// Lat and Lon are sent as decimal strings.
	Lat string `json:"lat"`
	Lon string `json:"lon"`

	City    string `json:"city"`
	Address string `json:"address"`

	// Volumes is the served-volume set, e.g. "0.2l;0.3l;0.5l".
	Volumes string  `json:"volumes"`
	Phone   *string `json:"phone"`
	URL     *string `json:"url"`
	LogoURL string  `json:"logo_url"`

	TapsCount       int `json:"taps_count"`
	ActiveTapsCount int `json:"active_taps_count"`
}

// MapsURL returns a Google Maps search URL pointing at the pub's coordinates.
func (p Pub) MapsURL() string {
	params := url.Values{}
	params.Set("api", "1")
	params.Set("query", p.Lat+","+p.Lon)
	return "https://www.google.com/maps/search/?" + params.Encode()
}

// Beer is a beer identity, stable across pubs.
type Beer struct {
	ID      ID      `json:"id"`
	Name    string  `json:"name"`
	Brewery string  `json:"brewery"`
	Style   *string `json:"style"`

	// ABV is free text such as "5.2", "5,2%" or "<0.5".
	ABV *string `json:"abv"`

	Color *string  `json:"color"`
	IBU   *string  `json:"ibu"`
	Plato *float64 `json:"plato"`

	Origin        *string  `json:"origin"`
	RateBeerScore *float64 `json:"rateBeerScore"`
	RateBeerURL   *string  `json:"rateBeerUrl"`
	UntappdScore  *float64 `json:"untappedScore"`
	UntappdURL    *string  `json:"untappedUrl"`
}

// StyleOrEmpty returns the style, or "" when the catalog has none.
func (b Beer) StyleOrEmpty() string {
	if b.Style == nil {
		return ""
	}
	return *b.Style
}

// Variant is one serving option of a tap. Price is in minor currency units.
type Variant struct {
	Price  float64 `json:"price"`
	Volume string  `json:"volume"`
}

// Tap is a single dispensing line. Beer is nil for an unassigned tap.
type Tap struct {
	TapName  string    `json:"tapName"`
	Beer     *Beer     `json:"beer"`
	Variants []Variant `json:"variants"`
	Prices   []float64 `json:"prices"`
	Volumes  *string   `json:"volumes"`
	Label    *string   `json:"label"`

	New      *bool `json:"new"`
	Premiere *bool `json:"premiere"`
	Promo    *bool `json:"promo"`
}
