// Package beer turns raw catalog taps into normalized servings and groups
// them by beer identity.
package beer

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Sternrassler/ontap-client/pkg/catalog"
)

const (
	// EthanolDensity is grams of ethanol per millilitre.
	EthanolDensity = 0.789

	// HalfLiterVolume is the canonical serving label.
	HalfLiterVolume = "0.5l"

	halfLiterML = 500
)

// leadingNumber matches the numeric prefix a lenient float parser would accept.
var leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// Tap is a catalog tap with its derived metrics.
// Metrics are nil when an input is missing; they are never defaulted.
type Tap struct {
	catalog.Tap

	ABV                 *float64 `json:"abv"`
	HalfLiterPrice      *float64 `json:"halfLiterPrice"`
	AlcoholMass         *float64 `json:"alcoholMass"`
	AlcoholToPriceRatio *float64 `json:"alcoholToPriceRatio"`
}

// Normalize computes the derived metrics of a tap. It is pure: the same tap
// always yields the same result. A tap without a beer gets no metrics.
func Normalize(raw catalog.Tap) Tap {
	tap := Tap{Tap: raw}
	if raw.Beer == nil {
		return tap
	}

	tap.ABV = ParseABV(raw.Beer.ABV)
	tap.HalfLiterPrice = HalfLiterPrice(raw.Variants)
	tap.AlcoholMass = AlcoholMass(tap.ABV)
	tap.AlcoholToPriceRatio = Ratio(tap.AlcoholMass, tap.HalfLiterPrice)
	return tap
}

// ParseABV reads free-form ABV text such as "5.2", "5,2%" or "<0.5".
// A leading "<" is ignored, so "<0.5" reads as 0.5. Text without a numeric
// prefix yields nil.
func ParseABV(text *string) *float64 {
	if text == nil {
		return nil
	}

	s := strings.TrimSpace(*text)
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.ReplaceAll(s, "%", "")
	s = strings.TrimLeft(strings.TrimPrefix(s, "<"), " ")

	return parseLeadingFloat(s)
}

// ParseVolume reads a serving volume label such as "0.3l" or "0,3l" in litres.
func ParseVolume(volume string) (float64, bool) {
	s := strings.TrimSpace(volume)
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.ReplaceAll(s, "l", "")

	v := parseLeadingFloat(s)
	if v == nil || *v <= 0 {
		return 0, false
	}
	return *v, true
}

// HalfLiterPrice normalizes a tap's price to a 0.5l serving in major units.
//
// An exact "0.5l" variant wins. Otherwise the first variant is scaled
// linearly by 0.5/volume. Results are rounded half to even, so 12.50 becomes 12.
func HalfLiterPrice(variants []catalog.Variant) *float64 {
	for _, v := range variants {
		if v.Volume == HalfLiterVolume {
			price := math.RoundToEven(v.Price / 100)
			return &price
		}
	}

	if len(variants) == 0 {
		return nil
	}

	first := variants[0]
	volume, ok := ParseVolume(first.Volume)
	if !ok {
		return nil
	}

	price := math.RoundToEven(0.5 * (first.Price / 100) / volume)
	return &price
}

// AlcoholMass returns grams of ethanol in half a litre at the given ABV.
func AlcoholMass(abv *float64) *float64 {
	if abv == nil {
		return nil
	}
	mass := math.RoundToEven(*abv / 100 * halfLiterML * EthanolDensity)
	return &mass
}

// Ratio returns grams of ethanol per currency unit.
func Ratio(mass, price *float64) *float64 {
	if mass == nil || price == nil || *price == 0 {
		return nil
	}
	ratio := *mass / *price
	return &ratio
}

func parseLeadingFloat(s string) *float64 {
	match := leadingNumber.FindString(s)
	if match == "" {
		return nil
	}

	v, err := strconv.ParseFloat(match, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
