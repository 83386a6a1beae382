package beer

import (
	"math"
	"reflect"
	"testing"

	"github.com/Sternrassler/ontap-client/pkg/catalog"
)

func str(s string) *string { return &s }

func num(f float64) *float64 { return &f }

func equalPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return math.Abs(*a-*b) < 1e-9
}

func fmtPtr(p *float64) any {
	if p == nil {
		return "nil"
	}
	return *p
}

func TestParseABV(t *testing.T) {
	tests := []struct {
		name string
		text *string
		want *float64
	}{
		{name: "plain", text: str("4.5"), want: num(4.5)},
		{name: "percent", text: str("4.5%"), want: num(4.5)},
		{name: "comma", text: str("4,5"), want: num(4.5)},
		{name: "at most", text: str("<0.5"), want: num(0.5)},
		{name: "comma and percent", text: str("6,5 %"), want: num(6.5)},
		{name: "integer", text: str("8"), want: num(8)},
		{name: "trailing text", text: str("5.2 vol"), want: num(5.2)},
		{name: "null", text: nil, want: nil},
		{name: "empty", text: str(""), want: nil},
		{name: "not a number", text: str("n/a"), want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseABV(tt.text)
			if !equalPtr(got, tt.want) {
				t.Errorf("ParseABV() = %v, want %v", fmtPtr(got), fmtPtr(tt.want))
			}
		})
	}
}

func TestParseVolume(t *testing.T) {
	tests := []struct {
		volume string
		want   float64
		ok     bool
	}{
		{"0.5l", 0.5, true},
		{"0,3l", 0.3, true},
		{"0.25l", 0.25, true},
		{"l", 0, false},
		{"0l", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseVolume(tt.volume)
		if ok != tt.ok || math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ParseVolume(%q) = %v, %v, want %v, %v", tt.volume, got, ok, tt.want, tt.ok)
		}
	}
}

func TestHalfLiterPrice(t *testing.T) {
	tests := []struct {
		name     string
		variants []catalog.Variant
		want     *float64
	}{
		{
			name:     "exact half liter rounds half to even",
			variants: []catalog.Variant{{Price: 1250, Volume: "0.5l"}},
			want:     num(12),
		},
		{
			name:     "scaled from 0.3l",
			variants: []catalog.Variant{{Price: 900, Volume: "0.3l"}},
			want:     num(15),
		},
		{
			name:     "half liter preferred over first variant",
			variants: []catalog.Variant{{Price: 900, Volume: "0.3l"}, {Price: 1400, Volume: "0.5l"}},
			want:     num(14),
		},
		{
			name:     "comma volume",
			variants: []catalog.Variant{{Price: 1200, Volume: "0,4l"}},
			want:     num(15),
		},
		{
			name:     "no variants",
			variants: nil,
			want:     nil,
		},
		{
			name:     "unusable volume",
			variants: []catalog.Variant{{Price: 1000, Volume: "pint"}},
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HalfLiterPrice(tt.variants)
			if !equalPtr(got, tt.want) {
				t.Errorf("HalfLiterPrice() = %v, want %v", fmtPtr(got), fmtPtr(tt.want))
			}
		})
	}
}

func TestAlcoholMassAndRatio(t *testing.T) {
	mass := AlcoholMass(num(5))
	if !equalPtr(mass, num(20)) {
		t.Fatalf("AlcoholMass(5) = %v, want 20", fmtPtr(mass))
	}

	ratio := Ratio(mass, num(12))
	if ratio == nil || math.Abs(*ratio-20.0/12.0) > 1e-9 {
		t.Errorf("Ratio(20, 12) = %v, want ~1.667", fmtPtr(ratio))
	}

	if AlcoholMass(nil) != nil {
		t.Error("AlcoholMass(nil) should be nil")
	}
	if got := AlcoholMass(num(0)); !equalPtr(got, num(0)) {
		t.Errorf("AlcoholMass(0) = %v, want 0", fmtPtr(got))
	}
	if Ratio(mass, num(0)) != nil {
		t.Error("Ratio with zero price should be nil")
	}
	if Ratio(nil, num(12)) != nil || Ratio(mass, nil) != nil {
		t.Error("Ratio with a missing operand should be nil")
	}
}

func TestNormalize(t *testing.T) {
	raw := catalog.Tap{
		TapName:  "3",
		Beer:     &catalog.Beer{ID: "100", Name: "Session IPA", ABV: str("5%")},
		Variants: []catalog.Variant{{Price: 1250, Volume: "0.5l"}},
	}

	got := Normalize(raw)

	if !equalPtr(got.ABV, num(5)) {
		t.Errorf("ABV = %v, want 5", fmtPtr(got.ABV))
	}
	if !equalPtr(got.HalfLiterPrice, num(12)) {
		t.Errorf("HalfLiterPrice = %v, want 12", fmtPtr(got.HalfLiterPrice))
	}
	if !equalPtr(got.AlcoholMass, num(20)) {
		t.Errorf("AlcoholMass = %v, want 20", fmtPtr(got.AlcoholMass))
	}
	if got.AlcoholToPriceRatio == nil {
		t.Error("AlcoholToPriceRatio should be set")
	}
	if got.TapName != "3" {
		t.Errorf("TapName = %q, want raw tap preserved", got.TapName)
	}
}

func TestNormalize_NoBeer(t *testing.T) {
	got := Normalize(catalog.Tap{
		TapName:  "7",
		Variants: []catalog.Variant{{Price: 1000, Volume: "0.5l"}},
	})

	if got.ABV != nil || got.HalfLiterPrice != nil || got.AlcoholMass != nil || got.AlcoholToPriceRatio != nil {
		t.Errorf("empty tap should carry no metrics: %+v", got)
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	raw := catalog.Tap{
		Beer:     &catalog.Beer{ID: "200", ABV: str("<0,5")},
		Variants: []catalog.Variant{{Price: 900, Volume: "0.3l"}},
	}

	first := Normalize(raw)
	again := Normalize(first.Tap)

	if !reflect.DeepEqual(first, again) {
		t.Errorf("re-normalizing changed the result:\n first %+v\n again %+v", first, again)
	}
}
