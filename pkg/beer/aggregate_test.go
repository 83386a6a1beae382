package beer

import (
	"testing"

	"github.com/Sternrassler/ontap-client/pkg/catalog"
)

func samplePubs() []PubTaps {
	ipa := &catalog.Beer{ID: "100", Name: "Session IPA", Style: str("IPA"), ABV: str("5")}
	stout := &catalog.Beer{ID: "200", Name: "Stout X", Style: str("Stout"), ABV: str("8")}

	return []PubTaps{
		{
			Pub: catalog.Pub{ID: "1", Name: "A"},
			Taps: []catalog.Tap{
				{TapName: "1", Beer: ipa, Variants: []catalog.Variant{{Price: 1250, Volume: "0.5l"}}},
				{TapName: "2"},
			},
		},
		{
			Pub: catalog.Pub{ID: "2", Name: "B"},
			Taps: []catalog.Tap{
				{TapName: "1", Beer: stout, Variants: []catalog.Variant{{Price: 900, Volume: "0.3l"}}},
				{TapName: "2", Beer: ipa, Variants: []catalog.Variant{{Price: 1400, Volume: "0.5l"}}},
			},
		},
		{
			Pub:  catalog.Pub{ID: "3", Name: "Empty"},
			Taps: nil,
		},
	}
}

func TestAggregate(t *testing.T) {
	idx := Aggregate(samplePubs())

	if idx.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", idx.Len())
	}
	if idx.ServingCount() != 3 {
		t.Errorf("ServingCount() = %d, want 3", idx.ServingCount())
	}

	beers := idx.Beers()
	if beers[0].Beer.ID != "100" || beers[1].Beer.ID != "200" {
		t.Errorf("Beers() order = %s, %s, want first-seen order", beers[0].Beer.ID, beers[1].Beer.ID)
	}

	ipa, ok := idx.Get("100")
	if !ok {
		t.Fatal("Get(100) not found")
	}
	if len(ipa.Servings) != 2 {
		t.Fatalf("IPA servings = %d, want 2", len(ipa.Servings))
	}
	if ipa.Servings[0].Pub.Name != "A" || ipa.Servings[1].Pub.Name != "B" {
		t.Error("servings should follow pub processing order")
	}
	if !equalPtr(ipa.ABV, num(5)) {
		t.Errorf("IPA ABV = %v, want 5", fmtPtr(ipa.ABV))
	}
	if !equalPtr(ipa.Servings[1].Tap.HalfLiterPrice, num(14)) {
		t.Errorf("IPA at B price = %v, want 14", fmtPtr(ipa.Servings[1].Tap.HalfLiterPrice))
	}
}

func TestAggregate_OrderIndependent(t *testing.T) {
	forward := samplePubs()
	reversed := make([]PubTaps, len(forward))
	for i := range forward {
		reversed[len(forward)-1-i] = forward[i]
	}

	a := Aggregate(forward)
	b := Aggregate(reversed)

	if a.Len() != b.Len() || a.ServingCount() != b.ServingCount() {
		t.Fatalf("aggregates differ: %d/%d beers, %d/%d servings",
			a.Len(), b.Len(), a.ServingCount(), b.ServingCount())
	}
	for _, beer := range a.Beers() {
		other, ok := b.Get(beer.Beer.ID)
		if !ok {
			t.Errorf("beer %s missing from reversed aggregate", beer.Beer.ID)
			continue
		}
		if len(other.Servings) != len(beer.Servings) {
			t.Errorf("beer %s servings = %d, want %d", beer.Beer.ID, len(other.Servings), len(beer.Servings))
		}
	}

	ipa, _ := b.Get("100")
	if ipa.Servings[0].Pub.Name != "B" {
		t.Error("serving order should follow the reversed pub order")
	}
}

func TestAggregate_RefetchReplacesPub(t *testing.T) {
	pubs := samplePubs()
	refetched := PubTaps{
		Pub: pubs[0].Pub,
		Taps: []catalog.Tap{
			{TapName: "1", Beer: pubs[0].Taps[0].Beer, Variants: []catalog.Variant{{Price: 1300, Volume: "0.5l"}}},
		},
	}
	pubs = append(pubs, refetched)

	idx := Aggregate(pubs)
	ipa, _ := idx.Get("100")

	count := 0
	for _, s := range ipa.Servings {
		if s.Pub.ID == "1" {
			count++
			if !equalPtr(s.Tap.HalfLiterPrice, num(13)) {
				t.Errorf("pub A price = %v, want latest listing 13", fmtPtr(s.Tap.HalfLiterPrice))
			}
		}
	}
	if count != 1 {
		t.Errorf("pub A contributes %d servings, want 1", count)
	}
}

func TestAggregate_Empty(t *testing.T) {
	idx := Aggregate(nil)
	if idx.Len() != 0 || len(idx.Beers()) != 0 {
		t.Error("empty input should give an empty index")
	}
}
