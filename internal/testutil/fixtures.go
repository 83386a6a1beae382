package testutil

import (
	"github.com/Sternrassler/ontap-client/pkg/catalog"
)

// Str returns a pointer to s.
func Str(s string) *string {
	return &s
}

// Fixture city and pub identifiers.
const (
	KrakowID     catalog.ID = "1"
	WarsawID     catalog.ID = "2"
	MultiQltiID  catalog.ID = "10"
	WezzeKraftID catalog.ID = "11"
	TapHouseID   catalog.ID = "12"
	EmptyPubID   catalog.ID = "13"
)

// SeedKrakow configures a small two-city catalog:
//
//   - Kraków has four pubs. "Multi Qlti" and "Weźże Krafta" both pour
//     "Session IPA"; "Tap House" pours a stout and an IPA; "Empty" has no taps.
//   - Warszawa has no pubs.
func SeedKrakow(m *MockCatalog) {
	m.SetCities([]catalog.City{
		{ID: KrakowID, Name: "Kraków"},
		{ID: WarsawID, Name: "Warszawa"},
	})

	m.SetPubs(KrakowID, []catalog.Pub{
		{ID: MultiQltiID, Name: "Multi Qlti", Lat: "50.0614", Lon: "19.9366", City: "Kraków", TapsCount: 2, ActiveTapsCount: 2},
		{ID: WezzeKraftID, Name: "Weźże Krafta", Lat: "50.0500", Lon: "19.9450", City: "Kraków", TapsCount: 1, ActiveTapsCount: 1},
		{ID: TapHouseID, Name: "Tap House", Lat: "50.0700", Lon: "19.9400", City: "Kraków", TapsCount: 3, ActiveTapsCount: 2},
		{ID: EmptyPubID, Name: "Empty", Lat: "50.0000", Lon: "19.9000", City: "Kraków"},
	})
	m.SetPubs(WarsawID, []catalog.Pub{})

	sessionIPA := &catalog.Beer{ID: "100", Name: "Session IPA", Brewery: "Pinta", Style: Str("IPA"), ABV: Str("5")}
	stout := &catalog.Beer{ID: "200", Name: "Stout X", Brewery: "Artezan", Style: Str("Stout"), ABV: Str("8%")}
	hazy := &catalog.Beer{ID: "300", Name: "Hazy Dream", Brewery: "Stu Mostów", Style: Str("New England IPA"), ABV: Str("6,5")}

	m.SetTaps(MultiQltiID, []catalog.Tap{
		{TapName: "1", Beer: sessionIPA, Variants: []catalog.Variant{{Price: 1250, Volume: "0.5l"}, {Price: 900, Volume: "0.3l"}}},
		{TapName: "2", Beer: nil},
	})
	m.SetTaps(WezzeKraftID, []catalog.Tap{
		{TapName: "A", Beer: sessionIPA, Variants: []catalog.Variant{{Price: 1400, Volume: "0.5l"}}},
	})
	m.SetTaps(TapHouseID, []catalog.Tap{
		{TapName: "1", Beer: stout, Variants: []catalog.Variant{{Price: 900, Volume: "0.3l"}}},
		{TapName: "2", Beer: hazy, Variants: []catalog.Variant{{Price: 1800, Volume: "0.5l"}}},
		{TapName: "3"},
	})
	m.SetTaps(EmptyPubID, []catalog.Tap{})
}
