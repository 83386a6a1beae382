package query

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"
)

// FormatCSV renders beers as semicolon-separated rows, one per beer, in
// result order. The pubs column lists every serving as
// "pubName: <name>, price: <price>" joined by "|".
func FormatCSV(beers []RankedBeer) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'

	if err := w.Write([]string{"beerId", "beerName", "beerStyle", "abv", "pubs"}); err != nil {
		return "", err
	}

	for _, b := range beers {
		pubs := make([]string, 0, len(b.Pubs))
		for _, p := range b.Pubs {
			pubs = append(pubs, "pubName: "+p.PubName+", price: "+formatPrice(p.HalfLiterPrice))
		}

		row := []string{
			b.BeerID.String(),
			b.Name,
			deref(b.Style),
			deref(b.ABVText),
			strings.Join(pubs, "|"),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FormatText renders a compact listing for chat-style display.
//
// When every beer is poured at the same single pub the pub is named once in
// a "Pub:<name>" line. Otherwise each row ends with "<pub>-<price>" entries,
// using "--" for a missing price.
func FormatText(result Result) string {
	seen := make(map[string]struct{})
	var pubNames []string
	for _, b := range result.Beers {
		for _, p := range b.Pubs {
			if _, ok := seen[p.PubName]; !ok {
				seen[p.PubName] = struct{}{}
				pubNames = append(pubNames, p.PubName)
			}
		}
	}
	singlePub := len(pubNames) == 1

	var sb strings.Builder
	if singlePub {
		sb.WriteString("Pub:" + pubNames[0] + "\n")
		sb.WriteString("name style abv\n")
	} else {
		sb.WriteString("name style abv pubs-price zł\n")
	}

	for _, b := range result.Beers {
		fields := []string{
			strings.TrimSpace(b.Name),
			strings.TrimSpace(deref(b.Style)),
			strings.TrimSpace(deref(b.ABVText)),
		}
		line := strings.Join(fields, " ")

		if !singlePub {
			pubs := make([]string, 0, len(b.Pubs))
			for _, p := range b.Pubs {
				price := "--"
				if p.HalfLiterPrice != nil {
					price = "-" + formatPrice(p.HalfLiterPrice)
				}
				pubs = append(pubs, p.PubName+price)
			}
			line += " " + strings.Join(pubs, ",")
		}

		sb.WriteString(strings.TrimRight(line, " ") + "\n")
	}

	return sb.String()
}

func formatPrice(price *float64) string {
	if price == nil {
		return "--"
	}
	return strconv.FormatFloat(*price, 'f', -1, 64)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
