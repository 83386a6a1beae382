package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Sternrassler/ontap-client/pkg/catalog"
	"github.com/Sternrassler/ontap-client/pkg/query"
	"github.com/spf13/cobra"
)

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newCitiesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "cities",
		Short: "List catalog cities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd.Context(), func(a *app) error {
				svc, err := a.withService()
				if err != nil {
					return err
				}
				names, err := svc.GetCitiesNames(cmd.Context())
				if err != nil {
					return err
				}
				return writeLines(cmd.OutOrStdout(), names)
			})
		},
	}
}

func newPubsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "pubs <city>",
		Short: "List the pubs of a city",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd.Context(), func(a *app) error {
				svc, err := a.withService()
				if err != nil {
					return err
				}
				names, err := svc.GetPubNamesInCity(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeLines(cmd.OutOrStdout(), names)
			})
		},
	}
}

func newPubCmd(c *cli) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "pub <city> <pub>",
		Short: "Show a pub and the beers it pours, cheapest first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd.Context(), func(a *app) error {
				svc, err := a.withService()
				if err != nil {
					return err
				}
				details, err := svc.GetPubDetails(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}

				if asJSON {
					return writeJSON(cmd.OutOrStdout(), details)
				}
				out := query.FormatText(query.Result{Beers: details.Beers, Total: len(details.Beers)})
				_, err = io.WriteString(cmd.OutOrStdout(), out)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newMapsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "maps <city> <pub>",
		Short: "Print a Google Maps link for a pub",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd.Context(), func(a *app) error {
				svc, err := a.withService()
				if err != nil {
					return err
				}
				mapsURL, err := svc.GetGoogleMapsURL(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), mapsURL)
				return err
			})
		},
	}
}

type beersOptions struct {
	filter query.Filter
	sortBy string
	format string

	priceFrom, priceTo float64
	abvFrom, abvTo     float64
}

// apply copies bound flags into the filter only when they were set.
func (o *beersOptions) apply(cmd *cobra.Command) {
	bounds := []struct {
		flag  string
		value float64
		dst   **float64
	}{
		{"price-from", o.priceFrom, &o.filter.PriceFrom},
		{"price-to", o.priceTo, &o.filter.PriceTo},
		{"abv-from", o.abvFrom, &o.filter.ABVFrom},
		{"abv-to", o.abvTo, &o.filter.ABVTo},
	}
	for _, b := range bounds {
		if cmd.Flags().Changed(b.flag) {
			v := b.value
			*b.dst = &v
		}
	}
}

func newBeersCmd(c *cli) *cobra.Command {
	o := &beersOptions{}

	cmd := &cobra.Command{
		Use:   "beers <city>",
		Short: "Rank the beers poured in a city",
		Example: `  ontap beers Kraków --style ipa --sort alcoholToPriceRatioDesc
  ontap beers Warszawa --price-to 15 --format csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch o.format {
			case "text", "csv", "json":
			default:
				return fmt.Errorf("unknown format %q (want text, csv or json)", o.format)
			}

			o.filter.CityName = args[0]
			o.apply(cmd)

			return c.run(cmd.Context(), func(a *app) error {
				svc, err := a.withService()
				if err != nil {
					return err
				}
				result, err := svc.GetBeers(cmd.Context(), o.filter, query.SortBy(o.sortBy))
				if err != nil {
					return err
				}
				for _, pub := range result.SkippedPubs {
					a.logger.Warn().Str("pub", pub).Msg("Pub left out, taps unavailable")
				}

				out := cmd.OutOrStdout()
				switch o.format {
				case "csv":
					s, err := query.FormatCSV(result.Beers)
					if err != nil {
						return err
					}
					_, err = io.WriteString(out, s)
					return err
				case "json":
					return writeJSON(out, result)
				default:
					_, err = io.WriteString(out, query.FormatText(*result))
					return err
				}
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.filter.Style, "style", "", "style pattern (case-insensitive regexp)")
	f.StringVar(&o.filter.Name, "name", "", "beer name pattern")
	f.StringVar(&o.filter.PubName, "pub", "", "pub name pattern")
	f.Float64Var(&o.priceFrom, "price-from", 0, "minimum price per 0.5l")
	f.Float64Var(&o.priceTo, "price-to", 0, "maximum price per 0.5l")
	f.Float64Var(&o.abvFrom, "abv-from", 0, "minimum ABV")
	f.Float64Var(&o.abvTo, "abv-to", 0, "maximum ABV")
	f.IntVar(&o.filter.Limit, "limit", query.DefaultLimit, "maximum beers to print")
	f.StringVar(&o.sortBy, "sort", string(query.SortPriceAsc), fmt.Sprintf("sort key %v", query.SortKeys))
	f.StringVar(&o.format, "format", "text", "output format: text, csv or json")

	return cmd
}

func newBeerCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "beer <city> <beer-id>",
		Short: "Show one beer and every pub pouring it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd.Context(), func(a *app) error {
				svc, err := a.withService()
				if err != nil {
					return err
				}
				b, err := svc.GetBeerDetails(cmd.Context(), args[0], catalog.ID(args[1]))
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), b)
			})
		},
	}
}

func newCacheCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the response cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "keys",
		Short: "List cached catalog paths across all cache tiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd.Context(), func(a *app) error {
				keys, err := a.cache.ListKeys(cmd.Context())
				if err != nil {
					return err
				}
				return writeLines(cmd.OutOrStdout(), keys)
			})
		},
	})

	return cmd
}
