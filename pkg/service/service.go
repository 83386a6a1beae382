// Package service is the query facade over the catalog: it resolves a city,
// fetches its pubs and taps, and answers structured beer queries.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/ontap-client/pkg/beer"
	"github.com/Sternrassler/ontap-client/pkg/catalog"
	"github.com/Sternrassler/ontap-client/pkg/client"
	"github.com/Sternrassler/ontap-client/pkg/fanout"
	"github.com/Sternrassler/ontap-client/pkg/logging"
	"github.com/Sternrassler/ontap-client/pkg/query"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// PubDetailsLimit caps the beer list returned with a pub.
const PubDetailsLimit = 100

// ErrBeerNotFound is returned when no pub in the city pours the beer.
var ErrBeerNotFound = errors.New("beer not found")

var (
	beerQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ontap_beer_queries_total",
		Help: "Total beer queries by outcome",
	}, []string{"outcome"}) // "ok", "partial", "error"

	beerQueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ontap_beer_query_duration_seconds",
		Help:    "Beer query duration in seconds including catalog fetches",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	})

	skippedPubsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ontap_skipped_pubs_total",
		Help: "Total pubs left out of a query because their taps could not be fetched",
	})
)

// Catalog is the subset of the catalog client the service needs.
type Catalog interface {
	Cities(ctx context.Context) ([]catalog.City, error)
	CityByName(ctx context.Context, name string) (*catalog.City, error)
	PubsInCity(ctx context.Context, cityID catalog.ID) ([]catalog.Pub, error)
	PubByName(ctx context.Context, cityName, pubName string) (*catalog.Pub, error)
	TapsInPub(ctx context.Context, pubID catalog.ID) ([]catalog.Tap, error)
}

// Ensure the catalog client satisfies Catalog
var _ Catalog = (*client.Client)(nil)

// Options configures a Service.
type Options struct {
	// Fanout bounds the per-pub taps requests of a query
	Fanout fanout.Config
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{Fanout: fanout.DefaultConfig()}
}

// Service answers beer queries. Construct one at startup and share it.
type Service struct {
	catalog Catalog
	opts    Options
	logger  zerolog.Logger
}

// New creates a service over a catalog.
func New(c Catalog, opts Options) *Service {
	if c == nil {
		panic("catalog cannot be nil")
	}
	return &Service{
		catalog: c,
		opts:    opts,
		logger:  logging.NewLogger("service"),
	}
}

// PubDetails is a pub together with the beers it currently pours.
type PubDetails struct {
	catalog.Pub
	Beers []query.RankedBeer `json:"beers"`
}

// GetBeers answers a structured beer query for filter.CityName.
//
// Taps are fetched for every pub passing the pub-name pattern, at most
// Fanout.MaxConcurrency at a time. A pub whose taps cannot be fetched is
// logged and listed in Result.SkippedPubs; if no pub could be fetched the
// query fails with the first error.
func (s *Service) GetBeers(ctx context.Context, filter query.Filter, sortBy query.SortBy) (*query.Result, error) {
	start := time.Now()
	defer func() {
		beerQueryDuration.Observe(time.Since(start).Seconds())
	}()

	result, err := s.getBeers(ctx, filter, sortBy, nil)
	switch {
	case err != nil:
		beerQueriesTotal.WithLabelValues("error").Inc()
	case len(result.SkippedPubs) > 0:
		beerQueriesTotal.WithLabelValues("partial").Inc()
	default:
		beerQueriesTotal.WithLabelValues("ok").Inc()
	}
	return result, err
}

// getBeers runs the query over the pubs accepted by both the filter's pub
// pattern and only. A nil only accepts every pub.
func (s *Service) getBeers(ctx context.Context, filter query.Filter, sortBy query.SortBy, only func(catalog.Pub) bool) (*query.Result, error) {
	matcher, err := filter.Compile()
	if err != nil {
		return nil, err
	}
	if sortBy, err = query.ParseSortBy(string(sortBy)); err != nil {
		return nil, err
	}

	city, err := s.catalog.CityByName(ctx, filter.CityName)
	if err != nil {
		return nil, err
	}

	pubs, err := s.catalog.PubsInCity(ctx, city.ID)
	if err != nil {
		return nil, err
	}

	selected := make([]catalog.Pub, 0, len(pubs))
	for _, p := range pubs {
		if matcher.MatchPub(p) && (only == nil || only(p)) {
			selected = append(selected, p)
		}
	}

	pubTaps, skipped, err := s.fetchTaps(ctx, selected)
	if err != nil {
		return nil, err
	}

	idx := beer.Aggregate(pubTaps)
	result := query.Run(idx.Beers(), matcher, sortBy, filter.Limit)
	result.SkippedPubs = skipped

	s.logger.Info().
		Str("city", city.Name).
		Int("pubs", len(selected)).
		Int("skipped_pubs", len(skipped)).
		Int("beers", idx.Len()).
		Int("matched", result.Total).
		Str("sort", string(sortBy)).
		Msg("Beer query complete")

	return &result, nil
}

// fetchTaps loads taps for every pub, keeping catalog order.
func (s *Service) fetchTaps(ctx context.Context, pubs []catalog.Pub) ([]beer.PubTaps, []string, error) {
	results := fanout.Map(ctx, s.opts.Fanout, pubs, func(ctx context.Context, p catalog.Pub) ([]catalog.Tap, error) {
		return s.catalog.TapsInPub(ctx, p.ID)
	})

	pubTaps := make([]beer.PubTaps, 0, len(pubs))
	var (
		skipped  []string
		firstErr error
	)
	for i, r := range results {
		if r.Err != nil {
			s.logger.Warn().
				Err(r.Err).
				Str("pub", pubs[i].Name).
				Str("pub_id", pubs[i].ID.String()).
				Msg("Skipping pub, taps fetch failed")
			skipped = append(skipped, pubs[i].Name)
			if firstErr == nil {
				firstErr = r.Err
			}
			continue
		}
		pubTaps = append(pubTaps, beer.PubTaps{Pub: pubs[i], Taps: r.Value})
	}

	skippedPubsTotal.Add(float64(len(skipped)))

	if len(pubs) > 0 && len(skipped) == len(pubs) {
		return nil, skipped, fmt.Errorf("all %d pubs failed: %w", len(pubs), firstErr)
	}
	return pubTaps, skipped, nil
}

// GetCitiesNames returns the names of all catalog cities.
func (s *Service) GetCitiesNames(ctx context.Context) ([]string, error) {
	cities, err := s.catalog.Cities(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(cities))
	for _, c := range cities {
		names = append(names, c.Name)
	}
	return names, nil
}

// GetPubNamesInCity returns the pub names of a city in catalog order.
func (s *Service) GetPubNamesInCity(ctx context.Context, cityName string) ([]string, error) {
	city, err := s.catalog.CityByName(ctx, cityName)
	if err != nil {
		return nil, err
	}

	pubs, err := s.catalog.PubsInCity(ctx, city.ID)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(pubs))
	for _, p := range pubs {
		names = append(names, p.Name)
	}
	return names, nil
}

// GetPubDetails returns a pub and up to PubDetailsLimit of its beers,
// cheapest first.
func (s *Service) GetPubDetails(ctx context.Context, cityName, pubName string) (*PubDetails, error) {
	pub, err := s.catalog.PubByName(ctx, cityName, pubName)
	if err != nil {
		return nil, err
	}

	result, err := s.getBeers(ctx, query.Filter{
		CityName: cityName,
		Limit:    PubDetailsLimit,
	}, query.SortPriceAsc, func(p catalog.Pub) bool { return p.ID == pub.ID })
	if err != nil {
		return nil, err
	}

	return &PubDetails{Pub: *pub, Beers: result.Beers}, nil
}

// GetGoogleMapsURL returns a maps search URL for the pub's coordinates.
func (s *Service) GetGoogleMapsURL(ctx context.Context, cityName, pubName string) (string, error) {
	pub, err := s.catalog.PubByName(ctx, cityName, pubName)
	if err != nil {
		return "", err
	}
	return pub.MapsURL(), nil
}

// GetBeerDetails returns one beer and every serving of it in the city.
// It is recomputed from the current catalog payloads on each call.
func (s *Service) GetBeerDetails(ctx context.Context, cityName string, beerID catalog.ID) (*beer.BeerWithServings, error) {
	city, err := s.catalog.CityByName(ctx, cityName)
	if err != nil {
		return nil, err
	}

	pubs, err := s.catalog.PubsInCity(ctx, city.ID)
	if err != nil {
		return nil, err
	}

	pubTaps, _, err := s.fetchTaps(ctx, pubs)
	if err != nil {
		return nil, err
	}

	b, ok := beer.Aggregate(pubTaps).Get(beerID)
	if !ok {
		return nil, fmt.Errorf("%w: %q in %q", ErrBeerNotFound, beerID, cityName)
	}
	return b, nil
}
