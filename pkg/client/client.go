// Package client provides the ontap catalog HTTP client with transparent
// response caching and error classification.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/ontap-client/pkg/cache"
	"github.com/Sternrassler/ontap-client/pkg/catalog"
	"github.com/Sternrassler/ontap-client/pkg/logging"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the public ontap catalog API.
const DefaultBaseURL = "https://ontap.pl/api/v1"

// Prometheus metrics for catalog client operations.
var (
	ontapRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ontap_requests_total",
		Help: "Total catalog requests by endpoint and status",
	}, []string{"endpoint", "status"})

	ontapRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ontap_request_duration_seconds",
		Help:    "Catalog request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	ontapErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ontap_errors_total",
		Help: "Total catalog errors by class",
	}, []string{"class"})
)

// Client is the catalog client. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	cache      cache.Store
	baseURL    *url.URL
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// APIKey is sent in the api-key header (REQUIRED)
	APIKey string

	// BaseURL of the catalog API (default: DefaultBaseURL)
	BaseURL string

	// Cache consulted before every request (REQUIRED), usually a *cache.Tiered
	Cache cache.Store

	// Timeout per HTTP request (default: 30s)
	Timeout time.Duration

	// HTTPClient overrides the transport; Timeout is ignored when set
	HTTPClient *http.Client

	// DeviceID is sent in the device-id header (default: random UUID)
	DeviceID string

	// StrictCache fails a request when the cache cannot be read or the
	// response cannot be cached, instead of logging and carrying on
	StrictCache bool
}

// DefaultConfig returns a default configuration.
func DefaultConfig(apiKey string, store cache.Store) Config {
	return Config{
		APIKey:  apiKey,
		BaseURL: DefaultBaseURL,
		Cache:   store,
		Timeout: 30 * time.Second,
	}
}

// New creates a new catalog client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	if cfg.Cache == nil {
		return nil, fmt.Errorf("cache store is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	baseURL, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("invalid base url: %q", cfg.BaseURL)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	if cfg.DeviceID == "" {
		cfg.DeviceID = uuid.NewString()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		httpClient: httpClient,
		cache:      cfg.Cache,
		baseURL:    baseURL,
		config:     cfg,
		logger:     logging.NewLogger("catalog-client"),
	}, nil
}

// Get returns the raw payload for a catalog path such as "/cities".
//
// The cache is consulted first; a hit is returned verbatim with no network
// call. On a miss the catalog is queried and a successful body is cached.
// There is no retry.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	reqURL := c.resolve(path)
	key := cache.KeyFromURL(reqURL, c.baseURL.Path).String()
	endpoint := endpointLabel(key)

	data, err := c.cache.Get(ctx, key)
	if err == nil {
		c.logger.Debug().
			Str("endpoint", key).
			Bool("cache_hit", true).
			Msg("Serving catalog response from cache")
		return data, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		if c.config.StrictCache {
			return nil, cacheUnavailable(err)
		}
		c.logger.Warn().Err(err).Str("endpoint", key).Msg("Cache get error")
	}

	body, err := c.fetch(ctx, reqURL, key, endpoint)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, body); err != nil {
		if c.config.StrictCache {
			return nil, cacheUnavailable(err)
		}
		c.logger.Warn().Err(err).Str("endpoint", key).Msg("Failed to cache response")
	} else {
		c.logger.Debug().Str("endpoint", key).Msg("Cached response")
	}

	return body, nil
}

// cacheUnavailable marks err as a cache failure so callers can tell it from
// a catalog failure.
func cacheUnavailable(err error) error {
	if errors.Is(err, cache.ErrCacheUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", cache.ErrCacheUnavailable, err)
}

// fetch performs the HTTP request and returns the body of a 2xx response.
func (c *Client) fetch(ctx context.Context, reqURL *url.URL, key, endpoint string) ([]byte, error) {
	startTime := time.Now()
	defer func() {
		ontapRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("api-key", c.config.APIKey)
	req.Header.Set("device-id", c.config.DeviceID)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("endpoint", key).Msg("Executing catalog request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", key).Msg("HTTP request failed")
		ontapErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		ontapRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, &CatalogError{Class: ErrorClassNetwork, Path: key, Err: err}
	}
	defer resp.Body.Close()

	status := strconv.Itoa(resp.StatusCode)
	ontapRequestsTotal.WithLabelValues(endpoint, status).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errClass := classifyStatus(resp.StatusCode)
		ontapErrorsTotal.WithLabelValues(string(errClass)).Inc()

		c.logger.Warn().
			Str("endpoint", key).
			Int("status_code", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Catalog request error")

		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &CatalogError{
			StatusCode: resp.StatusCode,
			Class:      errClass,
			Path:       key,
			Err:        errors.New(resp.Status),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		ontapErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &CatalogError{
			StatusCode: resp.StatusCode,
			Class:      ErrorClassNetwork,
			Path:       key,
			Err:        fmt.Errorf("read body: %w", err),
		}
	}

	c.logger.Info().
		Str("endpoint", key).
		Int("status_code", resp.StatusCode).
		Dur("duration", time.Since(startTime)).
		Msg("Catalog request completed")

	return body, nil
}

// getJSON fetches path and decodes the payload into v.
func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	data, err := c.Get(ctx, path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, v); err != nil {
		ontapErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return &CatalogError{Class: ErrorClassDecode, Path: path, Err: err}
	}
	return nil
}

// Cities returns every city known to the catalog.
func (c *Client) Cities(ctx context.Context) ([]catalog.City, error) {
	var cities []catalog.City
	if err := c.getJSON(ctx, "/cities", &cities); err != nil {
		return nil, err
	}
	return cities, nil
}

// PubsInCity returns the pubs of a city in catalog order.
func (c *Client) PubsInCity(ctx context.Context, cityID catalog.ID) ([]catalog.Pub, error) {
	var pubs []catalog.Pub
	if err := c.getJSON(ctx, "/cities/"+url.PathEscape(cityID.String())+"/pubs", &pubs); err != nil {
		return nil, err
	}
	return pubs, nil
}

// TapsInPub returns the taps of a pub.
func (c *Client) TapsInPub(ctx context.Context, pubID catalog.ID) ([]catalog.Tap, error) {
	var taps []catalog.Tap
	if err := c.getJSON(ctx, "/pubs/"+url.PathEscape(pubID.String())+"/taps", &taps); err != nil {
		return nil, err
	}
	return taps, nil
}

// CityByName resolves a city by exact (case- and diacritic-sensitive) name.
func (c *Client) CityByName(ctx context.Context, name string) (*catalog.City, error) {
	cities, err := c.Cities(ctx)
	if err != nil {
		return nil, err
	}

	for i := range cities {
		if cities[i].Name == name {
			return &cities[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrCityNotFound, name)
}

// PubByName resolves a pub by exact name within the named city.
func (c *Client) PubByName(ctx context.Context, cityName, pubName string) (*catalog.Pub, error) {
	city, err := c.CityByName(ctx, cityName)
	if err != nil {
		return nil, err
	}

	pubs, err := c.PubsInCity(ctx, city.ID)
	if err != nil {
		return nil, err
	}

	for i := range pubs {
		if pubs[i].Name == pubName {
			return &pubs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q in %q", ErrPubNotFound, pubName, cityName)
}

// Cache returns the store consulted by the client.
func (c *Client) Cache() cache.Store {
	return c.cache
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// resolve joins a catalog path onto the base URL.
func (c *Client) resolve(path string) *url.URL {
	u := *c.baseURL
	rel, err := url.Parse(path)
	if err != nil {
		u.Path = c.baseURL.Path + "/" + strings.TrimLeft(path, "/")
		return &u
	}
	u.Path = c.baseURL.Path + "/" + strings.TrimLeft(rel.Path, "/")
	u.RawQuery = rel.RawQuery
	return &u
}

// endpointLabel collapses identifiers so metric cardinality stays bounded:
// "/cities/12/pubs" becomes "/cities/{id}/pubs".
func endpointLabel(key string) string {
	path, _, _ := strings.Cut(key, "?")
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if i > 0 && seg != "" && (segments[i-1] == "cities" || segments[i-1] == "pubs") {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}
