package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/ontap-client/pkg/beer"
	"github.com/Sternrassler/ontap-client/pkg/cache"
	"github.com/Sternrassler/ontap-client/pkg/catalog"
	"github.com/Sternrassler/ontap-client/pkg/client"
	"github.com/Sternrassler/ontap-client/pkg/logging"
	"github.com/Sternrassler/ontap-client/pkg/query"
	"github.com/Sternrassler/ontap-client/pkg/service"
	"github.com/go-chi/chi/v5"
)

// BeerService is the subset of service.Service the handlers call.
type BeerService interface {
	GetBeers(ctx context.Context, filter query.Filter, sortBy query.SortBy) (*query.Result, error)
	GetCitiesNames(ctx context.Context) ([]string, error)
	GetPubNamesInCity(ctx context.Context, cityName string) ([]string, error)
	GetPubDetails(ctx context.Context, cityName, pubName string) (*service.PubDetails, error)
	GetGoogleMapsURL(ctx context.Context, cityName, pubName string) (string, error)
	GetBeerDetails(ctx context.Context, cityName string, beerID catalog.ID) (*beer.BeerWithServings, error)
}

// Ensure service.Service satisfies BeerService
var _ BeerService = (*service.Service)(nil)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	svc BeerService
}

// NewHandlers constructs Handlers over svc.
func NewHandlers(svc BeerService) *Handlers {
	if svc == nil {
		panic("service cannot be nil")
	}
	return &Handlers{svc: svc}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, client.ErrCityNotFound),
		errors.Is(err, client.ErrPubNotFound),
		errors.Is(err, service.ErrBeerNotFound):
		status = http.StatusNotFound
	case errors.Is(err, query.ErrInvalidFilter),
		errors.Is(err, query.ErrInvalidSort),
		errors.Is(err, errBadParam):
		status = http.StatusBadRequest
	case errors.Is(err, cache.ErrCacheUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, client.ErrFetchFailed):
		status = http.StatusBadGateway
	}

	logger := logging.FromContext(r.Context(), "api")
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).Int("status_code", status).Msg("Request failed")

	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// pathParam returns a decoded URL parameter. chi yields the escaped form
// when the request path needed RawPath.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// ListCities handles GET /api/v1/cities.
func (h *Handlers) ListCities(w http.ResponseWriter, r *http.Request) {
	names, err := h.svc.GetCitiesNames(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

// ListPubs handles GET /api/v1/cities/{city}/pubs.
func (h *Handlers) ListPubs(w http.ResponseWriter, r *http.Request) {
	names, err := h.svc.GetPubNamesInCity(r.Context(), pathParam(r, "city"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

// GetPub handles GET /api/v1/cities/{city}/pubs/{pub}.
func (h *Handlers) GetPub(w http.ResponseWriter, r *http.Request) {
	details, err := h.svc.GetPubDetails(r.Context(), pathParam(r, "city"), pathParam(r, "pub"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// GetPubMapsURL handles GET /api/v1/cities/{city}/pubs/{pub}/maps.
// With ?redirect=true it answers 302 to the map instead of returning JSON.
func (h *Handlers) GetPubMapsURL(w http.ResponseWriter, r *http.Request) {
	mapsURL, err := h.svc.GetGoogleMapsURL(r.Context(), pathParam(r, "city"), pathParam(r, "pub"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	if redirect, _ := strconv.ParseBool(r.URL.Query().Get("redirect")); redirect {
		http.Redirect(w, r, mapsURL, http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": mapsURL})
}

// QueryBeers handles GET /api/v1/cities/{city}/beers.
//
// Query parameters: style, name, pub (patterns), priceFrom, priceTo,
// abvFrom, abvTo (numbers), limit, sort, and format (json, csv or text).
func (h *Handlers) QueryBeers(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(pathParam(r, "city"), r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format != "" && format != "json" && format != "csv" && format != "text" {
		writeError(w, r, fmt.Errorf("%w: format %q", errBadParam, format))
		return
	}

	result, err := h.svc.GetBeers(r.Context(), filter, query.SortBy(r.URL.Query().Get("sort")))
	if err != nil {
		writeError(w, r, err)
		return
	}

	switch format {
	case "csv":
		out, err := query.FormatCSV(result.Beers)
		if err != nil {
			writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		_, _ = w.Write([]byte(out))
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(query.FormatText(*result)))
	default:
		writeJSON(w, http.StatusOK, result)
	}
}

// GetBeer handles GET /api/v1/cities/{city}/beers/{beerID}.
func (h *Handlers) GetBeer(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.GetBeerDetails(r.Context(), pathParam(r, "city"), catalog.ID(pathParam(r, "beerID")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// PingFunc reports whether a dependency is reachable.
type PingFunc func(ctx context.Context) error

// HealthHandlerFunc returns 200 when every check passes and 503 otherwise.
func HealthHandlerFunc(checks map[string]PingFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{"status": "ok"}

		for name, ping := range checks {
			if err := ping(ctx); err != nil {
				logger := logging.FromContext(r.Context(), "api")
				logger.Error().Err(err).Str("dependency", name).Msg("Health check failed")
				body[name] = "error"
				status = http.StatusServiceUnavailable
				continue
			}
			body[name] = "ok"
		}

		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		writeJSON(w, status, body)
	}
}
