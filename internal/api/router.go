// Package api exposes the beer service over HTTP.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/ontap-client/pkg/logging"
	"github.com/Sternrassler/ontap-client/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ontap_http_requests_total",
	Help: "Total HTTP API requests by route pattern and status",
}, []string{"route", "status"})

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// RateLimit is requests per minute per client IP (0 disables)
	RateLimit int

	// RequestTimeout cancels a request's context after this long (0 disables)
	RequestTimeout time.Duration

	// Checks are run by /health, keyed by dependency name
	Checks map[string]PingFunc
}

// NewRouter builds the chi router. /health and /metrics are not rate limited.
func NewRouter(h *Handlers, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(countRequests)

	r.Get("/health", HealthHandlerFunc(opts.Checks))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if opts.RateLimit > 0 {
			r.Use(httprate.LimitByIP(opts.RateLimit, time.Minute))
		}
		if opts.RequestTimeout > 0 {
			r.Use(middleware.Timeout(opts.RequestTimeout))
		}

		r.Get("/cities", h.ListCities)
		r.Get("/cities/{city}/pubs", h.ListPubs)
		r.Get("/cities/{city}/pubs/{pub}", h.GetPub)
		r.Get("/cities/{city}/pubs/{pub}/maps", h.GetPubMapsURL)
		r.Get("/cities/{city}/beers", h.QueryBeers)
		r.Get("/cities/{city}/beers/{beerID}", h.GetBeer)
	})

	return r
}

// requestLogger attaches a request-scoped logger and logs each request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.NewLogger("api").With().
			Str("request_id", middleware.GetReqID(r.Context())).
			Logger()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r.WithContext(logging.WithContext(r.Context(), logger)))

		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status_code", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

// countRequests records ontap_http_requests_total by matched route pattern.
func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		httpRequestsTotal.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
	})
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
