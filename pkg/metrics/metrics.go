package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// API metrics
	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)
	APIRequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Per-marketplace fetch metrics
	FetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketplace_fetch_duration_seconds",
			Help:    "Time to fetch all listings from one marketplace",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"marketplace", "status"},
	)
	FetchErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_fetch_errors_total",
			Help: "Marketplace fetches that failed or were absorbed",
		},
		[]string{"marketplace"},
	)
	ListingsFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_listings_fetched_total",
			Help: "Listings returned across all searches",
		},
		[]string{"marketplace"},
	)
	PagesScraped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_pages_scraped_total",
			Help: "Result pages fetched from scraped marketplaces",
		},
		[]string{"marketplace"},
	)

	// eBay auth metrics
	EbayTokenRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ebay_token_requests_total",
			Help: "OAuth token requests against the eBay identity endpoint",
		},
		[]string{"status"},
	)
	EbayTokenCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ebay_token_cache_hits_total",
			Help: "Token requests served from the expiry-checked cache",
		})

	// Redis metrics
	RedisOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Redis operation duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)
	RedisErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_errors_total",
			Help: "Total Redis errors",
		},
		[]string{"operation"},
	)
)

func init() {
	// MustRegister panics if registration fails (e.g. duplicate)
	prometheus.MustRegister(
		APIRequestDuration, APIRequestTotal,
		FetchDuration, FetchErrors, ListingsFetched, PagesScraped,
		EbayTokenRequests, EbayTokenCacheHits,
		RedisOperationDuration, RedisErrors,
	)
}

// Handler exposes the registry for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
