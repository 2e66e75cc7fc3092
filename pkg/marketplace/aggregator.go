package marketplace

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cardpulse/marketscan/pkg/logger"
	"github.com/cardpulse/marketscan/pkg/metrics"
	"github.com/cardpulse/marketscan/pkg/models"
)

// Result is the outcome of one aggregation. Listings from all requested
// marketplaces are concatenated in request order with no cross-marketplace
// dedup, sort, or ranking. Errors maps a marketplace identifier to the
// reason its contribution is missing or partial; an empty map means every
// requested marketplace answered cleanly.
type Result struct {
	Listings []models.Listing
	Errors   map[string]string
}

// Aggregator fans a search out to every requested marketplace and joins
// the results. Fetchers share no mutable state, so they run concurrently;
// one marketplace failing or timing out never aborts the aggregate.
type Aggregator struct {
	registry *Registry
	timeout  time.Duration
}

func NewAggregator(registry *Registry, timeout time.Duration) *Aggregator {
	return &Aggregator{registry: registry, timeout: timeout}
}

// Search validates the request and gathers listings from each recognized
// marketplace. The only error it returns is a validation failure; fetcher
// faults are contained per marketplace and reported through Result.Errors.
func (a *Aggregator) Search(ctx context.Context, req models.SearchRequest) (Result, error) {
	req.Sanitize()
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	type slot struct {
		id       string
		fetcher  Fetcher
		listings []models.Listing
		err      error
	}

	var slots []*slot
	seen := make(map[string]bool)
	for _, id := range req.Marketplaces {
		if seen[id] {
			continue
		}
		seen[id] = true
		fetcher, ok := a.registry.Lookup(id)
		if !ok {
			// Permissive selection model: unknown identifiers are
			// ignored, not rejected.
			logger.Log.Debug("ignoring unrecognized marketplace", zap.String("marketplace", id))
			continue
		}
		slots = append(slots, &slot{id: id, fetcher: fetcher})
	}

	var wg sync.WaitGroup
	for _, s := range slots {
		wg.Add(1)
		go func(s *slot) {
			defer wg.Done()
			fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			start := time.Now()
			s.listings, s.err = s.fetcher.Search(fetchCtx, req.SearchTerm)
			elapsed := time.Since(start)

			market := s.fetcher.Market()
			if s.err != nil {
				metrics.FetchDuration.WithLabelValues(market, "error").Observe(elapsed.Seconds())
				metrics.FetchErrors.WithLabelValues(market).Inc()
				logger.Log.Warn("marketplace fetch failed",
					zap.String("marketplace", s.id),
					zap.Duration("elapsed", elapsed),
					zap.Error(s.err))
				return
			}
			metrics.FetchDuration.WithLabelValues(market, "success").Observe(elapsed.Seconds())
			metrics.ListingsFetched.WithLabelValues(market).Add(float64(len(s.listings)))
			logger.Log.Info("marketplace fetch complete",
				zap.String("marketplace", s.id),
				zap.Int("listings", len(s.listings)),
				zap.Duration("elapsed", elapsed))
		}(s)
	}
	wg.Wait()

	result := Result{
		Listings: []models.Listing{},
		Errors:   make(map[string]string),
	}
	for _, s := range slots {
		if s.err != nil {
			result.Errors[s.id] = s.err.Error()
			continue
		}
		result.Listings = append(result.Listings, s.listings...)
	}
	return result, nil
}
