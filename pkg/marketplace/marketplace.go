package marketplace

import (
	"context"

	"github.com/cardpulse/marketscan/pkg/models"
)

// Fetcher retrieves every listing matching a search term from one
// marketplace. Implementations own their transport details (auth,
// pagination, parsing) behind this boundary so upstream breakage stays
// localized and testable with fixtures.
type Fetcher interface {
	// Market returns the display name stamped on produced listings.
	Market() string
	// Search returns all matching listings. A non-nil error means the
	// marketplace contributed nothing; a partial slice with a nil error
	// is valid (some sources prefer partial results over none).
	Search(ctx context.Context, term string) ([]models.Listing, error)
}

// Registry maps marketplace identifiers ("ebay", "cardshq", ...) to their
// fetchers. Identifiers with no registered fetcher are silently ignored by
// the aggregator.
type Registry struct {
	fetchers map[string]Fetcher
}

func NewRegistry() *Registry {
	return &Registry{fetchers: make(map[string]Fetcher)}
}

// Register binds id to f, replacing any previous binding.
func (r *Registry) Register(id string, f Fetcher) {
	r.fetchers[id] = f
}

// Lookup returns the fetcher for id, if any.
func (r *Registry) Lookup(id string) (Fetcher, bool) {
	f, ok := r.fetchers[id]
	return f, ok
}
