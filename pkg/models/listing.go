package models

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cardpulse/marketscan/pkg/validation"
)

// Display names reported in the "market" field of a Listing.
const (
	MarketEbay    = "eBay"
	MarketCardsHQ = "CardsHQ"
	MarketMySlabs = "MySlabs"
)

// PlaceholderImage is used when a source listing has no resolvable thumbnail.
const PlaceholderImage = "https://via.placeholder.com/100x140?text=Card"

// Listing is one marketplace offer matched to a search term. Listings are
// built fresh for every search and never persisted.
type Listing struct {
	// ID is unique within a single search response (marketplace-prefixed
	// or derived from the listing URL); it is not stable across searches.
	ID     string  `json:"id"`
	Market string  `json:"market"`
	Card   string  `json:"card"`
	Price  float64 `json:"price"`
	Image  string  `json:"image"`
	URL    string  `json:"url"`
	// Difference is a price delta against a baseline that has never been
	// specified (market average? prior price?). It stays null until a
	// real comparison exists; nothing here invents a value for it.
	Difference *float64 `json:"difference"`
}

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	SearchTerm   string   `json:"searchTerm" validate:"required"`
	Marketplaces []string `json:"marketplaces" validate:"required,min=1,dive,marketplace"`
}

// Sanitize trims the term and canonicalizes marketplace identifiers to
// their lowercase form.
func (r *SearchRequest) Sanitize() {
	r.SearchTerm = validation.SanitizeString(r.SearchTerm)
	for i, id := range r.Marketplaces {
		r.Marketplaces[i] = strings.ToLower(validation.SanitizeString(id))
	}
}

// Validate reports all request-shape problems at once.
func (r SearchRequest) Validate() error {
	if errors := validation.ValidateStruct(r); len(errors) > 0 {
		return errors
	}
	return nil
}

var nonPrice = regexp.MustCompile(`[^0-9.]`)

// ParsePrice extracts a numeric price from free-text like "$1,234.56 USD"
// by stripping everything but digits and decimal points. Unparseable input
// yields 0, matching the sources' lenient price handling.
func ParsePrice(s string) float64 {
	cleaned := nonPrice.ReplaceAllString(s, "")
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return price
}
