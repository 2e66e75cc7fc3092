package ebay

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/cardpulse/marketscan/pkg/config"
	"github.com/cardpulse/marketscan/pkg/logger"
	"github.com/cardpulse/marketscan/pkg/marketplace"
	"github.com/cardpulse/marketscan/pkg/metrics"
	"github.com/cardpulse/marketscan/pkg/models"
)

const (
	tokenPath   = "/identity/v1/oauth2/token"
	searchPath  = "/buy/browse/v1/item_summary/search"
	browseScope = "https://api.ebay.com/oauth/api_scope"
)

// Fetcher searches the eBay Browse API. Each search acquires an OAuth2
// client-credentials token first; with a NopTokenCache (the default) that
// means a fresh token per search, which eBay tolerates and the upstream
// behavior sanctions. Wire a real cache to skip repeat auth round-trips.
type Fetcher struct {
	http         *resty.Client
	clientID     string
	clientSecret string
	cache        TokenCache
}

func New(cfg config.Ebay, cache TokenCache) *Fetcher {
	if cache == nil {
		cache = NopTokenCache{}
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json")
	return &Fetcher{
		http:         client,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		cache:        cache,
	}
}

func (f *Fetcher) Market() string { return models.MarketEbay }

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type itemSummary struct {
	ItemID string `json:"itemId"`
	Title  string `json:"title"`
	Price  struct {
		Value string `json:"value"`
	} `json:"price"`
	Image struct {
		ImageURL string `json:"imageUrl"`
	} `json:"image"`
	ItemWebURL string `json:"itemWebUrl"`
}

type searchResponse struct {
	ItemSummaries []itemSummary `json:"itemSummaries"`
}

// accessToken returns a bearer token, consulting the cache first.
func (f *Fetcher) accessToken(ctx context.Context) (string, error) {
	if token, ok := f.cache.Get(ctx); ok {
		metrics.EbayTokenCacheHits.Inc()
		return token, nil
	}

	var tok tokenResponse
	resp, err := f.http.R().
		SetContext(ctx).
		SetBasicAuth(f.clientID, f.clientSecret).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetFormData(map[string]string{
			"grant_type": "client_credentials",
			"scope":      browseScope,
		}).
		SetResult(&tok).
		Post(tokenPath)
	if err != nil {
		metrics.EbayTokenRequests.WithLabelValues("error").Inc()
		return "", &marketplace.AuthError{Market: models.MarketEbay, Err: err}
	}
	if resp.IsError() {
		metrics.EbayTokenRequests.WithLabelValues("error").Inc()
		return "", &marketplace.AuthError{
			Market: models.MarketEbay,
			Err:    fmt.Errorf("token endpoint returned %s", resp.Status()),
		}
	}
	if tok.AccessToken == "" {
		metrics.EbayTokenRequests.WithLabelValues("error").Inc()
		return "", &marketplace.AuthError{
			Market: models.MarketEbay,
			Err:    fmt.Errorf("token endpoint returned no access_token"),
		}
	}
	metrics.EbayTokenRequests.WithLabelValues("success").Inc()

	if tok.ExpiresIn > 60 {
		// Expire a minute early so a cached token is never presented
		// right at its deadline.
		f.cache.Set(ctx, tok.AccessToken, time.Duration(tok.ExpiresIn-60)*time.Second)
	}
	return tok.AccessToken, nil
}

// Search queries the Browse item-summary endpoint and maps each summary to
// a Listing. Missing prices default to 0 and missing images to the shared
// placeholder.
func (f *Fetcher) Search(ctx context.Context, term string) ([]models.Listing, error) {
	token, err := f.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var body searchResponse
	resp, err := f.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParam("q", term).
		SetResult(&body).
		Get(searchPath)
	if err != nil {
		return nil, &marketplace.FetchError{Market: models.MarketEbay, Err: err}
	}
	if resp.IsError() {
		return nil, &marketplace.FetchError{
			Market: models.MarketEbay,
			Err:    fmt.Errorf("search endpoint returned %s", resp.Status()),
		}
	}

	listings := make([]models.Listing, 0, len(body.ItemSummaries))
	for i, item := range body.ItemSummaries {
		id := item.ItemID
		if id == "" {
			id = fmt.Sprintf("%d", i)
		}
		image := item.Image.ImageURL
		if image == "" {
			image = models.PlaceholderImage
		}
		listings = append(listings, models.Listing{
			ID:     "ebay-" + id,
			Market: models.MarketEbay,
			Card:   item.Title,
			Price:  models.ParsePrice(item.Price.Value),
			Image:  image,
			URL:    item.ItemWebURL,
		})
	}
	logger.Log.Debug("ebay search complete",
		zap.String("term", term),
		zap.Int("items", len(listings)))
	return listings, nil
}
