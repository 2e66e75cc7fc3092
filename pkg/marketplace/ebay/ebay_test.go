package ebay

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardpulse/marketscan/pkg/config"
	"github.com/cardpulse/marketscan/pkg/logger"
	"github.com/cardpulse/marketscan/pkg/marketplace"
	"github.com/cardpulse/marketscan/pkg/models"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

const searchFixture = `{
	"itemSummaries": [
		{
			"itemId": "v1|123|0",
			"title": "2021 Mahomes",
			"price": {"value": "99.95"},
			"itemWebUrl": "https://www.ebay.com/itm/123"
		},
		{
			"itemId": "v1|456|0",
			"title": "2020 Mahomes Prizm",
			"price": {"value": "1250.00"},
			"image": {"imageUrl": "https://i.ebayimg.com/images/456.jpg"},
			"itemWebUrl": "https://www.ebay.com/itm/456"
		}
	]
}`

// newMockEbay serves the token and search endpoints, recording calls.
func newMockEbay(t *testing.T, tokenStatus int) (*httptest.Server, *struct{ tokens, searches int }) {
	t.Helper()
	calls := &struct{ tokens, searches int }{}
	var mu sync.Mutex

	mux := http.NewServeMux()
	mux.HandleFunc(tokenPath, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls.tokens++
		mu.Unlock()

		wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("id123:sec456"))
		assert.Equal(t, wantAuth, r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, browseScope, r.PostForm.Get("scope"))

		if tokenStatus != http.StatusOK {
			w.WriteHeader(tokenStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-abc","expires_in":7200}`))
	})
	mux.HandleFunc(searchPath, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls.searches++
		mu.Unlock()

		assert.Equal(t, "Bearer tok-abc", r.Header.Get("Authorization"))
		assert.Equal(t, "Mahomes", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(searchFixture))
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, calls
}

func newFetcher(baseURL string, cache TokenCache) *Fetcher {
	return New(config.Ebay{
		ClientID:     "id123",
		ClientSecret: "sec456",
		BaseURL:      baseURL,
	}, cache)
}

func TestSearch(t *testing.T) {
	ts, calls := newMockEbay(t, http.StatusOK)
	f := newFetcher(ts.URL, nil)

	listings, err := f.Search(context.Background(), "Mahomes")
	require.NoError(t, err)
	require.Len(t, listings, 2)

	assert.Equal(t, models.Listing{
		ID:     "ebay-v1|123|0",
		Market: "eBay",
		Card:   "2021 Mahomes",
		Price:  99.95,
		Image:  models.PlaceholderImage,
		URL:    "https://www.ebay.com/itm/123",
	}, listings[0])
	assert.Equal(t, "ebay-v1|456|0", listings[1].ID)
	assert.Equal(t, 1250.00, listings[1].Price)
	assert.Equal(t, "https://i.ebayimg.com/images/456.jpg", listings[1].Image)

	assert.Equal(t, 1, calls.tokens)
	assert.Equal(t, 1, calls.searches)
}

func TestSearchAuthFailure(t *testing.T) {
	ts, calls := newMockEbay(t, http.StatusUnauthorized)
	f := newFetcher(ts.URL, nil)

	_, err := f.Search(context.Background(), "Mahomes")
	require.Error(t, err)

	var authErr *marketplace.AuthError
	assert.True(t, errors.As(err, &authErr), "want AuthError, got %T", err)
	assert.Equal(t, 0, calls.searches, "search endpoint must not be hit without a token")
}

func TestSearchEndpointDown(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == tokenPath {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"tok-abc","expires_in":7200}`))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	f := newFetcher(ts.URL, nil)
	_, err := f.Search(context.Background(), "Mahomes")
	require.Error(t, err)

	var fetchErr *marketplace.FetchError
	assert.True(t, errors.As(err, &fetchErr), "want FetchError, got %T", err)
}

// memoryCache is a test double for the expiry-checked token store.
type memoryCache struct {
	token string
	ttl   time.Duration
}

func (m *memoryCache) Get(context.Context) (string, bool) { return m.token, m.token != "" }
func (m *memoryCache) Set(_ context.Context, token string, ttl time.Duration) {
	m.token, m.ttl = token, ttl
}

func TestSearchUsesCachedToken(t *testing.T) {
	ts, calls := newMockEbay(t, http.StatusOK)
	f := newFetcher(ts.URL, &memoryCache{token: "tok-abc"})

	_, err := f.Search(context.Background(), "Mahomes")
	require.NoError(t, err)
	assert.Equal(t, 0, calls.tokens, "cached token must skip the identity endpoint")
	assert.Equal(t, 1, calls.searches)
}

func TestTokenCachedWithEarlyExpiry(t *testing.T) {
	ts, _ := newMockEbay(t, http.StatusOK)
	cache := &memoryCache{}
	f := newFetcher(ts.URL, cache)

	_, err := f.Search(context.Background(), "Mahomes")
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", cache.token)
	assert.Equal(t, time.Duration(7200-60)*time.Second, cache.ttl)
}

func TestNopCacheReauthenticatesEverySearch(t *testing.T) {
	ts, calls := newMockEbay(t, http.StatusOK)
	f := newFetcher(ts.URL, NopTokenCache{})

	for i := 0; i < 3; i++ {
		_, err := f.Search(context.Background(), "Mahomes")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, calls.tokens)
}
