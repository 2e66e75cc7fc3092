package cardshq

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/cardpulse/marketscan/pkg/logger"
	"github.com/cardpulse/marketscan/pkg/marketplace"
	"github.com/cardpulse/marketscan/pkg/metrics"
	"github.com/cardpulse/marketscan/pkg/models"
)

const itemsPerPage = 36

var (
	resultCountRe = regexp.MustCompile(`^(\d+)\s+results$`)
	proxyImageRe  = regexp.MustCompile(`url=([^&]+)`)
)

// Fetcher scrapes the CardsHQ search results. The extraction is coupled to
// the site's current markup; if the structure changes it degrades to fewer
// or zero records rather than erroring.
type Fetcher struct {
	http    *resty.Client
	baseURL string
}

func New(baseURL string) *Fetcher {
	return &Fetcher{
		http:    resty.New().SetTimeout(30 * time.Second),
		baseURL: baseURL,
	}
}

func (f *Fetcher) Market() string { return models.MarketCardsHQ }

// Search fetches page 1 to read the total result count, then walks every
// page from 1 through the last, parsing each page's listing cards. A
// missing count indicator is a valid "no results" signal. A failure on any
// page is fatal for this marketplace only.
func (f *Fetcher) Search(ctx context.Context, term string) ([]models.Listing, error) {
	first, err := f.fetchPage(ctx, term, 1)
	if err != nil {
		return nil, &marketplace.FetchError{Market: models.MarketCardsHQ, Page: 1, Err: err}
	}

	total := totalResultCount(first)
	if total == 0 {
		logger.Log.Info("cardshq reported no results", zap.String("term", term))
		return []models.Listing{}, nil
	}
	totalPages := int(math.Ceil(float64(total) / itemsPerPage))
	logger.Log.Debug("cardshq result count",
		zap.String("term", term),
		zap.Int("total", total),
		zap.Int("pages", totalPages))

	var listings []models.Listing
	for page := 1; page <= totalPages; page++ {
		doc, err := f.fetchPage(ctx, term, page)
		if err != nil {
			return nil, &marketplace.FetchError{Market: models.MarketCardsHQ, Page: page, Err: err}
		}
		listings = append(listings, f.parseListings(doc)...)
	}
	return listings, nil
}

func (f *Fetcher) fetchPage(ctx context.Context, term string, page int) (*goquery.Document, error) {
	pageURL := fmt.Sprintf("%ssearch?q=%s&page=%d", f.baseURL, url.QueryEscape(term), page)
	resp, err := f.http.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("status code: %d", resp.StatusCode())
	}
	metrics.PagesScraped.WithLabelValues(models.MarketCardsHQ).Inc()
	return goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
}

// totalResultCount locates the "<N> results" indicator. Absence means zero
// results, not a fault.
func totalResultCount(doc *goquery.Document) int {
	total := 0
	doc.Find("div").Each(func(i int, s *goquery.Selection) {
		m := resultCountRe.FindStringSubmatch(strings.TrimSpace(s.Text()))
		if m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				total = n
			}
		}
	})
	return total
}

func (f *Fetcher) parseListings(doc *goquery.Document) []models.Listing {
	var listings []models.Listing
	doc.Find(".group.relative.flex.flex-col.w-full").Each(func(i int, s *goquery.Selection) {
		href := s.Find("a.relative.flex.h-full.w-full.justify-center").AttrOr("href", "")
		segments := strings.Split(href, "/")
		id := segments[len(segments)-1]

		listings = append(listings, models.Listing{
			ID:     id,
			Market: models.MarketCardsHQ,
			Card:   strings.TrimSpace(s.Find("h2").Text()),
			Price:  models.ParsePrice(s.Find("p").Text()),
			Image:  proxiedImage(s.Find("img").AttrOr("src", "")),
			URL:    f.baseURL + href,
		})
	})
	return listings
}

// proxiedImage recovers the real thumbnail URL from the site's CDN proxy
// URL by decoding its url= query parameter.
func proxiedImage(proxyURL string) string {
	m := proxyImageRe.FindStringSubmatch(strings.TrimSpace(proxyURL))
	if m == nil {
		return models.PlaceholderImage
	}
	decoded, err := url.QueryUnescape(m[1])
	if err != nil || decoded == "" {
		return models.PlaceholderImage
	}
	return decoded
}
