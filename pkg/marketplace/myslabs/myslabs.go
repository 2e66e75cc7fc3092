package myslabs

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

const (
	itemsPerPage = 72
	// maxPages bounds the scrape regardless of the reported result count.
	maxPages = 25

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36"
)

var (
	tabCountRe  = regexp.MustCompile(`\(([\d,]+)\)`)
	listingIDRe = regexp.MustCompile(`[0-9]+`)
)

// Fetcher scrapes MySlabs search results. The site is sensitive to client
// identity, so every request carries a browser User-Agent, and consecutive
// page requests are separated by a politeness delay.
type Fetcher struct {
	http      *resty.Client
	baseURL   string
	pageDelay time.Duration
}

func New(baseURL string, pageDelay time.Duration) *Fetcher {
	client := resty.New().
		SetTimeout(30 * time.Second).
		SetHeader("User-Agent", browserUserAgent).
		SetHeader("Accept-Language", "en-US,en;q=0.9")
	return &Fetcher{http: client, baseURL: baseURL, pageDelay: pageDelay}
}

func (f *Fetcher) Market() string { return models.MarketMySlabs }

// Search parses page 1 immediately, reads the total count from the "all"
// tab badge, then walks pages 2 through min(ceil(count/72), 25) with the
// politeness delay before each request. A failure on a later page stops
// pagination but keeps everything gathered so far: partial results are
// better than none for this source.
func (f *Fetcher) Search(ctx context.Context, term string) ([]models.Listing, error) {
	firstURL := fmt.Sprintf("%s/search/all/?publish_type=all&owner=&q=%s&x=13&y=14&o=created_desc",
		f.baseURL, url.QueryEscape(term))
	doc, err := f.fetchPage(ctx, firstURL)
	if err != nil {
		return nil, &marketplace.FetchError{Market: models.MarketMySlabs, Page: 1, Err: err}
	}

	listings := f.parseListings(doc)

	total := totalResultCount(doc)
	totalPages := int(math.Ceil(float64(total) / itemsPerPage))
	if totalPages > maxPages {
		totalPages = maxPages
	}
	logger.Log.Debug("myslabs result count",
		zap.String("term", term),
		zap.Int("total", total),
		zap.Int("pages", totalPages))

	for page := 2; page <= totalPages; page++ {
		select {
		case <-ctx.Done():
			logger.Log.Warn("myslabs pagination cancelled, keeping partial results",
				zap.Int("page", page),
				zap.Int("listings", len(listings)))
			return listings, nil
		case <-time.After(f.pageDelay):
		}

		pageURL := fmt.Sprintf("%s/search/all/?publish_type=all&q=%s&o=created_desc&page=%d",
			f.baseURL, url.QueryEscape(term), page)
		doc, err := f.fetchPage(ctx, pageURL)
		if err != nil {
			logger.Log.Warn("myslabs page fetch failed, keeping partial results",
				zap.Int("page", page),
				zap.Int("listings", len(listings)),
				zap.Error(err))
			return listings, nil
		}
		listings = append(listings, f.parseListings(doc)...)
	}
	return listings, nil
}

func (f *Fetcher) fetchPage(ctx context.Context, pageURL string) (*goquery.Document, error) {
	resp, err := f.http.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("status code: %d", resp.StatusCode())
	}
	metrics.PagesScraped.WithLabelValues(models.MarketMySlabs).Inc()
	return goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
}

// totalResultCount reads the parenthesized count from the "all" tab badge,
// e.g. "(1,234)" -> 1234. Absence yields zero: page 1's items still count.
func totalResultCount(doc *goquery.Document) int {
	text := strings.TrimSpace(doc.Find("a#pills-all-tab small").Text())
	m := tabCountRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0
	}
	return n
}

func (f *Fetcher) parseListings(doc *goquery.Document) []models.Listing {
	var listings []models.Listing
	doc.Find(".slab_item").Each(func(i int, s *goquery.Selection) {
		href := strings.TrimSpace(s.Find(".text-decoration-none").AttrOr("href", ""))

		img := s.Find(".slab_item_img_inside img")
		image := strings.TrimSpace(img.AttrOr("data-src", ""))
		if image == "" {
			image = strings.TrimSpace(img.AttrOr("src", ""))
		}
		if image == "" {
			image = models.PlaceholderImage
		}

		listings = append(listings, models.Listing{
			ID:     listingID(href, len(listings)),
			Market: models.MarketMySlabs,
			Card:   strings.TrimSpace(s.Find(".slab-title").Text()),
			Price:  models.ParsePrice(s.Find(".item-price").Text()),
			Image:  image,
			URL:    f.baseURL + href,
		})
	})
	return listings
}

// listingID derives the numeric listing id from the part of the detail
// href after the "view" path token.
func listingID(href string, ordinal int) string {
	_, after, found := strings.Cut(href, "view")
	if found {
		if m := listingIDRe.FindString(after); m != "" {
			return "myslabs-" + m
		}
	}
	return fmt.Sprintf("myslabs-%d", ordinal)
}
