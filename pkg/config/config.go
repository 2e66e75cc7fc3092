package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Ebay holds the Browse API credentials and endpoint base.
type Ebay struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
}

type Config struct {
	HTTPPort int

	Ebay Ebay

	// Scrape targets; overridable so tests can point them at fixtures.
	CardsHQBaseURL string
	MySlabsBaseURL string

	// RedisURL is optional. When set, the eBay fetcher caches its OAuth
	// token in Redis with an expiry; when empty every search
	// re-authenticates, which matches the upstream-sanctioned behavior.
	RedisURL string

	// FetchTimeout bounds one marketplace fetch end to end. The default
	// must cover the MySlabs worst case: 25 pages with a 1s politeness
	// delay before each page after the first.
	FetchTimeout time.Duration

	// MySlabsPageDelay is the minimum wait between consecutive requests
	// to MySlabs.
	MySlabsPageDelay time.Duration
}

// Load reads environment variables and application flags (via a local
// FlagSet), strips out any -test.* flags, and validates required fields.
func Load() (*Config, error) {
	// Build a fresh FlagSet so we don't collide with `go test` flags
	fs := flag.NewFlagSet("config", flag.ContinueOnError)

	var httpPort int
	fs.IntVar(&httpPort, "port", 3001, "HTTP listen port")

	// Filter out any -test.* args before parsing
	var appArgs []string
	for _, arg := range os.Args[1:] {
		if strings.HasPrefix(arg, "-test.") {
			continue
		}
		appArgs = append(appArgs, arg)
	}
	if err := fs.Parse(appArgs); err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPPort: httpPort,
		Ebay: Ebay{
			ClientID:     os.Getenv("EBAY_CLIENT_ID"),
			ClientSecret: os.Getenv("EBAY_CLIENT_SECRET"),
			BaseURL:      getEnvOrDefault("EBAY_BASE_URL", "https://api.ebay.com"),
		},
		CardsHQBaseURL:   getEnvOrDefault("CARDSHQ_BASE_URL", "https://www.cardshq.com/"),
		MySlabsBaseURL:   getEnvOrDefault("MYSLABS_BASE_URL", "https://www.myslabs.com"),
		RedisURL:         os.Getenv("REDIS_URL"),
		FetchTimeout:     getDurationEnvOrDefault("FETCH_TIMEOUT", 90*time.Second),
		MySlabsPageDelay: getDurationEnvOrDefault("MYSLABS_PAGE_DELAY", time.Second),
	}

	// PORT env var overrides the flag/default if set
	if portEnv := os.Getenv("PORT"); portEnv != "" {
		portVal, err := strconv.Atoi(portEnv)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT env var: %v", err)
		}
		cfg.HTTPPort = portVal
	}

	if cfg.FetchTimeout <= 0 {
		return nil, fmt.Errorf("FETCH_TIMEOUT must be positive")
	}
	if cfg.CardsHQBaseURL == "" || cfg.MySlabsBaseURL == "" {
		return nil, fmt.Errorf("marketplace base URLs must not be empty")
	}
	// eBay credentials are deliberately not required: the service still
	// serves the scraped marketplaces without them, and eBay searches
	// degrade to empty results.

	return cfg, nil
}

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnvOrDefault returns environment variable as duration or default
func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
