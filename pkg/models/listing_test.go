package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParsePrice(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want float64
	}{
		{"plain", "99.95", 99.95},
		{"dollar sign and commas", "$1,234.56 USD", 1234.56},
		{"whitespace", "  $42.00 ", 42},
		{"integer", "$310", 310},
		{"empty", "", 0},
		{"no digits", "call for price", 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ParsePrice(c.in); got != c.want {
				t.Errorf("ParsePrice(%q) = %v; want %v", c.in, got, c.want)
			}
		})
	}
}

func TestSearchRequestValidate(t *testing.T) {
	cases := []struct {
		name    string
		req     SearchRequest
		wantErr bool
	}{
		{
			name: "valid",
			req:  SearchRequest{SearchTerm: "Mahomes", Marketplaces: []string{"ebay", "cardshq"}},
		},
		{
			name:    "missing term",
			req:     SearchRequest{Marketplaces: []string{"ebay"}},
			wantErr: true,
		},
		{
			name:    "empty marketplaces",
			req:     SearchRequest{SearchTerm: "Mahomes", Marketplaces: []string{}},
			wantErr: true,
		},
		{
			name:    "nil marketplaces",
			req:     SearchRequest{SearchTerm: "Mahomes"},
			wantErr: true,
		},
		{
			name: "unrecognized but well-formed marketplace passes",
			req:  SearchRequest{SearchTerm: "Mahomes", Marketplaces: []string{"etsy"}},
		},
		{
			name:    "malformed marketplace id",
			req:     SearchRequest{SearchTerm: "Mahomes", Marketplaces: []string{"not a token!"}},
			wantErr: true,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.req.Validate()
			if (err != nil) != c.wantErr {
				t.Errorf("err = %v; wantErr %v", err, c.wantErr)
			}
		})
	}
}

func TestSearchRequestSanitize(t *testing.T) {
	req := SearchRequest{
		SearchTerm:   "  Mahomes \x00",
		Marketplaces: []string{" EBAY", "CardsHQ "},
	}
	req.Sanitize()
	if req.SearchTerm != "Mahomes" {
		t.Errorf("SearchTerm = %q; want %q", req.SearchTerm, "Mahomes")
	}
	if req.Marketplaces[0] != "ebay" || req.Marketplaces[1] != "cardshq" {
		t.Errorf("Marketplaces = %v; want lowercased", req.Marketplaces)
	}
}

func TestListingJSONHasNullDifference(t *testing.T) {
	data, err := json.Marshal(Listing{ID: "ebay-1", Market: MarketEbay})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"difference":null`) {
		t.Errorf("expected explicit null difference, got %s", data)
	}
}
