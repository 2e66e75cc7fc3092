package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cardpulse/marketscan/pkg/logger"
	"github.com/cardpulse/marketscan/pkg/models"
	"github.com/cardpulse/marketscan/pkg/validation"
)

// searchResponse is the body of a successful POST /api/search. Errors
// carries per-marketplace failure reasons without breaking the results
// contract and is omitted when every marketplace answered cleanly.
type searchResponse struct {
	Results []models.Listing  `json:"results"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// writeJSON writes a JSON response with proper headers
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Log.Error("JSON encoding error", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}

// searchHandler validates the request, fans out to the requested
// marketplaces, and returns the concatenated listings. Marketplace faults
// never fail the request; only invalid input (400) or an internal fault
// (500) does.
func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	result, err := s.aggregator.Search(r.Context(), req)
	if err != nil {
		var verrs validation.ValidationErrors
		if errors.As(err, &verrs) {
			s.writeError(w, http.StatusBadRequest, "Search term and marketplaces are required")
			return
		}
		logger.Log.Error("search failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Search failed")
		return
	}

	s.writeJSON(w, http.StatusOK, searchResponse{
		Results: result.Listings,
		Errors:  result.Errors,
	})
}

// healthHandler reports liveness only; it touches no upstream marketplace.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:    "OK",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
