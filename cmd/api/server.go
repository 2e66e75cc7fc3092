package main

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/cardpulse/marketscan/pkg/marketplace"
	"github.com/cardpulse/marketscan/pkg/metrics"
)

// Server wires the aggregator to the HTTP surface.
type Server struct {
	aggregator *marketplace.Aggregator
}

func NewServer(aggregator *marketplace.Aggregator) *Server {
	return &Server{aggregator: aggregator}
}

// Routes builds the router with the shared middleware chain.
func (s *Server) Routes() http.Handler {
	router := mux.NewRouter()

	router.Use(recoveryMiddleware)
	router.Use(loggingMiddleware)
	router.Use(corsMiddleware)
	router.Use(metricsMiddleware)

	router.HandleFunc("/api/search", s.searchHandler).Methods("POST")
	router.HandleFunc("/health", s.healthHandler).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	return router
}
