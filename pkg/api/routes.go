package api

import (
	"net/http"
)

// SearchPath is where the search endpoint is mounted; page links point at it.
const SearchPath = "/api/search"

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET "+SearchPath, s.HandleSearch)
	mux.HandleFunc("GET /api/cache", s.HandleCacheStats)
	mux.HandleFunc("GET /health", s.HandleHealth)
}
