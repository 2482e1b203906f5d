package api

import (
	"net/http"
	"time"

	"github.com/rubiojr/pkgsearch/pkg/search"
	"github.com/rubiojr/pkgsearch/pkg/version"
)

func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	params := search.ParseParams(r.URL.Query())

	resp, err := s.fetcher().Fetch(r.Context(), params)
	if err != nil {
		s.logger.Errorf("search %q page %d failed: %v", params.Query, params.Page, err)
		s.writeError(w, http.StatusInternalServerError, "Search failed", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, newSearchResponse(search.Assemble(resp)))
}

func (s *Server) HandleCacheStats(w http.ResponseWriter, r *http.Request) {
	c := s.fetcher()
	stats := c.Stats()

	s.writeJSON(w, http.StatusOK, CacheStatsResponse{
		Enabled: c.Enabled(),
		Hits:    stats.Hits,
		Misses:  stats.Misses,
		Evicted: stats.Evictions,
		Entries: stats.Entries,
	})
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
	}

	s.writeJSON(w, http.StatusOK, health)
}
