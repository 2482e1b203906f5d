package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rubiojr/pkgsearch/pkg/cache"
	"github.com/rubiojr/pkgsearch/pkg/log"
	"github.com/rubiojr/pkgsearch/pkg/search"
)

// Options are the runtime settings of the API server.
type Options struct {
	PageSize  int
	CacheSize int
	CacheTTL  time.Duration
}

type Server struct {
	backend search.Backend
	logger  *log.Logger

	mu      sync.RWMutex
	service *search.Service
	cache   *cache.ResponseCache
}

func NewServer(backend search.Backend, opts Options) *Server {
	s := &Server{
		backend: backend,
		logger:  log.ForService("api"),
	}
	s.Reconfigure(opts)
	return s
}

// Reconfigure swaps the search service and response cache for ones built
// from opts. Cached responses are dropped since they depend on the page size.
func (s *Server) Reconfigure(opts Options) {
	service := search.NewService(s.backend, opts.PageSize)
	c := cache.New(service, opts.CacheSize, opts.CacheTTL)

	s.mu.Lock()
	s.service = service
	s.cache = c
	s.mu.Unlock()

	s.logger.Debugf("configured page size %d, cache size %d, cache ttl %s",
		service.PageSize(), opts.CacheSize, opts.CacheTTL)
}

func (s *Server) fetcher() *cache.ResponseCache {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache
}

// PageSize is the page size currently in effect.
func (s *Server) PageSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.service.PageSize()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Errorf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	response := ErrorResponse{
		Error:   error,
		Message: message,
	}
	s.writeJSON(w, status, response)
}

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
