package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rubiojr/pkgsearch/pkg/log"
	"golang.org/x/sync/errgroup"
)

// DefaultPageSize is used when a service is created with a non-positive
// page size.
const DefaultPageSize = 20

// Query is what the catalog receives for one page of results.
type Query struct {
	Terms    []string
	Filters  []Filter
	Page     int
	PageSize int
}

// Term is the free-text part of the query.
func (q Query) Term() string {
	return ParsedQuery{Terms: q.Terms}.Term()
}

// Backend runs catalog queries. Matches returns the raw rows of one page
// and whether further pages exist; Authors returns matching authors.
type Backend interface {
	Matches(ctx context.Context, q Query) ([]RawMatch, bool, error)
	Authors(ctx context.Context, q Query) ([]AuthorResult, error)
}

// Params are the request parameters of a search.
type Params struct {
	// Query is the raw query string, filters included. Empty means no
	// search is performed.
	Query string
	// Page is 1-based.
	Page int
}

// ParseParams reads "query" (or the short form "q") and "page" from HTTP
// query parameters. Missing or invalid pages default to 1; pages past
// MaxPage are clamped to it.
func ParseParams(values map[string][]string) Params {
	params := Params{Page: 1}

	if q := values["query"]; len(q) > 0 {
		params.Query = q[0]
	} else if q := values["q"]; len(q) > 0 {
		params.Query = q[0]
	}

	if pageStr := values["page"]; len(pageStr) > 0 && pageStr[0] != "" {
		if parsed, err := strconv.Atoi(pageStr[0]); err == nil && parsed > 0 {
			params.Page = min(parsed, MaxPage)
		} else if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(pageStr[0], "-") {
			params.Page = MaxPage
		}
	}

	return params
}

// Service runs searches against a Backend and assembles results pages.
type Service struct {
	backend  Backend
	pageSize int
	logger   *log.Logger
}

// NewService creates a search service paging by pageSize.
func NewService(backend Backend, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Service{
		backend:  backend,
		pageSize: pageSize,
		logger:   log.ForService("search"),
	}
}

// PageSize returns the number of package results per page.
func (s *Service) PageSize() int {
	return s.pageSize
}

// Fetch runs the catalog queries for params and returns the raw response.
// An empty query returns an empty response without touching the backend.
func (s *Service) Fetch(ctx context.Context, params Params) (Response, error) {
	params.Page = clampPage(params.Page)
	query := strings.TrimSpace(params.Query)
	parsed := ParseQuery(query)
	resp := Response{
		Query:   query,
		Term:    parsed.Term(),
		Filters: parsed.Filters,
		Page:    params.Page,
	}
	if parsed.Empty() {
		return resp, nil
	}

	q := Query{
		Terms:    parsed.Terms,
		Filters:  parsed.Filters,
		Page:     params.Page,
		PageSize: s.pageSize,
	}

	var (
		rows    []RawMatch
		hasMore bool
		authors []AuthorResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, hasMore, err = s.backend.Matches(gctx, q)
		if err != nil {
			return fmt.Errorf("querying matches: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		authors, err = s.backend.Authors(gctx, q)
		if err != nil {
			return fmt.Errorf("querying authors: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Response{}, err
	}

	results, dropped, err := FromRawMatches(rows)
	if err != nil {
		return Response{}, fmt.Errorf("converting matches: %w", err)
	}
	if dropped > 0 {
		s.logger.Debugf("dropped %d malformed rows for query %q", dropped, query)
	}

	resp.Results = results
	resp.HasMoreResults = hasMore
	resp.Authors = authors
	return resp, nil
}

// Search fetches and assembles one results page.
func (s *Service) Search(ctx context.Context, params Params) (ResultsPage, error) {
	resp, err := s.Fetch(ctx, params)
	if err != nil {
		return ResultsPage{}, err
	}
	return Assemble(resp), nil
}
