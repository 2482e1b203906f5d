package api

import (
	"time"

	"github.com/rubiojr/pkgsearch/pkg/search"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type FilterResponse struct {
	Key        string `json:"key"`
	Comparison string `json:"comparison"`
	Value      string `json:"value"`
}

type PageLinkResponse struct {
	Query string `json:"query"`
	Page  int    `json:"page"`
	URL   string `json:"url"`
}

// SearchResponse is one results page. Results holds every result in wire
// form in catalog order; the *_results fields are the same results bucketed
// by kind.
type SearchResponse struct {
	Query          string                 `json:"query"`
	Term           string                 `json:"term"`
	State          string                 `json:"state"`
	Page           int                    `json:"page"`
	HasMoreResults bool                   `json:"has_more_results"`
	Filters        []FilterResponse       `json:"filters"`
	PackageResults []search.PackageResult `json:"package_results"`
	KeywordResults []search.KeywordResult `json:"keyword_results"`
	AuthorResults  []search.AuthorResult  `json:"author_results"`
	Results        []search.Result        `json:"results"`
	Previous       *PageLinkResponse      `json:"previous,omitempty"`
	Next           *PageLinkResponse      `json:"next,omitempty"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

type CacheStatsResponse struct {
	Enabled bool  `json:"enabled"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Evicted int64 `json:"evicted"`
	Entries int   `json:"entries"`
}

func newSearchResponse(page search.ResultsPage) SearchResponse {
	resp := SearchResponse{
		Query:          page.Query,
		Term:           page.Term,
		State:          page.State().String(),
		Page:           page.Page,
		HasMoreResults: page.HasMoreResults,
		Filters:        make([]FilterResponse, 0, len(page.Filters)),
		PackageResults: nonNil(page.PackageResults),
		KeywordResults: nonNil(page.KeywordResults),
		AuthorResults:  nonNil(page.AuthorResults),
		Results:        nonNil(page.Results),
	}

	for _, f := range page.Filters {
		resp.Filters = append(resp.Filters, FilterResponse{
			Key:        f.Key,
			Comparison: f.Comparison.UserFacingString(),
			Value:      f.Value,
		})
	}

	pagination := page.Pagination()
	resp.Previous = linkResponse(pagination.Previous)
	resp.Next = linkResponse(pagination.Next)
	return resp
}

func linkResponse(l *search.PageLink) *PageLinkResponse {
	if l == nil {
		return nil
	}
	return &PageLinkResponse{
		Query: l.Query,
		Page:  l.Page,
		URL:   l.RelativeURL(SearchPath),
	}
}

// nonNil makes empty buckets encode as [] instead of null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
