package search

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemblePreservesOrderWithinBuckets(t *testing.T) {
	a := PackageResult{PackageName: strPtr("A")}
	b := PackageResult{PackageName: strPtr("B")}
	k1 := KeywordResult{Keyword: "K1"}
	k2 := KeywordResult{Keyword: "K2"}
	authors := []AuthorResult{{Name: "apple"}, {Name: "vapor"}}

	resp := Response{
		Query:   "q",
		Term:    "q",
		Page:    1,
		Results: []Result{PackageMatch(a), KeywordMatch(k1), PackageMatch(b), KeywordMatch(k2)},
		Authors: authors,
	}
	page := Assemble(resp)

	assert.Equal(t, []PackageResult{a, b}, page.PackageResults)
	assert.Equal(t, []KeywordResult{k1, k2}, page.KeywordResults)
	assert.Equal(t, authors, page.AuthorResults)
	assert.Equal(t, StateResults, page.State())
	assert.True(t, page.TwoColumn())
}

func TestAssembleDoesNotModifyInput(t *testing.T) {
	results := []Result{KeywordMatch(KeywordResult{Keyword: "x"}), PackageMatch(PackageResult{})}
	resp := Response{Query: "x", Page: 1, Results: results}

	_ = Assemble(resp)
	first := Assemble(resp)
	second := Assemble(resp)

	assert.Equal(t, first, second)
	assert.Equal(t, KindKeyword, results[0].Kind())
	assert.Equal(t, KindPackage, results[1].Kind())
	assert.Len(t, resp.Results, 2)
}

func TestAssembleCarriesContext(t *testing.T) {
	filters := []Filter{
		{Key: FilterStars, Comparison: GreaterThan, Value: "5"},
		{Key: FilterLicense, Comparison: Match, Value: "mit"},
	}
	page := Assemble(Response{
		Query:          "json stars:>5 license:mit",
		Term:           "json",
		Filters:        filters,
		Page:           3,
		HasMoreResults: true,
	})

	assert.Equal(t, "json stars:>5 license:mit", page.Query)
	assert.Equal(t, "json", page.Term)
	assert.Equal(t, filters, page.Filters)
	assert.Equal(t, 3, page.Page)
	assert.True(t, page.HasMoreResults)
}

func TestAssembleClampsPage(t *testing.T) {
	assert.Equal(t, 1, Assemble(Response{Query: "x", Page: 0}).Page)
	assert.Equal(t, 1, Assemble(Response{Query: "x", Page: -4}).Page)
}

func TestResultsPageState(t *testing.T) {
	assert.Equal(t, StateNoQuery, Assemble(Response{}).State())
	assert.Equal(t, StateNoResults, Assemble(Response{Query: "nothing"}).State())
	assert.Equal(t, StateResults, Assemble(Response{
		Query:   "apple",
		Authors: []AuthorResult{{Name: "apple"}},
	}).State())

	onlyPackages := Assemble(Response{Query: "x", Results: []Result{PackageMatch(PackageResult{})}})
	assert.Equal(t, StateResults, onlyPackages.State())
	assert.False(t, onlyPackages.TwoColumn())
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		hasMore  bool
		previous *PageLink
		next     *PageLink
	}{
		{"first page, no more", 1, false, nil, nil},
		{"first page, more", 1, true, nil, &PageLink{Query: "q", Page: 2}},
		{"third page, no more", 3, false, &PageLink{Query: "q", Page: 2}, nil},
		{"middle page", 2, true, &PageLink{Query: "q", Page: 1}, &PageLink{Query: "q", Page: 3}},
		{"page below one", 0, true, nil, &PageLink{Query: "q", Page: 2}},
		{"last page with more", MaxPage, true, &PageLink{Query: "q", Page: MaxPage - 1}, nil},
		{"max int", math.MaxInt, true, &PageLink{Query: "q", Page: MaxPage - 1}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate("q", tt.page, tt.hasMore)
			assert.Equal(t, tt.previous, p.Previous)
			assert.Equal(t, tt.next, p.Next)
		})
	}
}

func TestPaginateNeverLinksBelowOne(t *testing.T) {
	for _, page := range []int{math.MinInt, -1, 0, 1, MaxPage - 1, MaxPage, math.MaxInt - 1, math.MaxInt} {
		p := Paginate("x", page, true)
		for _, link := range []*PageLink{p.Previous, p.Next} {
			if link == nil {
				continue
			}
			assert.GreaterOrEqual(t, link.Page, 1, "page %d", page)
			assert.LessOrEqual(t, link.Page, MaxPage, "page %d", page)
		}
	}
}

func TestResultsPagePagination(t *testing.T) {
	page := Assemble(Response{Query: "http client", Page: 2, HasMoreResults: true})
	p := page.Pagination()

	require.NotNil(t, p.Previous)
	require.NotNil(t, p.Next)
	assert.Equal(t, "/search?page=1&query=http+client", p.Previous.RelativeURL("/search"))
	assert.Equal(t, "/search?page=3&query=http+client", p.Next.RelativeURL("/search"))
}
