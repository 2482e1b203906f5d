package search

import (
	"net/url"
	"strconv"
)

// MaxPage is the highest page number accepted or linked to. It keeps
// page arithmetic and catalog offsets clear of integer overflow.
const MaxPage = 1_000_000

// PageLink points at another page of the same query.
type PageLink struct {
	Query string `json:"query"`
	Page  int    `json:"page"`
}

// RelativeURL renders the link against path, e.g. "/search?page=2&query=x".
func (l PageLink) RelativeURL(path string) string {
	v := url.Values{}
	v.Set("query", l.Query)
	v.Set("page", strconv.Itoa(l.Page))
	return path + "?" + v.Encode()
}

// Pagination holds the navigation links of a results page. A nil link is
// not offered.
type Pagination struct {
	Previous *PageLink
	Next     *PageLink
}

// Paginate offers a previous link when page is past the first one and a next
// link when the query reported more results. Pages are clamped to
// [1, MaxPage] and no next link is offered from MaxPage.
func Paginate(query string, page int, hasMore bool) Pagination {
	page = clampPage(page)
	var p Pagination
	if page > 1 {
		p.Previous = &PageLink{Query: query, Page: page - 1}
	}
	if hasMore && page < MaxPage {
		p.Next = &PageLink{Query: query, Page: page + 1}
	}
	return p
}

func clampPage(page int) int {
	switch {
	case page < 1:
		return 1
	case page > MaxPage:
		return MaxPage
	}
	return page
}
