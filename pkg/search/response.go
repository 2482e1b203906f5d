package search

// AuthorResult is a repository owner matching the search term. Author
// matches come from a separate catalog query and are not part of the Result
// sequence.
type AuthorResult struct {
	Name string `json:"name"`
}

// Response is the outcome of the catalog query for one page: the ordered
// results plus the paging signal computed by the query itself.
type Response struct {
	// Query is the raw query as typed by the user.
	Query string `json:"query"`
	// Term is the free-text part of Query, filters removed.
	Term    string   `json:"term"`
	Filters []Filter `json:"filters,omitempty"`
	// Page is 1-based.
	Page           int            `json:"page"`
	HasMoreResults bool           `json:"hasMoreResults"`
	Results        []Result       `json:"results"`
	Authors        []AuthorResult `json:"authors,omitempty"`
}

// State tells the presentation layer what kind of page to show.
type State int

const (
	// StateNoQuery means no search was performed.
	StateNoQuery State = iota
	// StateNoResults means the query matched nothing of any kind.
	StateNoResults
	// StateResults means there is at least one package, keyword or author
	// match.
	StateResults
)

func (s State) String() string {
	switch s {
	case StateNoQuery:
		return "no_query"
	case StateNoResults:
		return "no_results"
	default:
		return "results"
	}
}

// ResultsPage is the categorized view of a Response consumed by renderers.
type ResultsPage struct {
	Query          string
	Term           string
	Filters        []Filter
	Page           int
	HasMoreResults bool

	Results        []Result
	PackageResults []PackageResult
	KeywordResults []KeywordResult
	AuthorResults  []AuthorResult
}

// Assemble buckets the results of resp by kind, keeping the relative order
// within each bucket. Author results are passed through. resp is not
// modified.
func Assemble(resp Response) ResultsPage {
	page := ResultsPage{
		Query:          resp.Query,
		Term:           resp.Term,
		Filters:        resp.Filters,
		Page:           resp.Page,
		HasMoreResults: resp.HasMoreResults,
		Results:        resp.Results,
		AuthorResults:  resp.Authors,
	}
	if page.Page < 1 {
		page.Page = 1
	}

	for _, r := range resp.Results {
		switch r.Kind() {
		case KindPackage:
			page.PackageResults = append(page.PackageResults, r.pkg)
		case KindKeyword:
			page.KeywordResults = append(page.KeywordResults, r.keyword)
		}
	}
	return page
}

// State reports whether a search was performed and whether it matched.
func (p ResultsPage) State() State {
	if p.Query == "" {
		return StateNoQuery
	}
	if len(p.Results) == 0 && len(p.AuthorResults) == 0 {
		return StateNoResults
	}
	return StateResults
}

// TwoColumn reports whether author or keyword matches need their own column
// next to the package list.
func (p ResultsPage) TwoColumn() bool {
	return len(p.AuthorResults) > 0 || len(p.KeywordResults) > 0
}

// Pagination returns the previous/next links for this page.
func (p ResultsPage) Pagination() Pagination {
	return Paginate(p.Query, p.Page, p.HasMoreResults)
}
