// Package search turns catalog match rows into typed search results and
// assembles them into paginated, categorized results pages.
//
// # Overview
//
// A search flows through four steps:
//
//   - The catalog (see pkg/storage) returns RawMatch rows for one page plus a
//     "has more" flag computed with a lookahead row.
//   - FromRawMatch validates each row and converts it into a Result, a closed
//     union of KeywordResult and PackageResult. Keyword rows without a
//     keyword are dropped; unknown match kinds are an error.
//   - Assemble buckets the ordered results into package and keyword lists,
//     passes author matches through, and carries the query, filters and
//     page number.
//   - Paginate decides which previous/next links a results page offers.
//
// # Wire format
//
// Results that cross a serialization boundary (API responses, the response
// cache, snapshots) use a fixed tagged shape:
//
//	{"keyword": {"_0": {"keyword": "parser"}}}
//	{"package": {"_0": {"packageName": "Alamofire", "repositoryOwner": "Alamofire"}}}
//
// Exactly one top-level key, holding an object with the single key "_0".
// Absent PackageResult fields are omitted, never null. EncodeResult and
// DecodeResult implement the shape; Result's JSON methods delegate to them.
//
// # Queries
//
// ParseQuery splits the user query into free-text terms and filters such as
// "stars:>500", "last_activity:>=2024-01-01", "license:mit" or
// "author:!apple". Tokens that are not valid filters stay terms.
//
// # Usage
//
//	service := search.NewService(catalog, 20)
//	page, err := service.Search(ctx, search.ParseParams(r.URL.Query()))
//	if err != nil {
//		return err
//	}
//	for _, pkg := range page.PackageResults {
//		fmt.Println(pkg.DisplayName())
//	}
//	if next := page.Pagination().Next; next != nil {
//		fmt.Println(next.RelativeURL("/search"))
//	}
package search
