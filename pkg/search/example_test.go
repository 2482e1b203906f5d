package search_test

import (
	"fmt"

	"github.com/rubiojr/pkgsearch/pkg/search"
)

func ExampleEncodeResult() {
	data, err := search.EncodeResult(search.KeywordMatch(search.KeywordResult{Keyword: "networking"}))
	if err != nil {
		panic(err)
	}
	fmt.Println(string(data))
	// Output: {"keyword":{"_0":{"keyword":"networking"}}}
}

func ExampleParseQuery() {
	parsed := search.ParseQuery("http client stars:>500 license:!gpl")
	fmt.Println("Term:", parsed.Term())
	for _, f := range parsed.Filters {
		fmt.Println(f.Key, f.Comparison.UserFacingString(), f.Value)
	}
	// Output:
	// Term: http client
	// stars is greater than 500
	// license is not gpl
}

func ExamplePaginate() {
	p := search.Paginate("json", 3, false)
	fmt.Println(p.Previous.RelativeURL("/search"))
	fmt.Println(p.Next == nil)
	// Output:
	// /search?page=2&query=json
	// true
}
