package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		terms   []string
		filters []Filter
	}{
		{
			name:  "empty",
			query: "",
		},
		{
			name:  "whitespace only",
			query: "  \t ",
		},
		{
			name:  "terms only",
			query: "http  client",
			terms: []string{"http", "client"},
		},
		{
			name:  "stars filter",
			query: "http stars:>500",
			terms: []string{"http"},
			filters: []Filter{
				{Key: FilterStars, Comparison: GreaterThan, Value: "500"},
			},
		},
		{
			name:  "all comparisons keep order",
			query: "stars:>=1 stars:<=9 stars:<5 stars:7 last_activity:>2024-01-31",
			filters: []Filter{
				{Key: FilterStars, Comparison: GreaterThanOrEqual, Value: "1"},
				{Key: FilterStars, Comparison: LessThanOrEqual, Value: "9"},
				{Key: FilterStars, Comparison: LessThan, Value: "5"},
				{Key: FilterStars, Comparison: Match, Value: "7"},
				{Key: FilterLastActivity, Comparison: GreaterThan, Value: "2024-01-31"},
			},
		},
		{
			name:  "negative match and folded key",
			query: "LICENSE:!gpl Author:apple json",
			terms: []string{"json"},
			filters: []Filter{
				{Key: FilterLicense, Comparison: NegativeMatch, Value: "gpl"},
				{Key: FilterAuthor, Comparison: Match, Value: "apple"},
			},
		},
		{
			name:  "invalid filters stay terms",
			query: "stars:many last_activity:yesterday license:>mit foo:bar keyword: :x",
			terms: []string{"stars:many", "last_activity:yesterday", "license:>mit", "foo:bar", "keyword:", ":x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := ParseQuery(tt.query)
			assert.Equal(t, tt.terms, parsed.Terms)
			assert.Equal(t, tt.filters, parsed.Filters)
		})
	}
}

func TestParsedQueryTerm(t *testing.T) {
	parsed := ParseQuery("  swift   stars:>10 \n argument parser ")
	assert.Equal(t, "swift argument parser", parsed.Term())
	assert.False(t, parsed.Empty())
	assert.True(t, ParseQuery("").Empty())
}

func TestComparisonStrings(t *testing.T) {
	tests := []struct {
		comparison Comparison
		userFacing string
		operator   string
	}{
		{Match, "is", ""},
		{NegativeMatch, "is not", "!"},
		{GreaterThan, "is greater than", ">"},
		{GreaterThanOrEqual, "is greater than or equal to", ">="},
		{LessThan, "is less than", "<"},
		{LessThanOrEqual, "is less than or equal to", "<="},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.userFacing, tt.comparison.UserFacingString())
		assert.Equal(t, tt.operator, tt.comparison.Operator())
	}
}

func TestFilterString(t *testing.T) {
	f := Filter{Key: FilterStars, Comparison: GreaterThanOrEqual, Value: "100"}
	assert.Equal(t, "stars:>=100", f.String())
	assert.Equal(t, []Filter{f}, ParseQuery(f.String()).Filters)
}
