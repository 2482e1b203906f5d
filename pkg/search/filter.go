package search

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Comparison is the operator of a query filter.
type Comparison int

const (
	Match Comparison = iota + 1
	NegativeMatch
	GreaterThan
	GreaterThanOrEqual
	LessThan
	LessThanOrEqual
)

// UserFacingString is the comparison as shown next to an applied filter.
func (c Comparison) UserFacingString() string {
	switch c {
	case Match:
		return "is"
	case NegativeMatch:
		return "is not"
	case GreaterThan:
		return "is greater than"
	case GreaterThanOrEqual:
		return "is greater than or equal to"
	case LessThan:
		return "is less than"
	case LessThanOrEqual:
		return "is less than or equal to"
	default:
		return ""
	}
}

// Operator is the query syntax prefix for the comparison.
func (c Comparison) Operator() string {
	switch c {
	case NegativeMatch:
		return "!"
	case GreaterThan:
		return ">"
	case GreaterThanOrEqual:
		return ">="
	case LessThan:
		return "<"
	case LessThanOrEqual:
		return "<="
	default:
		return ""
	}
}

func (c Comparison) ordered() bool {
	return c == GreaterThan || c == GreaterThanOrEqual || c == LessThan || c == LessThanOrEqual
}

// Filter keys understood by the query parser.
const (
	FilterStars        = "stars"
	FilterLastActivity = "last_activity"
	FilterLicense      = "license"
	FilterAuthor       = "author"
	FilterKeyword      = "keyword"
)

// DateLayout is the accepted format of date filter values.
const DateLayout = "2006-01-02"

// Filter is a structured constraint extracted from the query, such as
// "stars:>500".
type Filter struct {
	Key        string     `json:"key"`
	Comparison Comparison `json:"comparison"`
	Value      string     `json:"value"`
}

// String renders the filter back in query syntax.
func (f Filter) String() string {
	return f.Key + ":" + f.Comparison.Operator() + f.Value
}

// ParsedQuery is a query split into free-text terms and filters, both in the
// order they appeared.
type ParsedQuery struct {
	Terms   []string
	Filters []Filter
}

// Term is the free-text part of the query, as displayed to the user.
func (q ParsedQuery) Term() string {
	return strings.Join(q.Terms, " ")
}

// Empty reports whether the query holds neither terms nor filters.
func (q ParsedQuery) Empty() bool {
	return len(q.Terms) == 0 && len(q.Filters) == 0
}

// ParseQuery splits a raw query on whitespace. Tokens of the form key:value
// with a known key and a valid value become filters; everything else,
// including filters with unknown keys or invalid values, is kept as a term.
func ParseQuery(query string) ParsedQuery {
	var parsed ParsedQuery
	for _, token := range strings.Fields(query) {
		if f, ok := parseFilter(token); ok {
			parsed.Filters = append(parsed.Filters, f)
			continue
		}
		parsed.Terms = append(parsed.Terms, token)
	}
	return parsed
}

func parseFilter(token string) (Filter, bool) {
	key, rest, found := strings.Cut(token, ":")
	if !found || key == "" {
		return Filter{}, false
	}
	// Casers are stateful, so one is made per token.
	key = cases.Fold().String(key)

	comparison, value := splitComparison(rest)
	if value == "" {
		return Filter{}, false
	}

	switch key {
	case FilterStars:
		if _, err := strconv.Atoi(value); err != nil {
			return Filter{}, false
		}
	case FilterLastActivity:
		if _, err := time.Parse(DateLayout, value); err != nil {
			return Filter{}, false
		}
	case FilterLicense, FilterAuthor, FilterKeyword:
		if comparison.ordered() {
			return Filter{}, false
		}
	default:
		return Filter{}, false
	}

	return Filter{Key: key, Comparison: comparison, Value: value}, true
}

func splitComparison(s string) (Comparison, string) {
	// Two-character operators first.
	switch {
	case strings.HasPrefix(s, ">="):
		return GreaterThanOrEqual, s[2:]
	case strings.HasPrefix(s, "<="):
		return LessThanOrEqual, s[2:]
	case strings.HasPrefix(s, ">"):
		return GreaterThan, s[1:]
	case strings.HasPrefix(s, "<"):
		return LessThan, s[1:]
	case strings.HasPrefix(s, "!"):
		return NegativeMatch, s[1:]
	default:
		return Match, s
	}
}
