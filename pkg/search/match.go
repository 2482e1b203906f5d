package search

import (
	"fmt"

	"github.com/google/uuid"
)

// MatchKind discriminates the rows produced by the catalog query. Only the
// two declared kinds are valid; the zero value is not.
type MatchKind int

const (
	MatchKeyword MatchKind = iota + 1
	MatchPackage
)

// String returns the database representation of the kind.
func (k MatchKind) String() string {
	switch k {
	case MatchKeyword:
		return "keyword"
	case MatchPackage:
		return "package"
	default:
		return fmt.Sprintf("MatchKind(%d)", int(k))
	}
}

// UnknownMatchKindError is returned when a row carries a match kind outside
// the closed set of kinds.
type UnknownMatchKindError struct {
	Kind string
}

func (e *UnknownMatchKindError) Error() string {
	return fmt.Sprintf("unknown match kind %q", e.Kind)
}

// ParseMatchKind converts the match_type column value into a MatchKind.
func ParseMatchKind(s string) (MatchKind, error) {
	switch s {
	case "keyword":
		return MatchKeyword, nil
	case "package":
		return MatchPackage, nil
	default:
		return 0, &UnknownMatchKindError{Kind: s}
	}
}

// RawMatch is a single row as returned by the catalog query. Any column may
// be missing regardless of Kind.
type RawMatch struct {
	Kind            MatchKind
	Keyword         *string
	PackageID       *uuid.UUID
	PackageName     *string
	PackageURL      *string
	RepositoryName  *string
	RepositoryOwner *string
	Summary         *string
}

// FromRawMatch validates a row and converts it into a Result.
//
// A keyword row without a keyword is malformed: ok is false and err is nil,
// and the caller is expected to drop the row. Package rows always convert,
// whatever columns are missing. Rows with a kind outside the declared set
// fail with *UnknownMatchKindError.
func FromRawMatch(m RawMatch) (r Result, ok bool, err error) {
	switch m.Kind {
	case MatchKeyword:
		if m.Keyword == nil {
			return Result{}, false, nil
		}
		return KeywordMatch(KeywordResult{Keyword: *m.Keyword}), true, nil
	case MatchPackage:
		return PackageMatch(NewPackageResult(
			m.PackageID,
			m.PackageName,
			m.PackageURL,
			m.RepositoryName,
			m.RepositoryOwner,
			m.Summary,
		)), true, nil
	default:
		return Result{}, false, &UnknownMatchKindError{Kind: m.Kind.String()}
	}
}

// FromRawMatches converts a batch of rows preserving their order. Malformed
// rows are dropped and counted; an unknown kind aborts the conversion.
func FromRawMatches(rows []RawMatch) ([]Result, int, error) {
	results := make([]Result, 0, len(rows))
	dropped := 0
	for i, row := range rows {
		r, ok, err := FromRawMatch(row)
		if err != nil {
			return nil, dropped, fmt.Errorf("row %d: %w", i, err)
		}
		if !ok {
			dropped++
			continue
		}
		results = append(results, r)
	}
	return results, dropped, nil
}
