package search

import (
	"github.com/google/uuid"
	"github.com/rubiojr/pkgsearch/pkg/textutil"
)

// ResultKind identifies the variant held by a Result.
type ResultKind int

const (
	KindKeyword ResultKind = iota + 1
	KindPackage
)

func (k ResultKind) String() string {
	switch k {
	case KindKeyword:
		return tagKeyword
	case KindPackage:
		return tagPackage
	default:
		return "invalid"
	}
}

// KeywordResult is a keyword matching the search term.
type KeywordResult struct {
	Keyword string `json:"keyword"`
}

// PackageResult is a package matching the search term. Every field is
// optional because the joined package and repository data may be incomplete.
type PackageResult struct {
	PackageID       *uuid.UUID `json:"packageId,omitempty"`
	PackageName     *string    `json:"packageName,omitempty"`
	PackageURL      *string    `json:"packageURL,omitempty"`
	RepositoryName  *string    `json:"repositoryName,omitempty"`
	RepositoryOwner *string    `json:"repositoryOwner,omitempty"`
	Summary         *string    `json:"summary,omitempty"`
}

// NewPackageResult builds a PackageResult, expanding shorthand emojis in the
// summary. This is the only place the expansion happens; decoding a stored
// PackageResult keeps the summary verbatim.
func NewPackageResult(id *uuid.UUID, name, url, repoName, repoOwner, summary *string) PackageResult {
	if summary != nil {
		s := textutil.ReplaceShorthandEmojis(*summary)
		summary = &s
	}
	return PackageResult{
		PackageID:       id,
		PackageName:     name,
		PackageURL:      url,
		RepositoryName:  repoName,
		RepositoryOwner: repoOwner,
		Summary:         summary,
	}
}

// DisplayName is the package name, falling back to the repository name.
func (p PackageResult) DisplayName() string {
	if p.PackageName != nil {
		return *p.PackageName
	}
	return deref(p.RepositoryName)
}

// Equal reports whether both results hold the same values.
func (p PackageResult) Equal(o PackageResult) bool {
	return equalID(p.PackageID, o.PackageID) &&
		equalString(p.PackageName, o.PackageName) &&
		equalString(p.PackageURL, o.PackageURL) &&
		equalString(p.RepositoryName, o.RepositoryName) &&
		equalString(p.RepositoryOwner, o.RepositoryOwner) &&
		equalString(p.Summary, o.Summary)
}

// Result is a single search match: exactly one of a keyword match or a
// package match. Use KeywordMatch or PackageMatch to build one; the zero
// value holds no variant and cannot be encoded.
type Result struct {
	kind    ResultKind
	keyword KeywordResult
	pkg     PackageResult
}

// KeywordMatch wraps a keyword result.
func KeywordMatch(k KeywordResult) Result {
	return Result{kind: KindKeyword, keyword: k}
}

// PackageMatch wraps a package result.
func PackageMatch(p PackageResult) Result {
	return Result{kind: KindPackage, pkg: p}
}

// Kind returns the variant held by r.
func (r Result) Kind() ResultKind {
	return r.kind
}

// Keyword returns the keyword payload if r is a keyword match.
func (r Result) Keyword() (KeywordResult, bool) {
	if r.kind != KindKeyword {
		return KeywordResult{}, false
	}
	return r.keyword, true
}

// Package returns the package payload if r is a package match.
func (r Result) Package() (PackageResult, bool) {
	if r.kind != KindPackage {
		return PackageResult{}, false
	}
	return r.pkg, true
}

// Equal reports whether both results hold the same variant and payload.
func (r Result) Equal(o Result) bool {
	if r.kind != o.kind {
		return false
	}
	switch r.kind {
	case KindKeyword:
		return r.keyword == o.keyword
	case KindPackage:
		return r.pkg.Equal(o.pkg)
	default:
		return true
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func equalString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
