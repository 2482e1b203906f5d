// Package storage implements the package catalog: a SQLite database of
// packages and their keywords that answers search queries with raw match
// rows and author matches.
//
// Matching is plain case-insensitive substring matching; every free-text
// term must appear in the package name, summary, repository name or owner.
// Results are ordered by stars.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/rubiojr/pkgsearch/pkg/log"
	"github.com/rubiojr/pkgsearch/pkg/search"
)

const (
	// MaxKeywordMatches caps the keyword rows returned with the first page.
	MaxKeywordMatches = 50
	// MaxAuthorMatches caps the author matches returned with the first page.
	MaxAuthorMatches = 50
)

// PackageRecord is a package as imported into the catalog. Empty strings are
// stored as NULL.
type PackageRecord struct {
	ID              string   `json:"id,omitempty"`
	Name            string   `json:"name"`
	URL             string   `json:"url"`
	RepositoryOwner string   `json:"repository_owner"`
	RepositoryName  string   `json:"repository_name"`
	Summary         string   `json:"summary"`
	License         string   `json:"license"`
	Stars           int      `json:"stars"`
	LastActivity    string   `json:"last_activity"`
	Keywords        []string `json:"keywords"`
}

// Catalog is the SQLite package catalog. It implements search.Backend.
type Catalog struct {
	db     *sql.DB
	logger *log.Logger
}

var _ search.Backend = (*Catalog)(nil)

// OpenCatalog opens (creating if needed) the catalog database at dbPath.
func OpenCatalog(dbPath string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA cache_size = -16000", // 16MB cache
		"PRAGMA temp_store = memory",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	c := &Catalog{db: db, logger: log.ForService("storage")}
	if err := c.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating catalog: %w", err)
	}
	c.logger.Debugf("opened catalog %s", dbPath)
	return c, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

// ImportPackages inserts or replaces packages and their keywords in a single
// transaction. Records without an ID get a new random one.
func (c *Catalog) ImportPackages(ctx context.Context, records []PackageRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				c.logger.Warnf("failed to rollback transaction: %v", err)
			}
		}
	}()

	pkgStmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO packages
			(id, name, url, repository_owner, repository_name, summary, license, stars, last_activity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing package statement: %w", err)
	}
	defer pkgStmt.Close()

	delStmt, err := tx.PrepareContext(ctx, `DELETE FROM keywords WHERE package_id = ?`)
	if err != nil {
		return 0, fmt.Errorf("preparing keyword cleanup statement: %w", err)
	}
	defer delStmt.Close()

	kwStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO keywords (package_id, keyword) VALUES (?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing keyword statement: %w", err)
	}
	defer kwStmt.Close()

	for i, rec := range records {
		id, err := recordID(rec.ID)
		if err != nil {
			return 0, fmt.Errorf("record %d: %w", i, err)
		}
		if rec.LastActivity != "" {
			if _, err := time.Parse(search.DateLayout, rec.LastActivity); err != nil {
				return 0, fmt.Errorf("record %d: invalid last_activity %q: %w", i, rec.LastActivity, err)
			}
		}

		_, err = pkgStmt.ExecContext(ctx,
			id.String(),
			nullable(rec.Name),
			nullable(rec.URL),
			nullable(rec.RepositoryOwner),
			nullable(rec.RepositoryName),
			nullable(rec.Summary),
			nullable(rec.License),
			rec.Stars,
			nullable(rec.LastActivity),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting package %s: %w", id, err)
		}

		if _, err := delStmt.ExecContext(ctx, id.String()); err != nil {
			return 0, fmt.Errorf("clearing keywords of %s: %w", id, err)
		}
		for _, kw := range rec.Keywords {
			kw = strings.TrimSpace(kw)
			if kw == "" {
				continue
			}
			if _, err := kwStmt.ExecContext(ctx, id.String(), kw); err != nil {
				return 0, fmt.Errorf("inserting keyword %q of %s: %w", kw, id, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	committed = true

	return len(records), nil
}

// CountPackages returns the number of packages in the catalog.
func (c *Catalog) CountPackages(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM packages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting packages: %w", err)
	}
	return n, nil
}

// Matches returns keyword rows (first page only) followed by one page of
// package rows. The returned flag reports whether another page of packages
// exists.
func (c *Catalog) Matches(ctx context.Context, q search.Query) ([]search.RawMatch, bool, error) {
	pageSize := q.PageSize
	if pageSize < 1 {
		pageSize = search.DefaultPageSize
	}
	page := q.Page
	if page < 1 {
		page = 1
	}

	var rows []search.RawMatch

	if term := q.Term(); term != "" && page == 1 {
		kwRows, err := c.queryRows(ctx, `
			SELECT 'keyword', keyword, NULL, NULL, NULL, NULL, NULL, NULL
			FROM (
				SELECT DISTINCT keyword FROM keywords
				WHERE keyword LIKE ? ESCAPE '\'
				ORDER BY keyword
				LIMIT ?
			)`, likePattern(term), MaxKeywordMatches)
		if err != nil {
			return nil, false, fmt.Errorf("querying keywords: %w", err)
		}
		rows = append(rows, kwRows...)
	}

	where, args, err := packageConditions(q)
	if err != nil {
		return nil, false, err
	}
	offset, ok := pageOffset(page, pageSize)
	if !ok {
		return rows, false, nil
	}
	// One extra row tells whether a next page exists.
	args = append(args, pageSize+1, offset)

	pkgRows, err := c.queryRows(ctx, `
		SELECT 'package', NULL, p.id, p.name, p.url, p.repository_name, p.repository_owner, p.summary
		FROM packages p
		WHERE `+where+`
		ORDER BY p.stars DESC, p.name
		LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, false, fmt.Errorf("querying packages: %w", err)
	}

	hasMore := len(pkgRows) > pageSize
	if hasMore {
		pkgRows = pkgRows[:pageSize]
	}

	return append(rows, pkgRows...), hasMore, nil
}

// Authors returns repository owners containing the search term. Authors
// are only listed with the first page.
func (c *Catalog) Authors(ctx context.Context, q search.Query) ([]search.AuthorResult, error) {
	term := q.Term()
	if term == "" || q.Page > 1 {
		return nil, nil
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT DISTINCT repository_owner FROM packages
		WHERE repository_owner LIKE ? ESCAPE '\'
		ORDER BY repository_owner
		LIMIT ?`, likePattern(term), MaxAuthorMatches)
	if err != nil {
		return nil, fmt.Errorf("querying authors: %w", err)
	}
	defer rows.Close()

	var authors []search.AuthorResult
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning author: %w", err)
		}
		authors = append(authors, search.AuthorResult{Name: name})
	}
	return authors, rows.Err()
}

// queryRows runs a query selecting the match columns in order: match_type,
// keyword, package_id, package_name, package_url, repository_name,
// repository_owner, summary.
func (c *Catalog) queryRows(ctx context.Context, query string, args ...any) ([]search.RawMatch, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			c.logger.Warnf("failed to close rows: %v", err)
		}
	}()

	var matches []search.RawMatch
	for rows.Next() {
		m, err := scanRawMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func scanRawMatch(rows *sql.Rows) (search.RawMatch, error) {
	var (
		kind                             string
		keyword, id, name, url           sql.NullString
		repoName, repoOwner, summaryText sql.NullString
	)
	if err := rows.Scan(&kind, &keyword, &id, &name, &url, &repoName, &repoOwner, &summaryText); err != nil {
		return search.RawMatch{}, fmt.Errorf("scanning row: %w", err)
	}

	matchKind, err := search.ParseMatchKind(kind)
	if err != nil {
		return search.RawMatch{}, err
	}

	m := search.RawMatch{
		Kind:            matchKind,
		Keyword:         stringPtr(keyword),
		PackageName:     stringPtr(name),
		PackageURL:      stringPtr(url),
		RepositoryName:  stringPtr(repoName),
		RepositoryOwner: stringPtr(repoOwner),
		Summary:         stringPtr(summaryText),
	}
	if id.Valid {
		parsed, err := uuid.Parse(id.String)
		if err != nil {
			return search.RawMatch{}, fmt.Errorf("invalid package id %q: %w", id.String, err)
		}
		m.PackageID = &parsed
	}
	return m, nil
}

// packageConditions builds the WHERE clause of the package query.
func packageConditions(q search.Query) (string, []any, error) {
	var (
		conds []string
		args  []any
	)

	for _, term := range q.Terms {
		pattern := likePattern(term)
		conds = append(conds, `(p.name LIKE ? ESCAPE '\' OR p.summary LIKE ? ESCAPE '\' OR p.repository_name LIKE ? ESCAPE '\' OR p.repository_owner LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern, pattern)
	}

	for _, f := range q.Filters {
		cond, arg, err := filterCondition(f)
		if err != nil {
			return "", nil, err
		}
		conds = append(conds, cond)
		args = append(args, arg)
	}

	if len(conds) == 0 {
		return "1 = 1", nil, nil
	}
	return strings.Join(conds, " AND "), args, nil
}

func filterCondition(f search.Filter) (string, any, error) {
	switch f.Key {
	case search.FilterStars:
		op, err := sqlOperator(f.Comparison)
		if err != nil {
			return "", nil, err
		}
		var stars int
		if _, err := fmt.Sscan(f.Value, &stars); err != nil {
			return "", nil, fmt.Errorf("invalid stars filter value %q: %w", f.Value, err)
		}
		return "p.stars " + op + " ?", stars, nil
	case search.FilterLastActivity:
		op, err := sqlOperator(f.Comparison)
		if err != nil {
			return "", nil, err
		}
		return "p.last_activity " + op + " ?", f.Value, nil
	case search.FilterLicense:
		return textCondition("p.license", f)
	case search.FilterAuthor:
		return textCondition("p.repository_owner", f)
	case search.FilterKeyword:
		exists := "EXISTS (SELECT 1 FROM keywords k WHERE k.package_id = p.id AND lower(k.keyword) = lower(?))"
		switch f.Comparison {
		case search.Match:
			return exists, f.Value, nil
		case search.NegativeMatch:
			return "NOT " + exists, f.Value, nil
		}
	}
	return "", nil, fmt.Errorf("unsupported filter %s", f)
}

func textCondition(column string, f search.Filter) (string, any, error) {
	switch f.Comparison {
	case search.Match:
		return "lower(" + column + ") = lower(?)", f.Value, nil
	case search.NegativeMatch:
		return "(" + column + " IS NULL OR lower(" + column + ") != lower(?))", f.Value, nil
	default:
		return "", nil, fmt.Errorf("unsupported filter %s", f)
	}
}

func sqlOperator(c search.Comparison) (string, error) {
	switch c {
	case search.Match:
		return "=", nil
	case search.NegativeMatch:
		return "!=", nil
	case search.GreaterThan:
		return ">", nil
	case search.GreaterThanOrEqual:
		return ">=", nil
	case search.LessThan:
		return "<", nil
	case search.LessThanOrEqual:
		return "<=", nil
	default:
		return "", fmt.Errorf("unsupported comparison %d", int(c))
	}
}

// likePattern builds a substring LIKE pattern, escaping LIKE wildcards.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

func recordID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.New(), nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("invalid package id %q: %w", s, err)
	}
	return id, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// pageOffset is the row offset of page. It reports false when the offset or
// the lookahead limit would not fit in an int; such a page is always empty.
func pageOffset(page, pageSize int) (int, bool) {
	if pageSize >= math.MaxInt || page-1 > (math.MaxInt-pageSize-1)/pageSize {
		return 0, false
	}
	return (page - 1) * pageSize, true
}
