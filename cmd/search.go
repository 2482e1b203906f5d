package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rubiojr/pkgsearch/pkg/log"
	"github.com/rubiojr/pkgsearch/pkg/search"
	"github.com/rubiojr/pkgsearch/pkg/snapshot"
	"github.com/urfave/cli/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type pageStyles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	name    lipgloss.Style
	meta    lipgloss.Style
	url     lipgloss.Style
	noData  lipgloss.Style
	filters lipgloss.Style
}

func newPageStyles(styled bool) pageStyles {
	if !styled {
		plain := lipgloss.NewStyle()
		return pageStyles{plain, plain, plain, plain, plain, plain, plain}
	}

	return pageStyles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1),
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")),
		name: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33")),
		meta: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true),
		url: lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")),
		noData: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true),
		filters: lipgloss.NewStyle().
			Foreground(lipgloss.Color("32")),
	}
}

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the package catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "query",
				Usage: "Search query, e.g. 'http client stars:>100 license:mit'",
			},
			&cli.IntFlag{
				Name:  "page",
				Usage: "Results page",
				Value: 1,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the raw response as JSON",
			},
			&cli.StringFlag{
				Name:  "export",
				Usage: "Also write the results to a snapshot file (.zst)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return searchPackages(ctx, c.String("config"), searchOptions{
				query:  c.String("query"),
				page:   c.Int("page"),
				json:   c.Bool("json"),
				export: c.String("export"),
			})
		},
	}
}

type searchOptions struct {
	query  string
	page   int
	json   bool
	export string
}

func searchPackages(ctx context.Context, configPath string, opts searchOptions) error {
	logger := log.ForService("search")

	cfg, catalog, err := openCatalog(configPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := catalog.Close(); err != nil {
			logger.Warnf("failed to close catalog: %v", err)
		}
	}()

	service := search.NewService(catalog, cfg.PageSize)
	resp, err := service.Fetch(ctx, search.Params{Query: opts.query, Page: opts.page})
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	if opts.export != "" {
		header, err := snapshot.WriteFile(opts.export, resp)
		if err != nil {
			return fmt.Errorf("exporting snapshot: %w", err)
		}
		logger.Infof("exported %d results to %s (snapshot %s)", header.Count, opts.export, header.ID)
	}

	if opts.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	renderPage(os.Stdout, search.Assemble(resp), isTerminal(os.Stdout))
	return nil
}

// renderPage prints a results page bucket by bucket.
func renderPage(w io.Writer, page search.ResultsPage, styled bool) {
	styles := newPageStyles(styled)
	title := cases.Title(language.English)

	switch page.State() {
	case search.StateNoQuery:
		fmt.Fprintln(w, styles.noData.Render("Nothing to search for, pass --query"))
		return
	case search.StateNoResults:
		fmt.Fprintln(w, styles.noData.Render(fmt.Sprintf("No results for %q", page.Query)))
		return
	}

	fmt.Fprintln(w, styles.title.Render(fmt.Sprintf("Results for %q (page %d)", page.Query, page.Page)))
	if len(page.Filters) > 0 {
		applied := make([]string, 0, len(page.Filters))
		for _, f := range page.Filters {
			applied = append(applied, f.Key+" "+f.Comparison.UserFacingString()+" "+f.Value)
		}
		fmt.Fprintln(w, styles.filters.Render("Filters: "+strings.Join(applied, ", ")))
	}

	if len(page.PackageResults) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, styles.header.Render(fmt.Sprintf("%s (%d)", title.String("packages"), len(page.PackageResults))))
		for i, p := range page.PackageResults {
			line := fmt.Sprintf("%2d. %s", i+1, styles.name.Render(p.DisplayName()))
			if p.RepositoryOwner != nil && p.RepositoryName != nil {
				line += " " + styles.meta.Render(*p.RepositoryOwner+"/"+*p.RepositoryName)
			}
			fmt.Fprintln(w, line)
			if p.Summary != nil && *p.Summary != "" {
				fmt.Fprintln(w, "    "+*p.Summary)
			}
			if p.PackageURL != nil {
				fmt.Fprintln(w, "    "+styles.url.Render(*p.PackageURL))
			}
		}
	}

	if len(page.KeywordResults) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, styles.header.Render(fmt.Sprintf("%s (%d)", title.String("keywords"), len(page.KeywordResults))))
		keywords := make([]string, 0, len(page.KeywordResults))
		for _, k := range page.KeywordResults {
			keywords = append(keywords, k.Keyword)
		}
		fmt.Fprintln(w, "    "+strings.Join(keywords, ", "))
	}

	if len(page.AuthorResults) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, styles.header.Render(fmt.Sprintf("%s (%d)", title.String("authors"), len(page.AuthorResults))))
		for _, a := range page.AuthorResults {
			fmt.Fprintln(w, "    "+a.Name)
		}
	}

	pagination := page.Pagination()
	if pagination.Previous != nil || pagination.Next != nil {
		fmt.Fprintln(w)
	}
	if pagination.Previous != nil {
		fmt.Fprintln(w, styles.meta.Render(fmt.Sprintf("Previous page: --query %q --page %d", pagination.Previous.Query, pagination.Previous.Page)))
	}
	if pagination.Next != nil {
		fmt.Fprintln(w, styles.meta.Render(fmt.Sprintf("Next page: --query %q --page %d", pagination.Next.Query, pagination.Next.Page)))
	}
}
