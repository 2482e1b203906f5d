package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rubiojr/pkgsearch/pkg/log"
	"github.com/rubiojr/pkgsearch/pkg/search"
	"github.com/rubiojr/pkgsearch/pkg/snapshot"
	"github.com/urfave/cli/v3"
)

// SnapshotCommand creates the snapshot command
func SnapshotCommand() *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "Show a results snapshot written by 'search --export'",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Usage:    "Snapshot file",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return showSnapshot(os.Stdout, c.String("file"))
		},
	}
}

func showSnapshot(w io.Writer, file string) error {
	snap, lineErrs, err := snapshot.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}

	logger := log.ForService("snapshot")
	for _, lineErr := range lineErrs {
		logger.Warnf("skipping result: %v", lineErr)
	}

	fmt.Fprintf(w, "Snapshot %s\n", snap.ID)
	fmt.Fprintf(w, "Taken %s for %q, page %d\n", snap.CreatedAt.Format("2006-01-02 15:04:05"), snap.Query, snap.Page)
	fmt.Fprintf(w, "Results: %d of %d readable\n\n", len(snap.Results), snap.Count)

	renderPage(w, search.Assemble(search.Response{
		Query:          snap.Query,
		Page:           snap.Page,
		HasMoreResults: snap.HasMoreResults,
		Results:        snap.Results,
	}), false)
	return nil
}
