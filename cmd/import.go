package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rubiojr/pkgsearch/pkg/log"
	"github.com/rubiojr/pkgsearch/pkg/storage"
	"github.com/urfave/cli/v3"
)

// ImportCommand creates the import command
func ImportCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import package records into the catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Usage:    "JSON file with package records (array or one object per line)",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return importPackages(ctx, c.String("config"), c.String("file"))
		},
	}
}

func importPackages(ctx context.Context, configPath, file string) error {
	logger := log.ForService("import")

	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("opening %s: %w", file, err)
	}
	defer f.Close()

	records, err := readPackageRecords(f)
	if err != nil {
		return fmt.Errorf("reading %s: %w", file, err)
	}

	_, catalog, err := openCatalog(configPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := catalog.Close(); err != nil {
			logger.Warnf("failed to close catalog: %v", err)
		}
	}()

	n, err := catalog.ImportPackages(ctx, records)
	if err != nil {
		return fmt.Errorf("importing packages: %w", err)
	}

	total, err := catalog.CountPackages(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d packages (%d in catalog)\n", n, total)
	return nil
}

// readPackageRecords accepts a JSON array of records or a stream of
// records, one JSON object after another.
func readPackageRecords(r io.Reader) ([]storage.PackageRecord, error) {
	br := bufio.NewReader(r)

	first, err := peekNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	dec := json.NewDecoder(br)
	if first == '[' {
		var records []storage.PackageRecord
		if err := dec.Decode(&records); err != nil {
			return nil, err
		}
		return records, nil
	}

	var records []storage.PackageRecord
	for {
		var rec storage.PackageRecord
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}
