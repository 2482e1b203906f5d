package cmd

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rubiojr/pkgsearch/pkg/config"
	"github.com/rubiojr/pkgsearch/pkg/storage"
)

// openCatalog loads the configuration and opens the catalog it points at.
func openCatalog(configPath string) (*config.Config, *storage.Catalog, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	if err := os.MkdirAll(cfg.StorageDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating storage directory: %w", err)
	}

	catalog, err := storage.OpenCatalog(cfg.CatalogPath())
	if err != nil {
		return nil, nil, fmt.Errorf("opening catalog: %w", err)
	}
	return cfg, catalog, nil
}

// isTerminal reports whether f is an interactive terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
