package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rubiojr/pkgsearch/pkg/api"
	"github.com/rubiojr/pkgsearch/pkg/config"
	"github.com/rubiojr/pkgsearch/pkg/log"
	"github.com/urfave/cli/v3"
)

// WebCommand creates the web command
func WebCommand() *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Serve the search API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "port",
				Usage: "Port to listen on (overrides the config file)",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind to (overrides the config file)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return startWebServer(ctx, c.String("config"), c.String("host"), c.String("port"))
		},
	}
}

func apiOptions(cfg *config.Config) api.Options {
	return api.Options{
		PageSize:  cfg.PageSize,
		CacheSize: cfg.Cache.Size,
		CacheTTL:  cfg.Cache.TTL.Duration,
	}
}

func startWebServer(ctx context.Context, configPath, host, port string) error {
	logger := log.ForService("web")

	cfg, catalog, err := openCatalog(configPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := catalog.Close(); err != nil {
			logger.Warnf("failed to close catalog: %v", err)
		}
	}()

	if host != "" {
		cfg.Web.Host = host
	}
	if port != "" {
		cfg.Web.Port = port
	}

	apiServer := api.NewServer(catalog, apiOptions(cfg))

	mux := http.NewServeMux()
	apiServer.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.CorsMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("Starting web server on http://%s", cfg.Addr())
		logger.Infof("  GET %s?query=...&page=N - Search the catalog", api.SearchPath)
		logger.Infof("  GET /api/cache - Response cache statistics")
		logger.Infof("  GET /health - Health check")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warnf("failed to create config file watcher: %v", err)
	} else {
		defer func() {
			if err := watcher.Close(); err != nil {
				logger.Warnf("failed to close config file watcher: %v", err)
			}
		}()

		if err := watcher.Add(configPath); err != nil {
			logger.Warnf("failed to watch config file %s: %v", configPath, err)
		} else {
			logger.Infof("Watching config file for changes: %s", configPath)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case err, ok := <-serverErr:
			if ok && err != nil {
				return fmt.Errorf("web server failed: %w", err)
			}
			return nil
		case <-ctx.Done():
			return shutdownServer(server, logger)
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				logger.Infof("Received SIGHUP, reloading configuration...")
				reloadWebConfig(configPath, apiServer, logger)
				continue
			}
			return shutdownServer(server, logger)
		case event, ok := <-watcherEvents(watcher):
			if !ok {
				continue
			}
			if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove)) {
				continue
			}
			logger.Infof("Config file changed: %s (event: %s), reloading configuration...", event.Name, event.Op.String())

			// Editors replace files atomically; the watch has to be re-added.
			if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				time.Sleep(200 * time.Millisecond)
				if _, err := os.Stat(configPath); os.IsNotExist(err) {
					logger.Warnf("Config file was removed and not replaced, skipping reload")
					continue
				}
				if err := watcher.Add(configPath); err != nil {
					logger.Warnf("failed to re-add config file to watcher: %v", err)
				}
			} else {
				time.Sleep(100 * time.Millisecond)
			}
			reloadWebConfig(configPath, apiServer, logger)
		case err, ok := <-watcherErrors(watcher):
			if ok {
				logger.Warnf("config file watcher error: %v", err)
			}
		}
	}
}

// reloadWebConfig applies the reloadable settings. Listen address changes
// need a restart.
func reloadWebConfig(configPath string, apiServer *api.Server, logger *log.Logger) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Errorf("Failed to reload configuration: %v", err)
		return
	}
	apiServer.Reconfigure(apiOptions(cfg))
	logger.Infof("Configuration reloaded (page size %d, cache size %d)", cfg.PageSize, cfg.Cache.Size)
}

func shutdownServer(server *http.Server, logger *log.Logger) error {
	logger.Infof("Shutting down web server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

// watcherEvents and watcherErrors return nil channels when there is no
// watcher, which blocks their select cases forever.
func watcherEvents(w *fsnotify.Watcher) <-chan fsnotify.Event {
	if w == nil {
		return nil
	}
	return w.Events
}

func watcherErrors(w *fsnotify.Watcher) <-chan error {
	if w == nil {
		return nil
	}
	return w.Errors
}
