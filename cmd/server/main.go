package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v2"

	"github.com/letmevibethatforyou/fusex"
	"github.com/letmevibethatforyou/fusex/internal/backend"
	"github.com/letmevibethatforyou/fusex/internal/catalog"
	"github.com/letmevibethatforyou/fusex/internal/httpapi"
)

func main() {
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "addr",
			Usage:   "Address to listen on",
			EnvVars: []string{"FUSEX_ADDR"},
			Value:   ":8080",
		},
		&cli.StringFlag{
			Name:    "catalog",
			Aliases: []string{"c"},
			Usage:   "Catalog file or URL; empty serves the bundled books",
			EnvVars: []string{"FUSEX_CATALOG"},
		},
		&cli.StringFlag{
			Name:  "items-path",
			Usage: "Path to the items array inside the catalog, e.g. data.books",
		},
		&cli.StringFlag{
			Name:  "collection",
			Usage: "Collection name used in the search route",
			Value: "books",
		},
		&cli.StringFlag{
			Name:    "options",
			Usage:   "YAML file with default search options",
			EnvVars: []string{"FUSEX_OPTIONS"},
		},
		&cli.DurationFlag{
			Name:  "search-timeout",
			Usage: "Timeout for a single search",
			Value: 5 * time.Second,
		},
		&cli.DurationFlag{
			Name:  "read-timeout",
			Usage: "HTTP read timeout",
			Value: 10 * time.Second,
		},
		&cli.DurationFlag{
			Name:  "write-timeout",
			Usage: "HTTP write timeout",
			Value: 30 * time.Second,
		},
		&cli.DurationFlag{
			Name:  "shutdown-timeout",
			Usage: "Grace period for in-flight requests on shutdown",
			Value: 10 * time.Second,
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
	}

	app := &cli.App{
		Name:   "server",
		Usage:  "Serve highlighted fuzzy search over a JSON catalog",
		Flags:  append(flags, backend.Flags()...),
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func runAction(c *cli.Context) error {
	ctx := c.Context

	if c.Bool("debug") {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}
	logger := slog.Default()

	items, err := catalog.Documents(ctx, c.String("catalog"), c.String("items-path"))
	if err != nil {
		return errors.Wrap(err, "failed to load catalog")
	}

	factory, err := backend.Factory(ctx, c)
	if err != nil {
		return err
	}

	var defaults []fusex.Option
	if path := strings.TrimSpace(c.String("options")); path != "" {
		fileOpts, err := fusex.LoadOptions(path)
		if err != nil {
			return errors.Wrapf(err, "failed to load options from %s", path)
		}
		defaults = append(defaults, fileOpts)
	}

	svc := fusex.NewService[map[string]any](factory, defaults...).WithLogger(logger)
	api := httpapi.NewServer(c.String("collection"), items, svc, logger).
		WithSearchTimeout(c.Duration("search-timeout"))

	addr := c.String("addr")
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Routes(),
		ReadTimeout:       c.Duration("read-timeout"),
		ReadHeaderTimeout: c.Duration("read-timeout"),
		WriteTimeout:      c.Duration("write-timeout"),
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "Starting HTTP server",
			"addr", addr,
			"backend", c.String("backend"),
			"collection", c.String("collection"),
			"items", len(items),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			return errors.Wrap(err, "HTTP server error")
		}
		return nil
	case <-quit:
		logger.InfoContext(ctx, "Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.Duration("shutdown-timeout"))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorContext(ctx, "Error during shutdown", "error", err)
	}

	logger.InfoContext(ctx, "Server stopped gracefully")
	return nil
}
