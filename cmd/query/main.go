package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/letmevibethatforyou/fusex"
	"github.com/letmevibethatforyou/fusex/algolia"
	"github.com/letmevibethatforyou/fusex/internal/backend"
	"github.com/letmevibethatforyou/fusex/internal/catalog"
	"github.com/letmevibethatforyou/fusex/internal/render"
)

const (
	defaultLimit   = 10
	defaultTimeout = 5 * time.Second
	defaultWidth   = 40
)

func main() {
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	catalogFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "catalog",
			Aliases: []string{"c"},
			Usage:   "Catalog file, URL or - for stdin; empty uses the bundled books",
			EnvVars: []string{"FUSEX_CATALOG"},
		},
		&cli.StringFlag{
			Name:  "items-path",
			Usage: "Path to the items array inside the catalog, e.g. data.books",
		},
	}

	app := &cli.App{
		Name:  "query",
		Usage: "Search JSON catalogs with highlighted fuzzy matching",
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search a catalog and print highlighted results",
				ArgsUsage: "[query]",
				Flags: append(append(catalogFlags,
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Query string to search for; positional arg is a fallback",
					},
					&cli.StringSliceFlag{
						Name:    "keys",
						Aliases: []string{"k"},
						Usage:   "Field paths to search; repeatable",
						Value:   cli.NewStringSlice("title", "author"),
					},
					&cli.StringFlag{
						Name:  "tag",
						Usage: "Highlight element name",
						Value: fusex.DefaultHighlightTag,
					},
					&cli.Float64Flag{
						Name:  "max-score",
						Usage: "Drop results scoring above this; negative disables",
						Value: -1,
					},
					&cli.IntFlag{
						Name:  "min-length",
						Usage: "Shortest query that triggers matching",
						Value: fusex.DefaultMinSearchTermLength,
					},
					&cli.BoolFlag{
						Name:  "ignore-diacritics",
						Usage: "Match accented characters against their base letters",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"l"},
						Usage:   "Maximum number of results to print",
						Value:   defaultLimit,
					},
					&cli.StringFlag{
						Name:  "options",
						Usage: "YAML file with search options; flags set explicitly override it",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format: table, json or auto",
						Value: "auto",
					},
					&cli.IntFlag{
						Name:  "width",
						Usage: "Maximum table cell width; 0 disables truncation",
						Value: defaultWidth,
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Timeout for the search",
						Value: defaultTimeout,
					},
				), backend.Flags()...),
				Action: searchAction,
			},
			{
				Name:  "index",
				Usage: "Upload a catalog to an Algolia index",
				Flags: append(append(catalogFlags,
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Objects per batch request",
						Value: 500,
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Batches in flight",
						Value: 4,
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Timeout for the whole upload",
						Value: 2 * time.Minute,
					},
				), append(backend.IndexFlags(), backend.SecretFlags()...)...),
				Action: indexAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func searchAction(c *cli.Context) error {
	ctx := c.Context

	query := strings.TrimSpace(c.String("query"))
	if query == "" && c.NArg() > 0 {
		query = strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	}

	limit := c.Int("limit")
	if limit < 0 {
		slog.WarnContext(ctx, "limit cannot be negative; using default", "limit", limit, "default", defaultLimit)
		limit = defaultLimit
	}

	timeout := c.Duration("timeout")
	if timeout <= 0 {
		slog.WarnContext(ctx, "timeout must be positive; using default", "timeout", timeout, "default", defaultTimeout)
		timeout = defaultTimeout
	}

	opts, err := searchOptions(c)
	if err != nil {
		return err
	}

	items, err := catalog.Documents(ctx, c.String("catalog"), c.String("items-path"))
	if err != nil {
		return errors.Wrap(err, "failed to load catalog")
	}

	factory, err := backend.Factory(ctx, c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	svc := fusex.NewService[map[string]any](factory)
	cfg := svc.Config(opts...)

	slog.DebugContext(ctx, "executing query",
		"query", query,
		"keys", cfg.Keys,
		"items", len(items),
		"backend", c.String("backend"),
	)

	results, err := svc.SearchList(ctx, items, query, opts...)
	if err != nil {
		return errors.Wrap(err, "search failed")
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	switch format := outputFormat(c.String("format")); format {
	case "json":
		return printJSON(os.Stdout, results)
	case "table":
		printer := render.New(render.Options{
			Tag:      cfg.HighlightTag,
			MaxWidth: c.Int("width"),
			Color:    isTerminal(),
		})
		return printer.Print(os.Stdout, cfg.Keys, rows(results))
	default:
		return errors.Newf("unknown format %q", format)
	}
}

// searchOptions layers the options file under flags the user set explicitly.
func searchOptions(c *cli.Context) ([]fusex.Option, error) {
	var opts []fusex.Option
	if path := strings.TrimSpace(c.String("options")); path != "" {
		fileOpts, err := fusex.LoadOptions(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fileOpts)
	}

	if c.IsSet("keys") || c.String("options") == "" {
		opts = append(opts, fusex.WithKeys(c.StringSlice("keys")...))
	}
	if c.IsSet("tag") {
		opts = append(opts, fusex.WithHighlightTag(c.String("tag")))
	}
	if c.IsSet("min-length") {
		opts = append(opts, fusex.WithMinSearchTermLength(c.Int("min-length")))
	}
	if c.IsSet("ignore-diacritics") {
		opts = append(opts, fusex.WithIgnoreDiacritics(c.Bool("ignore-diacritics")))
	}
	if score := c.Float64("max-score"); score >= 0 {
		opts = append(opts, fusex.WithMaximumScore(score))
	}
	return opts, nil
}

func outputFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "auto" {
		return format
	}
	if isTerminal() {
		return "table"
	}
	return "json"
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func rows(results []fusex.Result[map[string]any]) []render.Row {
	out := make([]render.Row, 0, len(results))
	for _, r := range results {
		highlighted := r.Highlighted
		if highlighted == nil {
			highlighted = r.Item
		}
		out = append(out, render.Row{Highlighted: highlighted, Score: r.Score})
	}
	return out
}

func printJSON(w io.Writer, results []fusex.Result[map[string]any]) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal results")
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func indexAction(c *cli.Context) error {
	ctx := c.Context

	indexName := strings.TrimSpace(c.String("index"))
	if indexName == "" {
		return errors.New("--index is required")
	}

	docs, err := catalog.Documents(ctx, c.String("catalog"), c.String("items-path"))
	if err != nil {
		return errors.Wrap(err, "failed to load catalog")
	}

	fetchSecrets, err := backend.Secrets(ctx, c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.Duration("timeout"))
	defer cancel()

	idKey := c.String("id-key")

	slog.InfoContext(ctx, "indexing catalog",
		"index", indexName,
		"documents", len(docs),
		"id_key", idKey,
	)

	stats, err := algolia.IndexDocuments(ctx, algolia.NewClient(fetchSecrets), indexName, docs, algolia.IndexOptions{
		IDKey:       idKey,
		BatchSize:   c.Int("batch-size"),
		Concurrency: c.Int("concurrency"),
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "indexed catalog",
		"index", indexName,
		"saved", stats.Saved,
		"skipped", stats.Skipped,
		"batches", stats.Batches,
	)
	return nil
}
