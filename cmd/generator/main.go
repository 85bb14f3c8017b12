package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/cockroachdb/errors"
	"github.com/segmentio/ksuid"
	"github.com/urfave/cli/v2"

	"github.com/letmevibethatforyou/fusex/internal/catalog"
	"github.com/letmevibethatforyou/fusex/internal/ddb"
)

// itemPutter is the part of *dynamodb.Client the generator needs.
type itemPutter interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

var (
	adjectives = []string{
		"Silent", "Broken", "Golden", "Forgotten", "Distant", "Crimson", "Hidden", "Last",
		"Burning", "Quiet", "Wandering", "Frozen", "Secret", "Endless", "Bitter", "Sacred",
	}

	nouns = []string{
		"River", "Garden", "Empire", "Harbor", "Mountain", "Letters", "Orchard", "Kingdom",
		"Station", "Cathedral", "Island", "Winter", "Bridge", "Lighthouse", "Archive", "Desert",
	}

	patterns = []func(adj, noun, place string) string{
		func(adj, noun, _ string) string { return "The " + adj + " " + noun },
		func(adj, noun, _ string) string { return adj + " " + noun },
		func(_, noun, place string) string { return "A " + noun + " in " + place },
		func(adj, noun, _ string) string { return "Of " + adj + " " + noun + "s" },
	}
)

// generator draws authors, countries and languages from a seed catalog.
type generator struct {
	rng  *rand.Rand
	seed []catalog.Book
}

func newGenerator(seed []catalog.Book, rng *rand.Rand) *generator {
	return &generator{rng: rng, seed: seed}
}

func (g *generator) pick(words []string) string {
	return words[g.rng.IntN(len(words))]
}

func (g *generator) book() catalog.Book {
	origin := g.seed[g.rng.IntN(len(g.seed))]
	pattern := patterns[g.rng.IntN(len(patterns))]
	title := pattern(g.pick(adjectives), g.pick(nouns), origin.Country)
	slug := strings.ReplaceAll(strings.ToLower(title), " ", "-")

	return catalog.Book{
		Author:    origin.Author,
		Country:   origin.Country,
		ImageLink: "images/" + slug + ".jpg",
		Language:  origin.Language,
		Link:      "https://example.org/books/" + slug,
		Pages:     g.rng.IntN(900) + 80,
		Title:     title,
		Year:      g.rng.IntN(2020-1800) + 1800,
	}
}

// bookObject is the stored form of a book: the same field names the catalog
// JSON uses, with numbers kept as numbers.
func bookObject(b catalog.Book) map[string]any {
	return map[string]any{
		"author":    b.Author,
		"country":   b.Country,
		"imageLink": b.ImageLink,
		"language":  b.Language,
		"link":      b.Link,
		"pages":     b.Pages,
		"title":     b.Title,
		"year":      b.Year,
	}
}

func insertBook(ctx context.Context, client itemPutter, tableName, indexName string, book catalog.Book) (string, error) {
	id := ksuid.New().String()

	item, err := ddb.MarshalRecord(ddb.Record{
		ID:        id,
		IndexName: indexName,
		Object:    bookObject(book),
	})
	if err != nil {
		return "", err
	}

	_, err = client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(tableName),
		Item:      item,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to put item in DynamoDB")
	}

	slog.InfoContext(ctx, "Successfully inserted book",
		"id", id,
		"index", indexName,
		"title", book.Title,
		"author", book.Author,
		"year", book.Year,
	)

	return id, nil
}

func writeBooks(path string, books []catalog.Book) error {
	data, err := json.MarshalIndent(books, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal books")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

func runAction(c *cli.Context) error {
	ctx := c.Context
	tableName := c.String("table-name")
	indexName := c.String("index")
	out := c.String("out")
	count := c.Int("count")

	if tableName == "" && out == "" {
		return errors.New("one of --table-name or --out is required")
	}
	if count <= 0 {
		return errors.Newf("count must be positive, got %d", count)
	}

	slog.InfoContext(ctx, "Starting book generator",
		"environment", c.String("env"),
		"table", tableName,
		"index", indexName,
		"out", out,
		"count", count,
	)

	seed, err := catalog.Books(ctx, "", "")
	if err != nil {
		return err
	}

	var rng *rand.Rand
	if c.IsSet("seed") {
		rng = rand.New(rand.NewPCG(c.Uint64("seed"), c.Uint64("seed")))
	} else {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	gen := newGenerator(seed, rng)

	books := make([]catalog.Book, count)
	for i := range books {
		books[i] = gen.book()
	}

	if out != "" {
		if err := writeBooks(out, books); err != nil {
			return err
		}
		slog.InfoContext(ctx, "Wrote books", "path", out, "count", count)
	}

	if tableName == "" {
		return nil
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to load AWS config")
	}
	client := dynamodb.NewFromConfig(cfg)

	for i, book := range books {
		if _, err := insertBook(ctx, client, tableName, indexName, book); err != nil {
			return errors.Wrapf(err, "failed to insert book %d", i+1)
		}
	}

	slog.InfoContext(ctx, "Successfully generated and inserted all books", "count", count)
	return nil
}

func main() {
	// Configure JSON logging for AWS environments
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	app := &cli.App{
		Name:  "generator",
		Usage: "Generate random books and insert them into DynamoDB or a catalog file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Aliases: []string{"e"},
				Usage:   "Environment name",
				EnvVars: []string{"ENVIRONMENT"},
			},
			&cli.StringFlag{
				Name:    "table-name",
				Aliases: []string{"t"},
				Usage:   "DynamoDB table name",
				EnvVars: []string{"TABLE_NAME"},
			},
			&cli.StringFlag{
				Name:    "index",
				Aliases: []string{"i"},
				Usage:   "Search index the books belong to, stored as the sort key",
				EnvVars: []string{"ALGOLIA_INDEX"},
				Value:   "books",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Write the generated books to this JSON file",
			},
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"c"},
				Usage:   "Number of books to generate",
				Value:   1,
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Usage: "Random seed for reproducible output",
			},
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}
