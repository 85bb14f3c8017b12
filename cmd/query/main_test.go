package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v2"

	"github.com/letmevibethatforyou/fusex"
)

func runSearchOptions(t *testing.T, args ...string) fusex.Config {
	t.Helper()

	var cfg fusex.Config
	app := &cli.App{
		Name: "query",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "keys", Value: cli.NewStringSlice("title", "author")},
			&cli.StringFlag{Name: "tag", Value: fusex.DefaultHighlightTag},
			&cli.Float64Flag{Name: "max-score", Value: -1},
			&cli.IntFlag{Name: "min-length", Value: fusex.DefaultMinSearchTermLength},
			&cli.BoolFlag{Name: "ignore-diacritics"},
			&cli.StringFlag{Name: "options"},
		},
		Action: func(c *cli.Context) error {
			opts, err := searchOptions(c)
			if err != nil {
				return err
			}
			cfg = fusex.NewConfig(opts...)
			return nil
		},
	}
	if err := app.Run(append([]string{"query"}, args...)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return cfg
}

func TestSearchOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := runSearchOptions(t)
		if len(cfg.Keys) != 2 || cfg.Keys[0] != "title" {
			t.Errorf("Expected default keys, got %v", cfg.Keys)
		}
		if cfg.MaximumScore != nil {
			t.Errorf("Expected no maximum score, got %v", *cfg.MaximumScore)
		}
	})

	t.Run("flags", func(t *testing.T) {
		cfg := runSearchOptions(t, "--keys", "tags", "--tag", "mark", "--max-score", "0.3", "--ignore-diacritics")
		if len(cfg.Keys) != 1 || cfg.Keys[0] != "tags" {
			t.Errorf("Expected keys [tags], got %v", cfg.Keys)
		}
		if cfg.HighlightTag != "mark" {
			t.Errorf("Expected tag mark, got %q", cfg.HighlightTag)
		}
		if cfg.MaximumScore == nil || *cfg.MaximumScore != 0.3 {
			t.Errorf("Expected maximum score 0.3, got %v", cfg.MaximumScore)
		}
		if !cfg.IgnoreDiacritics {
			t.Error("Expected diacritics to be ignored")
		}
	})

	t.Run("options file under flags", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "options.yaml")
		data := "keys: [country]\nhighlight_tag: b\nthreshold: 0.2\n"
		if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
			t.Fatalf("Failed to write options: %v", err)
		}

		cfg := runSearchOptions(t, "--options", path, "--tag", "mark")
		if len(cfg.Keys) != 1 || cfg.Keys[0] != "country" {
			t.Errorf("Expected keys from file, got %v", cfg.Keys)
		}
		if cfg.HighlightTag != "mark" {
			t.Errorf("Expected flag to override tag, got %q", cfg.HighlightTag)
		}
		if cfg.Threshold != 0.2 {
			t.Errorf("Expected threshold 0.2, got %v", cfg.Threshold)
		}
	})
}

func TestOutputFormat(t *testing.T) {
	for _, format := range []string{"json", "JSON", " table "} {
		if got := outputFormat(format); got == "auto" || got == "" {
			t.Errorf("Expected explicit format for %q, got %q", format, got)
		}
	}
}

func TestRowsAndJSON(t *testing.T) {
	score := 0.1
	results := []fusex.Result[map[string]any]{
		{Item: map[string]any{"title": "Hamlet"}, Highlighted: map[string]any{"title": "<em>Ham</em>let"}, Score: &score},
		{Item: map[string]any{"title": "Ulysses"}},
	}

	got := rows(results)
	if len(got) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(got))
	}
	if got[0].Highlighted["title"] != "<em>Ham</em>let" {
		t.Errorf("Expected highlighted title, got %v", got[0].Highlighted["title"])
	}
	if got[1].Highlighted["title"] != "Ulysses" {
		t.Errorf("Expected item fallback, got %v", got[1].Highlighted["title"])
	}

	var buf bytes.Buffer
	if err := printJSON(&buf, results); err != nil {
		t.Fatalf("printJSON failed: %v", err)
	}
	if title := gjson.Get(buf.String(), "0.fuseJsHighlighted.title").String(); title != "<em>Ham</em>let" {
		t.Errorf("Expected highlighted title in JSON, got %q", title)
	}
}
