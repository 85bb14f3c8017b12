package fusex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
)

func TestParseOptions(t *testing.T) {
	data := []byte(`
keys: [title, "authors[0].name"]
highlight_tag: mark
maximum_score: 0.35
ignore_diacritics: true
limit: 20
`)

	opts, err := ParseOptions(data)
	if err != nil {
		t.Fatalf("ParseOptions failed: %v", err)
	}

	base := NewConfig(WithHighlightKey("hl"), WithThreshold(0.2))
	opts.Apply(&base)

	if len(base.Keys) != 2 || base.Keys[1] != "authors[0].name" {
		t.Errorf("Expected keys from file, got %v", base.Keys)
	}
	if base.HighlightTag != "mark" || base.Limit != 20 || !base.IgnoreDiacritics {
		t.Errorf("Expected file values to apply, got %+v", base)
	}
	if base.MaximumScore == nil || *base.MaximumScore != 0.35 {
		t.Errorf("Expected maximum score 0.35, got %v", base.MaximumScore)
	}
	if base.HighlightKey != "hl" || base.Threshold != 0.2 {
		t.Errorf("Expected absent fields to keep their values, got %+v", base)
	}
}

func TestParseOptionsEmpty(t *testing.T) {
	opts, err := ParseOptions(nil)
	if err != nil {
		t.Fatalf("ParseOptions failed: %v", err)
	}
	cfg := NewConfig(opts)
	if cfg.HighlightTag != DefaultHighlightTag || cfg.Keys != nil {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
}

func TestParseOptionsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown field", "highlight_color: red\n"},
		{"wrong type", "limit: many\n"},
		{"threshold out of range", "threshold: 2\n"},
		{"negative distance", "distance: -5\n"},
		{"empty key", "keys: [title, \"\"]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOptions([]byte(tt.data))
			if !errors.Is(err, ErrInvalidOption) {
				t.Errorf("Expected ErrInvalidOption, got %v", err)
			}
		})
	}
}

func TestLoadOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.yaml")
	if err := os.WriteFile(path, []byte("min_search_term_length: 1\nshould_sort: false\n"), 0o600); err != nil {
		t.Fatalf("Failed to write options: %v", err)
	}

	opts, err := LoadOptions(path)
	if err != nil {
		t.Fatalf("LoadOptions failed: %v", err)
	}
	cfg := NewConfig(opts)
	if cfg.MinSearchTermLength != 1 || cfg.ShouldSort {
		t.Errorf("Expected file values, got %+v", cfg)
	}

	if _, err := LoadOptions(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file, got nil")
	}
}
