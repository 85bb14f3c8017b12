package fusex

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// FileOptions is the YAML form of Config. Every field is optional; only the
// fields present in the document override the configuration it is applied to.
type FileOptions struct {
	Keys                []string `yaml:"keys"`
	SupportHighlight    *bool    `yaml:"support_highlight"`
	HighlightKey        *string  `yaml:"highlight_key"`
	ScoreKey            *string  `yaml:"score_key"`
	MinSearchTermLength *int     `yaml:"min_search_term_length"`
	MaximumScore        *float64 `yaml:"maximum_score"`
	HighlightTag        *string  `yaml:"highlight_tag"`
	IncludeScore        *bool    `yaml:"include_score"`
	ShouldSort          *bool    `yaml:"should_sort"`
	Threshold           *float64 `yaml:"threshold"`
	Location            *int     `yaml:"location"`
	Distance            *int     `yaml:"distance"`
	IgnoreLocation      *bool    `yaml:"ignore_location"`
	MinMatchCharLength  *int     `yaml:"min_match_char_length"`
	IgnoreDiacritics    *bool    `yaml:"ignore_diacritics"`
	Limit               *int     `yaml:"limit"`
}

// Apply implements the Option interface for FileOptions.
func (f FileOptions) Apply(cfg *Config) {
	if f.Keys != nil {
		cfg.Keys = append([]string(nil), f.Keys...)
	}
	setIf(&cfg.SupportHighlight, f.SupportHighlight)
	setIf(&cfg.HighlightKey, f.HighlightKey)
	setIf(&cfg.ScoreKey, f.ScoreKey)
	setIf(&cfg.MinSearchTermLength, f.MinSearchTermLength)
	setIf(&cfg.HighlightTag, f.HighlightTag)
	setIf(&cfg.IncludeScore, f.IncludeScore)
	setIf(&cfg.ShouldSort, f.ShouldSort)
	setIf(&cfg.Threshold, f.Threshold)
	setIf(&cfg.Location, f.Location)
	setIf(&cfg.Distance, f.Distance)
	setIf(&cfg.IgnoreLocation, f.IgnoreLocation)
	setIf(&cfg.MinMatchCharLength, f.MinMatchCharLength)
	setIf(&cfg.IgnoreDiacritics, f.IgnoreDiacritics)
	setIf(&cfg.Limit, f.Limit)
	if f.MaximumScore != nil {
		score := *f.MaximumScore
		cfg.MaximumScore = &score
	}
}

func setIf[V any](dst *V, src *V) {
	if src != nil {
		*dst = *src
	}
}

// ParseOptions decodes a YAML options document. Unknown fields are rejected
// and the result is validated against DefaultConfig.
func ParseOptions(data []byte) (FileOptions, error) {
	var f FileOptions
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return FileOptions{}, errors.Wrap(errors.WithSecondaryError(ErrInvalidOption, err), "failed to parse options")
	}

	cfg := NewConfig(f)
	if err := cfg.Validate(); err != nil {
		return FileOptions{}, err
	}
	return f, nil
}

// LoadOptions reads and parses a YAML options file.
func LoadOptions(path string) (FileOptions, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return FileOptions{}, errors.Wrapf(err, "failed to read options %s", path)
	}
	return ParseOptions(data)
}
