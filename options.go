package fusex

import "github.com/cockroachdb/errors"

// Default values applied by DefaultConfig.
const (
	DefaultHighlightKey        = "fuseJsHighlighted"
	DefaultScoreKey            = "fuseJsScore"
	DefaultHighlightTag        = "em"
	DefaultMinSearchTermLength = 3
	DefaultThreshold           = 0.6
	DefaultDistance            = 100
	DefaultMinMatchCharLength  = 2
)

// Option represents a search configuration option.
type Option interface {
	Apply(*Config)
}

// Config holds all search configuration parameters.
//
// The matcher tuning fields are interpreted by the Matcher implementation;
// the remaining fields drive the orchestration and highlighting.
type Config struct {
	// Keys lists the field paths to search, e.g. "title" or "authors[0].name".
	Keys []string `yaml:"keys"`

	// SupportHighlight enables highlight clones on every result.
	SupportHighlight bool `yaml:"support_highlight"`

	// HighlightKey is the attribute name holding the highlight clone.
	HighlightKey string `yaml:"highlight_key"`

	// ScoreKey is the attribute name holding the score.
	ScoreKey string `yaml:"score_key"`

	// MinSearchTermLength is the shortest term, in characters, that reaches the matcher.
	MinSearchTermLength int `yaml:"min_search_term_length"`

	// MaximumScore drops results scoring above it when set. Lower scores are better.
	MaximumScore *float64 `yaml:"maximum_score"`

	// HighlightTag is the element name used for markup, e.g. "em" or "mark".
	HighlightTag string `yaml:"highlight_tag"`

	// IncludeScore attaches the score to each result.
	IncludeScore bool `yaml:"include_score"`

	// IncludeMatches asks the matcher to report match ranges.
	// It is forced on when SupportHighlight is set.
	IncludeMatches bool `yaml:"include_matches"`

	// ShouldSort orders matches by ascending score.
	ShouldSort bool `yaml:"should_sort"`

	// Threshold is the worst score, in [0,1], a match may have and still be reported.
	Threshold float64 `yaml:"threshold"`

	// Location is the character position where a match is expected.
	Location int `yaml:"location"`

	// Distance is how far from Location a match may drift before it scores 1.
	Distance int `yaml:"distance"`

	// IgnoreLocation drops the Location/Distance penalty.
	IgnoreLocation bool `yaml:"ignore_location"`

	// MinMatchCharLength drops matched ranges shorter than this from the report.
	MinMatchCharLength int `yaml:"min_match_char_length"`

	// IgnoreDiacritics matches "e" against "é" and friends.
	IgnoreDiacritics bool `yaml:"ignore_diacritics"`

	// Limit caps the number of matches. Zero means unlimited.
	Limit int `yaml:"limit"`
}

// DefaultConfig returns the configuration every search starts from.
func DefaultConfig() Config {
	return Config{
		SupportHighlight:    true,
		HighlightKey:        DefaultHighlightKey,
		ScoreKey:            DefaultScoreKey,
		MinSearchTermLength: DefaultMinSearchTermLength,
		HighlightTag:        DefaultHighlightTag,
		IncludeScore:        true,
		ShouldSort:          true,
		Threshold:           DefaultThreshold,
		Distance:            DefaultDistance,
		MinMatchCharLength:  DefaultMinMatchCharLength,
	}
}

// NewConfig applies opts over DefaultConfig.
func NewConfig(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt.Apply(&cfg)
		}
	}
	return cfg
}

// Validate reports configuration values no matcher can honour.
func (c *Config) Validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return errors.Wrapf(ErrInvalidOption, "threshold %v outside [0,1]", c.Threshold)
	}
	if c.Distance < 0 {
		return errors.Wrapf(ErrInvalidOption, "distance %d is negative", c.Distance)
	}
	if c.Location < 0 {
		return errors.Wrapf(ErrInvalidOption, "location %d is negative", c.Location)
	}
	if c.MinMatchCharLength < 0 {
		return errors.Wrapf(ErrInvalidOption, "min match char length %d is negative", c.MinMatchCharLength)
	}
	if c.Limit < 0 {
		return errors.Wrapf(ErrInvalidOption, "limit %d is negative", c.Limit)
	}
	if c.MaximumScore != nil && *c.MaximumScore < 0 {
		return errors.Wrapf(ErrInvalidOption, "maximum score %v is negative", *c.MaximumScore)
	}
	for i, key := range c.Keys {
		if key == "" {
			return errors.Wrapf(ErrInvalidOption, "key %d is empty", i)
		}
	}
	return nil
}

// tags returns the opening and closing markup for the configured tag.
func (c *Config) tags() (string, string) {
	tag := c.HighlightTag
	if tag == "" {
		tag = DefaultHighlightTag
	}
	return "<" + tag + ">", "</" + tag + ">"
}

func (c *Config) highlightKey() string {
	if c.HighlightKey == "" {
		return DefaultHighlightKey
	}
	return c.HighlightKey
}

func (c *Config) scoreKey() string {
	if c.ScoreKey == "" {
		return DefaultScoreKey
	}
	return c.ScoreKey
}

// optionFunc is a function that implements Option.
type optionFunc func(*Config)

// Apply implements the Option interface for optionFunc.
func (f optionFunc) Apply(cfg *Config) {
	f(cfg)
}

// WithKeys sets the field paths to search.
func WithKeys(keys ...string) Option {
	return optionFunc(func(cfg *Config) {
		cfg.Keys = append([]string(nil), keys...)
	})
}

// WithHighlight enables or disables highlight clones.
func WithHighlight(enabled bool) Option {
	return optionFunc(func(cfg *Config) {
		cfg.SupportHighlight = enabled
	})
}

// WithHighlightKey sets the attribute name of the highlight clone.
func WithHighlightKey(key string) Option {
	return optionFunc(func(cfg *Config) {
		cfg.HighlightKey = key
	})
}

// WithScoreKey sets the attribute name of the score.
func WithScoreKey(key string) Option {
	return optionFunc(func(cfg *Config) {
		cfg.ScoreKey = key
	})
}

// WithHighlightTag sets the markup element, e.g. "mark".
func WithHighlightTag(tag string) Option {
	return optionFunc(func(cfg *Config) {
		cfg.HighlightTag = tag
	})
}

// WithMinSearchTermLength sets the shortest term that triggers matching.
func WithMinSearchTermLength(n int) Option {
	return optionFunc(func(cfg *Config) {
		cfg.MinSearchTermLength = n
	})
}

// WithMaximumScore drops results scoring above score.
func WithMaximumScore(score float64) Option {
	return optionFunc(func(cfg *Config) {
		cfg.MaximumScore = &score
	})
}

// WithIncludeScore controls whether results carry their score.
func WithIncludeScore(include bool) Option {
	return optionFunc(func(cfg *Config) {
		cfg.IncludeScore = include
	})
}

// WithThreshold sets the worst acceptable match score.
func WithThreshold(threshold float64) Option {
	return optionFunc(func(cfg *Config) {
		cfg.Threshold = threshold
	})
}

// WithLocation sets the expected match position.
func WithLocation(location int) Option {
	return optionFunc(func(cfg *Config) {
		cfg.Location = location
	})
}

// WithDistance sets how far a match may drift from Location.
func WithDistance(distance int) Option {
	return optionFunc(func(cfg *Config) {
		cfg.Distance = distance
	})
}

// WithIgnoreLocation disables the location penalty.
func WithIgnoreLocation(ignore bool) Option {
	return optionFunc(func(cfg *Config) {
		cfg.IgnoreLocation = ignore
	})
}

// WithMinMatchCharLength drops shorter matched ranges.
func WithMinMatchCharLength(n int) Option {
	return optionFunc(func(cfg *Config) {
		cfg.MinMatchCharLength = n
	})
}

// WithShouldSort controls score ordering.
func WithShouldSort(sort bool) Option {
	return optionFunc(func(cfg *Config) {
		cfg.ShouldSort = sort
	})
}

// WithIgnoreDiacritics folds accented characters before matching.
func WithIgnoreDiacritics(ignore bool) Option {
	return optionFunc(func(cfg *Config) {
		cfg.IgnoreDiacritics = ignore
	})
}

// WithLimit sets the maximum number of matches to return.
func WithLimit(n int) Option {
	return optionFunc(func(cfg *Config) {
		cfg.Limit = n
	})
}
