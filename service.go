package fusex

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

// Service searches lists of T and annotates the matches. It holds no state
// besides its default options and is safe for concurrent use.
type Service[T any] struct {
	newMatcher MatcherFactory
	defaults   []Option
	logger     *slog.Logger
}

// NewService creates a Service that builds matchers with factory and applies
// defaults over DefaultConfig before every call's own options.
func NewService[T any](factory MatcherFactory, defaults ...Option) *Service[T] {
	return &Service[T]{
		newMatcher: factory,
		defaults:   defaults,
		logger:     slog.Default(),
	}
}

// WithLogger returns a copy of the service that logs through logger.
func (s *Service[T]) WithLogger(logger *slog.Logger) *Service[T] {
	copied := *s
	if logger != nil {
		copied.logger = logger
	}
	return &copied
}

// Config returns the configuration a call with opts would use.
func (s *Service[T]) Config(opts ...Option) Config {
	all := make([]Option, 0, len(s.defaults)+len(opts))
	all = append(all, s.defaults...)
	all = append(all, opts...)
	return NewConfig(all...)
}

// SearchList searches items for term and returns annotated deep copies.
//
// A term shorter than MinSearchTermLength bypasses the matcher and returns
// every item unscored. Errors come only from the matcher or from items that
// cannot be copied; the input slice is never modified.
func (s *Service[T]) SearchList(ctx context.Context, items []T, term string, opts ...Option) ([]Result[T], error) {
	if len(items) == 0 {
		return []Result[T]{}, nil
	}

	cfg := s.Config(opts...)
	docs := s.documents(ctx, items)

	if term == "" || utf8.RuneCountInString(term) < cfg.MinSearchTermLength {
		return s.passthrough(items, docs, &cfg)
	}

	if cfg.SupportHighlight {
		cfg.IncludeMatches = true
	}

	if s.newMatcher == nil {
		return nil, errors.Wrap(ErrBackendUnavailable, "no matcher configured")
	}
	matcher, err := s.newMatcher(docs, &cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build matcher")
	}

	matches, err := matcher.Match(ctx, term)
	if err != nil {
		return nil, errors.Wrap(err, "match failed")
	}

	s.logger.DebugContext(ctx, "matched items",
		"term", term,
		"items", len(items),
		"matches", len(matches),
	)

	if cfg.SupportHighlight {
		return annotate(ctx, newAnnotator(&cfg, s.logger), items, docs, matches)
	}
	return s.bare(items, matches)
}

// Transform is the template-pipe entry point: elements that are not a []T,
// including nil, produce an empty result instead of an error.
func (s *Service[T]) Transform(ctx context.Context, elements any, term string, opts ...Option) ([]Result[T], error) {
	items, ok := elements.([]T)
	if !ok {
		return []Result[T]{}, nil
	}
	return s.SearchList(ctx, items, term, opts...)
}

// documents projects every item. Items that cannot be encoded get a nil
// document and will never match.
func (s *Service[T]) documents(ctx context.Context, items []T) []Document {
	docs := make([]Document, len(items))
	for i, item := range items {
		doc, err := NewDocument(item)
		if err != nil {
			s.logger.WarnContext(ctx, "item cannot be searched", "index", i, "error", err)
			continue
		}
		docs[i] = doc
	}
	return docs
}

// passthrough returns every item unscored, with an unmodified highlight
// clone when highlighting is enabled.
func (s *Service[T]) passthrough(items []T, docs []Document, cfg *Config) ([]Result[T], error) {
	results := make([]Result[T], 0, len(items))
	for i := range items {
		item, err := clone(items[i])
		if err != nil {
			return nil, err
		}
		result := Result[T]{
			Item:         item,
			highlightKey: cfg.highlightKey(),
			scoreKey:     cfg.scoreKey(),
		}
		if cfg.SupportHighlight {
			result.Highlighted, err = clone(docs[i])
			if err != nil {
				return nil, err
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// bare maps matches to plain item copies in matcher order.
func (s *Service[T]) bare(items []T, matches []MatchResult) ([]Result[T], error) {
	results := make([]Result[T], 0, len(matches))
	for _, m := range matches {
		if m.RefIndex < 0 || m.RefIndex >= len(items) {
			continue
		}
		item, err := clone(items[m.RefIndex])
		if err != nil {
			return nil, err
		}
		results = append(results, Result[T]{Item: item})
	}
	return results, nil
}

// SearchList searches items with a one-off Service built from factory.
func SearchList[T any](ctx context.Context, factory MatcherFactory, items []T, term string, opts ...Option) ([]Result[T], error) {
	return NewService[T](factory).SearchList(ctx, items, term, opts...)
}
