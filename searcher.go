package fusex

import "context"

// Matcher defines the approximate-matching backend the orchestrator drives.
//
// A Matcher is built over a fixed set of documents. Match returns results
// whose scores lie in [0,1] (lower is better) and whose ranges are
// inclusive rune offsets into the unmodified field values.
type Matcher interface {
	// Match runs term against the documents the matcher was built with.
	Match(ctx context.Context, term string) ([]MatchResult, error)
}

// MatcherFunc is a function type that implements the Matcher interface.
// This allows using a function as a Matcher, similar to http.HandlerFunc.
type MatcherFunc func(context.Context, string) ([]MatchResult, error)

// Match implements the Matcher interface for MatcherFunc.
func (f MatcherFunc) Match(ctx context.Context, term string) ([]MatchResult, error) {
	return f(ctx, term)
}

// MatcherFactory builds a Matcher over docs with the merged configuration.
// docs[i] is the document projection of the i-th searched item; it is nil
// when the item does not project to a JSON object.
type MatcherFactory func(docs []Document, cfg *Config) (Matcher, error)
