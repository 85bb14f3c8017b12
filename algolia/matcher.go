package algolia

import (
	"context"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/opt"
	"github.com/cockroachdb/errors"

	"github.com/letmevibethatforyou/fusex"
	"github.com/letmevibethatforyou/fusex/internal/fieldpath"
)

const (
	// DefaultIDKey is the document field matched against a hit's objectID.
	DefaultIDKey = "objectID"

	defaultHitsPerPage = 100

	preTag  = "<em>"
	postTag = "</em>"
)

// Matcher implements fusex.Matcher by querying an Algolia index and mapping
// each hit back to the searched document with the same ID.
//
// Algolia reports ranking, not a score, so a hit's score is its rank divided
// by the number of hits. Threshold and ShouldSort do not apply; Algolia has
// already ranked the hits.
type Matcher struct {
	client    *Client
	indexName string
	cfg       fusex.Config
	refs      map[string]int
}

// NewMatcherFactory returns a fusex.MatcherFactory whose matchers search
// indexName. idKey names the document field holding the Algolia objectID;
// an empty idKey means DefaultIDKey.
func NewMatcherFactory(client *Client, indexName, idKey string) fusex.MatcherFactory {
	if idKey == "" {
		idKey = DefaultIDKey
	}
	return func(docs []fusex.Document, cfg *fusex.Config) (fusex.Matcher, error) {
		return NewMatcher(client, indexName, idKey, docs, cfg)
	}
}

// NewMatcher builds a Matcher over docs. Documents without an ID under idKey
// can never be matched.
func NewMatcher(client *Client, indexName, idKey string, docs []fusex.Document, cfg *fusex.Config) (*Matcher, error) {
	if cfg == nil {
		defaults := fusex.DefaultConfig()
		cfg = &defaults
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	path, err := fieldpath.Parse(idKey)
	if err != nil {
		return nil, errors.WithSecondaryError(fusex.ErrInvalidOption, err)
	}

	refs := make(map[string]int, len(docs))
	for i, doc := range docs {
		if doc == nil {
			continue
		}
		value, ok := path.Get(doc)
		if !ok {
			continue
		}
		if id, ok := objectID(value); ok {
			if _, seen := refs[id]; !seen {
				refs[id] = i
			}
		}
	}

	return &Matcher{
		client:    client,
		indexName: indexName,
		cfg:       *cfg,
		refs:      refs,
	}, nil
}

// Match implements the fusex.Matcher interface using Algolia search.
func (m *Matcher) Match(ctx context.Context, term string) ([]fusex.MatchResult, error) {
	// Check context
	select {
	case <-ctx.Done():
		return nil, fusex.ContextError(ctx)
	default:
	}

	if len(m.refs) == 0 || len(m.cfg.Keys) == 0 {
		return []fusex.MatchResult{}, nil
	}

	res, err := m.client.Search(ctx, m.indexName, term, buildSearchParams(&m.cfg)...)
	if err != nil {
		// Check if this is a timeout or cancellation error
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fusex.ErrTimeout
		}
		if errors.Is(err, context.Canceled) {
			return nil, fusex.ErrCanceled
		}

		return nil, errors.WithSecondaryError(
			fusex.ErrBackendUnavailable,
			errors.Wrap(err, "Algolia search failed"),
		)
	}

	return m.convertHits(res.Hits), nil
}

// convertHits maps hits onto searched documents, dropping hits for objects
// the caller did not pass in.
func (m *Matcher) convertHits(hits []map[string]interface{}) []fusex.MatchResult {
	results := make([]fusex.MatchResult, 0, len(hits))
	for position, hit := range hits {
		id, _ := objectID(hit["objectID"])
		ref, ok := m.refs[id]
		if !ok {
			continue
		}

		result := fusex.MatchResult{
			RefIndex: ref,
			Score:    calculateScore(len(hits), position),
		}
		if m.cfg.IncludeMatches {
			result.Matches = extractMatches(hit, m.cfg.Keys)
		}
		results = append(results, result)

		if m.cfg.Limit > 0 && len(results) == m.cfg.Limit {
			break
		}
	}
	return results
}

// buildSearchParams converts the search configuration to Algolia parameters.
func buildSearchParams(cfg *fusex.Config) []interface{} {
	hitsPerPage := defaultHitsPerPage
	if cfg.Limit > 0 {
		hitsPerPage = cfg.Limit
	}

	attributes := attributeNames(cfg.Keys)
	params := []interface{}{
		opt.HitsPerPage(hitsPerPage),
		opt.RestrictSearchableAttributes(attributes...),
	}
	if cfg.IncludeMatches {
		params = append(params,
			opt.AttributesToHighlight(attributes...),
			opt.HighlightPreTag(preTag),
			opt.HighlightPostTag(postTag),
		)
	}
	return params
}

// attributeNames turns field paths into Algolia attribute names. Algolia
// addresses nested attributes with dots and has no element syntax, so
// element indices are dropped.
func attributeNames(keys []string) []string {
	names := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		path, err := fieldpath.Parse(key)
		if err != nil {
			continue
		}
		parts := make([]string, 0, len(path))
		for _, seg := range path {
			if !seg.IsIndex {
				parts = append(parts, seg.Key)
			}
		}
		name := strings.Join(parts, ".")
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// calculateScore creates a rank-based score in [0,1), lower is better.
func calculateScore(totalResults, position int) float64 {
	if totalResults == 0 {
		return 0
	}
	return float64(position) / float64(totalResults)
}

// extractMatches reads the _highlightResult of a hit for every key.
func extractMatches(hit map[string]interface{}, keys []string) []fusex.Match {
	highlights, ok := hit["_highlightResult"].(map[string]interface{})
	if !ok {
		return nil
	}

	var matches []fusex.Match
	for _, key := range keys {
		path, err := fieldpath.Parse(key)
		if err != nil {
			continue
		}
		node, ok := path.Get(highlights)
		if !ok {
			continue
		}

		switch n := node.(type) {
		case map[string]interface{}:
			if match, ok := highlightMatch(key, fusex.NoArrayIndex, n); ok {
				matches = append(matches, match)
			}
		case []interface{}:
			for i, elem := range n {
				h, ok := elem.(map[string]interface{})
				if !ok {
					continue
				}
				if match, ok := highlightMatch(key, i, h); ok {
					matches = append(matches, match)
				}
			}
		}
	}
	return matches
}

func highlightMatch(key string, arrayIndex int, h map[string]interface{}) (fusex.Match, bool) {
	if level, _ := h["matchLevel"].(string); level == "none" {
		return fusex.Match{}, false
	}
	value, ok := h["value"].(string)
	if !ok {
		return fusex.Match{}, false
	}

	text, ranges := parseHighlight(value)
	if len(ranges) == 0 {
		return fusex.Match{}, false
	}
	return fusex.Match{
		Key:        key,
		ArrayIndex: arrayIndex,
		Value:      text,
		Indices:    ranges,
	}, true
}

// parseHighlight strips the highlight tags from an Algolia highlighted value
// and returns the plain text with the rune spans the tags enclosed. HTML
// entities Algolia escaped are decoded before offsets are counted.
func parseHighlight(value string) (string, []fusex.Range) {
	var (
		b      strings.Builder
		ranges []fusex.Range
		pos    int
		start  int
		inside bool
	)
	rest := value

	emit := func(segment string) {
		plain := html.UnescapeString(segment)
		b.WriteString(plain)
		pos += utf8.RuneCountInString(plain)
	}

	for rest != "" {
		tag := preTag
		if inside {
			tag = postTag
		}
		i := strings.Index(rest, tag)
		if i < 0 {
			emit(rest)
			break
		}

		emit(rest[:i])
		rest = rest[i+len(tag):]
		if !inside {
			start = pos
		} else if pos > start {
			ranges = append(ranges, fusex.Range{Start: start, End: pos - 1})
		}
		inside = !inside
	}

	return b.String(), ranges
}

// objectID renders an ID value as Algolia stores it.
func objectID(v interface{}) (string, bool) {
	switch id := v.(type) {
	case string:
		return id, id != ""
	case interface{ String() string }:
		s := id.String()
		return s, s != ""
	default:
		return "", false
	}
}

var _ fusex.Matcher = (*Matcher)(nil)
