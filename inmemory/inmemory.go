// Package inmemory implements fusex.Matcher in process on top of
// github.com/sahilm/fuzzy, scoring matches the way fuse.js does.
package inmemory

import (
	"context"
	"math"
	"sort"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/sahilm/fuzzy"

	"github.com/letmevibethatforyou/fusex"
	"github.com/letmevibethatforyou/fusex/internal/fieldpath"
)

// candidate is one searchable string of one document.
type candidate struct {
	doc        int
	arrayIndex int
	value      string
	folded     string
}

// candidates implements fuzzy.Source over the folded strings.
type candidates []candidate

func (c candidates) String(i int) string { return c[i].folded }

func (c candidates) Len() int { return len(c) }

// Matcher matches terms against a fixed set of documents.
// It is immutable after New and safe for concurrent use.
type Matcher struct {
	cfg   fusex.Config
	keys  []string
	byKey []candidates
}

// New indexes the configured keys of docs.
func New(docs []fusex.Document, cfg *fusex.Config) (*Matcher, error) {
	if cfg == nil {
		defaults := fusex.DefaultConfig()
		cfg = &defaults
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Matcher{
		cfg:   *cfg,
		keys:  append([]string(nil), cfg.Keys...),
		byKey: make([]candidates, len(cfg.Keys)),
	}

	f := newFolder(cfg.IgnoreDiacritics)
	for k, key := range m.keys {
		path, err := fieldpath.Parse(key)
		if err != nil {
			return nil, errors.WithSecondaryError(fusex.ErrInvalidOption, err)
		}
		for i, doc := range docs {
			if doc == nil {
				continue
			}
			value, ok := path.Get(doc)
			if !ok {
				continue
			}
			m.byKey[k] = appendCandidates(m.byKey[k], f, i, value)
		}
	}

	return m, nil
}

// Factory adapts New to fusex.MatcherFactory.
func Factory(docs []fusex.Document, cfg *fusex.Config) (fusex.Matcher, error) {
	return New(docs, cfg)
}

func appendCandidates(dst candidates, f *folder, doc int, value any) candidates {
	if list, ok := value.([]any); ok {
		for i, elem := range list {
			if text, ok := textOf(elem); ok {
				dst = append(dst, candidate{doc: doc, arrayIndex: i, value: text, folded: f.fold(text)})
			}
		}
		return dst
	}
	if text, ok := textOf(value); ok {
		dst = append(dst, candidate{doc: doc, arrayIndex: fusex.NoArrayIndex, value: text, folded: f.fold(text)})
	}
	return dst
}

type scoredDocument struct {
	doc     int
	score   float64
	matches []fusex.Match
}

// Match implements the fusex.Matcher interface.
func (m *Matcher) Match(ctx context.Context, term string) ([]fusex.MatchResult, error) {
	// Check context
	select {
	case <-ctx.Done():
		return nil, fusex.ContextError(ctx)
	default:
	}

	pattern := newFolder(m.cfg.IgnoreDiacritics).fold(term)
	patternLen := utf8.RuneCountInString(pattern)
	if patternLen == 0 {
		return []fusex.MatchResult{}, nil
	}

	hits := make(map[int]*scoredDocument)
	var order []int

	for k, key := range m.keys {
		// Check context between keys
		select {
		case <-ctx.Done():
			return nil, fusex.ContextError(ctx)
		default:
		}

		source := m.byKey[k]
		for _, found := range fuzzy.FindFromNoSort(pattern, source) {
			c := source[found.Index]
			positions := runePositions(c.folded, found.MatchedIndexes)
			score := m.score(positions)
			if score > m.cfg.Threshold {
				continue
			}

			hit, ok := hits[c.doc]
			if !ok {
				hit = &scoredDocument{doc: c.doc, score: 1}
				hits[c.doc] = hit
				order = append(order, c.doc)
			}
			hit.score *= score

			if m.cfg.IncludeMatches {
				hit.matches = append(hit.matches, fusex.Match{
					Key:        key,
					ArrayIndex: c.arrayIndex,
					Value:      c.value,
					Indices:    m.ranges(positions),
				})
			}
		}
	}

	scored := make([]*scoredDocument, 0, len(order))
	for _, doc := range order {
		scored = append(scored, hits[doc])
	}
	m.sortMatches(scored)

	if m.cfg.Limit > 0 && len(scored) > m.cfg.Limit {
		scored = scored[:m.cfg.Limit]
	}

	results := make([]fusex.MatchResult, 0, len(scored))
	for _, s := range scored {
		results = append(results, fusex.MatchResult{
			RefIndex: s.doc,
			Score:    s.score,
			Matches:  s.matches,
		})
	}
	return results, nil
}

// sortMatches orders by document position, then by ascending score when
// sorting is enabled. Ties keep document order.
func (m *Matcher) sortMatches(scored []*scoredDocument) {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].doc < scored[j].doc
	})
	if !m.cfg.ShouldSort {
		return
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score < scored[j].score
	})
}

// score rates one matched string in [0,1], lower is better.
//
// Characters skipped inside the matched window count as errors relative to
// the pattern length; the distance of the first matched character from
// Location adds a penalty scaled by Distance unless IgnoreLocation is set.
func (m *Matcher) score(positions []int) float64 {
	first, last := positions[0], positions[len(positions)-1]
	gaps := (last - first + 1) - len(positions)
	accuracy := float64(gaps) / float64(len(positions))

	if m.cfg.IgnoreLocation {
		return clamp01(accuracy)
	}

	proximity := math.Abs(float64(m.cfg.Location - first))
	if m.cfg.Distance == 0 {
		if proximity > 0 {
			return 1
		}
		return clamp01(accuracy)
	}
	return clamp01(accuracy + proximity/float64(m.cfg.Distance))
}

// ranges groups consecutive positions into inclusive spans, dropping spans
// shorter than MinMatchCharLength.
func (m *Matcher) ranges(positions []int) []fusex.Range {
	var out []fusex.Range
	start := positions[0]
	for i := 1; i <= len(positions); i++ {
		if i < len(positions) && positions[i] == positions[i-1]+1 {
			continue
		}
		end := positions[i-1]
		if end-start+1 >= m.cfg.MinMatchCharLength {
			out = append(out, fusex.Range{Start: start, End: end})
		}
		if i < len(positions) {
			start = positions[i]
		}
	}
	return out
}

// runePositions converts byte offsets reported by sahilm/fuzzy into rune
// offsets of s.
func runePositions(s string, byteOffsets []int) []int {
	positions := make([]int, len(byteOffsets))
	if len(s) == utf8.RuneCountInString(s) {
		copy(positions, byteOffsets)
		return positions
	}

	runeAt := make(map[int]int, len(s))
	r := 0
	for b := range s {
		runeAt[b] = r
		r++
	}
	for i, b := range byteOffsets {
		positions[i] = runeAt[b]
	}
	return positions
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
