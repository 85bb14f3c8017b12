package fusex

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"unicode/utf8"

	"github.com/letmevibethatforyou/fusex/internal/fieldpath"
)

// annotator turns matcher output into highlighted results. A range pointing
// at a missing, non-string or non-numeric value is skipped.
type annotator struct {
	cfg      *Config
	open     string
	close    string
	tagWidth int
	logger   *slog.Logger
}

func newAnnotator(cfg *Config, logger *slog.Logger) *annotator {
	open, closing := cfg.tags()
	return &annotator{
		cfg:      cfg,
		open:     open,
		close:    closing,
		tagWidth: utf8.RuneCountInString(open) + utf8.RuneCountInString(closing),
		logger:   logger,
	}
}

// annotate builds one Result per surviving MatchResult, preserving matcher order.
func annotate[T any](ctx context.Context, a *annotator, items []T, docs []Document, matches []MatchResult) ([]Result[T], error) {
	matches = filterByScore(matches, a.cfg.MaximumScore)

	results := make([]Result[T], 0, len(matches))
	for _, m := range matches {
		if m.RefIndex < 0 || m.RefIndex >= len(items) {
			a.logger.DebugContext(ctx, "matcher returned unknown item, skipping", "ref_index", m.RefIndex)
			continue
		}

		item, err := clone(items[m.RefIndex])
		if err != nil {
			return nil, err
		}
		highlighted, err := clone(docs[m.RefIndex])
		if err != nil {
			return nil, err
		}

		for _, match := range m.Matches {
			a.highlight(ctx, highlighted, match)
		}

		result := Result[T]{
			Item:         item,
			Highlighted:  highlighted,
			highlightKey: a.cfg.highlightKey(),
			scoreKey:     a.cfg.scoreKey(),
		}
		if a.cfg.IncludeScore {
			score := m.Score
			result.Score = &score
		}
		results = append(results, result)
	}

	return results, nil
}

// filterByScore drops results scoring strictly above maximum.
func filterByScore(matches []MatchResult, maximum *float64) []MatchResult {
	if maximum == nil {
		return matches
	}
	kept := make([]MatchResult, 0, len(matches))
	for _, m := range matches {
		if m.Score <= *maximum {
			kept = append(kept, m)
		}
	}
	return kept
}

// highlight inserts markup for every range of match into doc.
func (a *annotator) highlight(ctx context.Context, doc Document, match Match) {
	if doc == nil {
		return
	}

	path, err := fieldpath.Parse(match.Key)
	if err != nil {
		a.logger.DebugContext(ctx, "unparseable match key, skipping highlight", "key", match.Key, "error", err)
		return
	}

	current, ok := path.Get(doc)
	if !ok {
		a.logger.DebugContext(ctx, "match key not found in item, skipping highlight", "key", match.Key)
		return
	}
	if _, isList := current.([]any); isList {
		if match.ArrayIndex < 0 {
			a.logger.DebugContext(ctx, "array match without element index, skipping highlight", "key", match.Key)
			return
		}
		path = path.Index(match.ArrayIndex)
	}

	offset := 0
	for _, r := range match.Indices {
		value, ok := path.Get(doc)
		if !ok {
			continue
		}

		text, isString := value.(string)
		if !isString {
			text, ok = formatNumber(value)
			if !ok {
				a.logger.DebugContext(ctx, "match value is not text, skipping range", "key", path.String())
				continue
			}
		}

		path.Set(doc, a.wrap(text, r, offset))
		offset += a.tagWidth
	}
}

// wrap surrounds the span r, shifted right by offset runes, with the tags.
// Out-of-bounds spans are clamped to the string.
func (a *annotator) wrap(text string, r Range, offset int) string {
	runes := []rune(text)
	start := clamp(r.Start+offset, 0, len(runes))
	end := clamp(r.End+offset+1, start, len(runes))

	out := make([]rune, 0, len(runes)+a.tagWidth)
	out = append(out, runes[:start]...)
	out = append(out, []rune(a.open)...)
	out = append(out, runes[start:end]...)
	out = append(out, []rune(a.close)...)
	out = append(out, runes[end:]...)
	return string(out)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// formatNumber renders numeric document values the way they appear in JSON.
func formatNumber(v any) (string, bool) {
	switch n := v.(type) {
	case json.Number:
		return n.String(), true
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32), true
	case int:
		return strconv.Itoa(n), true
	case int8:
		return strconv.FormatInt(int64(n), 10), true
	case int16:
		return strconv.FormatInt(int64(n), 10), true
	case int32:
		return strconv.FormatInt(int64(n), 10), true
	case int64:
		return strconv.FormatInt(n, 10), true
	case uint:
		return strconv.FormatUint(uint64(n), 10), true
	case uint8:
		return strconv.FormatUint(uint64(n), 10), true
	case uint16:
		return strconv.FormatUint(uint64(n), 10), true
	case uint32:
		return strconv.FormatUint(uint64(n), 10), true
	case uint64:
		return strconv.FormatUint(n, 10), true
	default:
		return "", false
	}
}
