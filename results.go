package fusex

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// NoArrayIndex marks a Match on a field that is not an array element.
const NoArrayIndex = -1

// Range is a matched character span. Both ends are inclusive rune offsets
// into the unmodified field value.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Match describes where a term matched inside one field of a document.
type Match struct {
	// Key is the configured field path that matched.
	Key string `json:"key"`

	// ArrayIndex is the element position when the field is an array,
	// NoArrayIndex otherwise.
	ArrayIndex int `json:"arrayIndex"`

	// Value is the matched field value as the matcher saw it.
	Value string `json:"value"`

	// Indices are the matched spans in matcher order.
	Indices []Range `json:"indices"`
}

// MatchResult is one matched item as reported by a Matcher.
type MatchResult struct {
	// RefIndex is the position of the matched item in the searched list.
	RefIndex int `json:"refIndex"`

	// Score is the match quality in [0,1]; lower is better.
	Score float64 `json:"score"`

	// Matches holds per-field match ranges. Empty unless matches were requested.
	Matches []Match `json:"matches,omitempty"`
}

// Result is an annotated search result. Item and Highlighted are deep copies
// that share nothing with the caller's input.
type Result[T any] struct {
	// Item is a deep copy of the matched item.
	Item T

	// Highlighted is a copy of the item's document with matched substrings
	// wrapped in the highlight tag. Nil when highlighting is disabled.
	Highlighted Document

	// Score is the match score. Nil when no search ran or scores are excluded.
	Score *float64

	highlightKey string
	scoreKey     string
}

// HighlightKey returns the attribute name the highlight clone is stored under.
func (r Result[T]) HighlightKey() string {
	if r.highlightKey == "" {
		return DefaultHighlightKey
	}
	return r.highlightKey
}

// ScoreKey returns the attribute name the score is stored under.
func (r Result[T]) ScoreKey() string {
	if r.scoreKey == "" {
		return DefaultScoreKey
	}
	return r.scoreKey
}

// MarshalJSON encodes the item as a JSON object extended with the highlight
// clone and the score under their configured attribute names.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(r.Item)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal result item")
	}
	if r.Highlighted == nil && r.Score == nil {
		return data, nil
	}
	if !gjson.ParseBytes(data).IsObject() {
		return nil, errors.Wrapf(ErrNotObject, "cannot attach %q", r.HighlightKey())
	}

	if r.Highlighted != nil {
		data, err = sjson.SetBytes(data, escapeKey(r.HighlightKey()), r.Highlighted)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to set %q", r.HighlightKey())
		}
	}
	if r.Score != nil {
		data, err = sjson.SetBytes(data, escapeKey(r.ScoreKey()), *r.Score)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to set %q", r.ScoreKey())
		}
	}
	return data, nil
}

var keyEscaper = strings.NewReplacer(`\`, `\\`, ".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`)

// escapeKey turns an attribute name into a single-segment sjson path.
func escapeKey(key string) string {
	return keyEscaper.Replace(key)
}
