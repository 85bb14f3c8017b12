package inmemory

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// folder strips combining marks one rune at a time so that folded strings
// keep the rune offsets of the original.
type folder struct {
	enabled bool
}

func newFolder(enabled bool) *folder {
	return &folder{enabled: enabled}
}

func (f *folder) fold(s string) string {
	if !f.enabled || isASCII(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		b.WriteRune(foldRune(r))
	}
	return b.String()
}

// foldRune returns the base letter of r, or r itself when decomposition does
// not reduce it to exactly one rune.
func foldRune(r rune) rune {
	if r < utf8.RuneSelf {
		return r
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, string(r))
	if err != nil || utf8.RuneCountInString(out) != 1 {
		return r
	}
	base, _ := utf8.DecodeRuneInString(out)
	return base
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// textOf returns the searchable text of a document value. Strings are used
// as-is and numbers in their JSON form; everything else is not searchable.
func textOf(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	default:
		return "", false
	}
}
