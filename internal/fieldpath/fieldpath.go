// Package fieldpath reads and writes values inside decoded JSON-like trees
// (map[string]any, []any and scalars) using dot/bracket path notation such
// as "authors[1].name".
package fieldpath

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrInvalidPath is returned when a path string cannot be parsed.
var ErrInvalidPath = errors.New("fieldpath: invalid path")

// Segment is a single step of a Path: either an object key or an array index.
type Segment struct {
	// Key is the object property name. Unused when IsIndex is set.
	Key string
	// Index is the array position. Only meaningful when IsIndex is set.
	Index int
	// IsIndex reports whether the segment came from bracket notation like [2].
	IsIndex bool
}

func (s Segment) String() string {
	if s.IsIndex {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	return s.Key
}

// key returns the segment as an object property name.
func (s Segment) key() string {
	if s.IsIndex {
		return strconv.Itoa(s.Index)
	}
	return s.Key
}

// index returns the segment as an array position.
// Object keys that spell a non-negative integer are accepted.
func (s Segment) index() (int, bool) {
	if s.IsIndex {
		return s.Index, true
	}
	n, err := strconv.Atoi(s.Key)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Path is a parsed field path.
type Path []Segment

// Parse splits a path string into segments.
//
// Dots separate object keys, [N] addresses an array element and ["key"] or
// ['key'] quotes a key that contains dots or brackets.
func Parse(raw string) (Path, error) {
	if raw == "" {
		return nil, errors.Wrap(ErrInvalidPath, "empty path")
	}

	var path Path
	var key strings.Builder
	pending := false

	flush := func() {
		if pending {
			path = append(path, Segment{Key: key.String()})
			key.Reset()
			pending = false
		}
	}

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch c {
		case '.':
			if !pending && (i == 0 || raw[i-1] == '.') {
				// "a..b" and ".a" carry an empty key, as lodash does.
				path = append(path, Segment{})
				continue
			}
			flush()
		case '[':
			flush()
			end := strings.IndexByte(raw[i:], ']')
			if end < 0 {
				return nil, errors.Wrapf(ErrInvalidPath, "unterminated bracket in %q", raw)
			}
			seg, err := parseBracket(raw[i+1 : i+end])
			if err != nil {
				return nil, errors.Wrapf(err, "path %q", raw)
			}
			path = append(path, seg)
			i += end
			if i+1 < len(raw) && raw[i+1] == '.' {
				i++
			}
		default:
			key.WriteByte(c)
			pending = true
		}
	}
	flush()

	return path, nil
}

func parseBracket(inner string) (Segment, error) {
	if n := len(inner); n >= 2 && (inner[0] == '"' || inner[0] == '\'') {
		if inner[n-1] != inner[0] {
			return Segment{}, errors.Wrapf(ErrInvalidPath, "unbalanced quote in [%s]", inner)
		}
		return Segment{Key: inner[1 : n-1]}, nil
	}
	if n, err := strconv.Atoi(inner); err == nil && n >= 0 {
		return Segment{Index: n, IsIndex: true}, nil
	}
	return Segment{Key: inner}, nil
}

// String renders the path back into dot/bracket notation.
func (p Path) String() string {
	var b strings.Builder
	for i, seg := range p {
		if !seg.IsIndex && i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg.String())
	}
	return b.String()
}

// Index returns a copy of p with an array index segment appended.
func (p Path) Index(i int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, Segment{Index: i, IsIndex: true})
}

// Get walks root along the path. The boolean is false when any segment does
// not resolve; Get never panics on a missing or mistyped path.
func (p Path) Get(root any) (any, bool) {
	if len(p) == 0 {
		return nil, false
	}
	cur := root
	for _, seg := range p {
		next, ok := child(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Set assigns value at the path inside root, mutating root in place.
//
// Missing or scalar intermediate segments are replaced with a fresh
// map[string]any, even when the segment is numeric. Set reports false when
// root is not a container or an array index is out of range.
func (p Path) Set(root any, value any) bool {
	if len(p) == 0 || !isContainer(root) {
		return false
	}
	cur := root
	for _, seg := range p[:len(p)-1] {
		next, ok := child(cur, seg)
		if !ok || !isContainer(next) {
			next = map[string]any{}
			if !assign(cur, seg, next) {
				return false
			}
		}
		cur = next
	}
	return assign(cur, p[len(p)-1], value)
}

// Get parses raw and reads the value it addresses. Unparseable paths do not
// resolve.
func Get(root any, raw string) (any, bool) {
	p, err := Parse(raw)
	if err != nil {
		return nil, false
	}
	return p.Get(root)
}

// Set parses raw and writes value at the path it addresses.
func Set(root any, raw string, value any) bool {
	p, err := Parse(raw)
	if err != nil {
		return false
	}
	return p.Set(root, value)
}

func child(cur any, seg Segment) (any, bool) {
	switch c := cur.(type) {
	case map[string]any:
		v, ok := c[seg.key()]
		return v, ok
	case []any:
		i, ok := seg.index()
		if !ok || i >= len(c) {
			return nil, false
		}
		return c[i], true
	default:
		return nil, false
	}
}

func assign(cur any, seg Segment, value any) bool {
	switch c := cur.(type) {
	case map[string]any:
		c[seg.key()] = value
		return true
	case []any:
		i, ok := seg.index()
		if !ok || i >= len(c) {
			return false
		}
		c[i] = value
		return true
	default:
		return false
	}
}

func isContainer(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	default:
		return false
	}
}
