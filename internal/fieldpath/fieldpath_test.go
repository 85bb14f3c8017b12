package fieldpath

import (
	"errors"
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := map[string]struct {
		raw      string
		expected Path
		wantErr  bool
	}{
		"single_key": {
			raw:      "title",
			expected: Path{{Key: "title"}},
		},
		"nested_keys": {
			raw:      "author.name",
			expected: Path{{Key: "author"}, {Key: "name"}},
		},
		"bracket_index": {
			raw:      "authors[1].name",
			expected: Path{{Key: "authors"}, {Index: 1, IsIndex: true}, {Key: "name"}},
		},
		"trailing_index": {
			raw:      "tags[0]",
			expected: Path{{Key: "tags"}, {Index: 0, IsIndex: true}},
		},
		"consecutive_indexes": {
			raw:      "matrix[1][2]",
			expected: Path{{Key: "matrix"}, {Index: 1, IsIndex: true}, {Index: 2, IsIndex: true}},
		},
		"leading_index": {
			raw:      "[3].title",
			expected: Path{{Index: 3, IsIndex: true}, {Key: "title"}},
		},
		"quoted_key": {
			raw:      `meta["release.date"]`,
			expected: Path{{Key: "meta"}, {Key: "release.date"}},
		},
		"single_quoted_key": {
			raw:      `meta['first edition'].year`,
			expected: Path{{Key: "meta"}, {Key: "first edition"}, {Key: "year"}},
		},
		"numeric_dot_key": {
			raw:      "items.2",
			expected: Path{{Key: "items"}, {Key: "2"}},
		},
		"empty_middle_key": {
			raw:      "a..b",
			expected: Path{{Key: "a"}, {Key: ""}, {Key: "b"}},
		},
		"empty": {
			raw:     "",
			wantErr: true,
		},
		"unterminated_bracket": {
			raw:     "tags[0",
			wantErr: true,
		},
		"unbalanced_quote": {
			raw:     `meta["x]`,
			wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			path, err := Parse(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got path %v", tc.raw, path)
				}
				if !errors.Is(err, ErrInvalidPath) {
					t.Errorf("expected ErrInvalidPath, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(path, tc.expected) {
				t.Errorf("Parse(%q) = %#v, want %#v", tc.raw, path, tc.expected)
			}
		})
	}
}

func TestPathString(t *testing.T) {
	path, err := Parse("authors[1].name")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := path.String(); got != "authors[1].name" {
		t.Errorf("expected %q, got %q", "authors[1].name", got)
	}
	if got := path.Index(4).String(); got != "authors[1].name[4]" {
		t.Errorf("expected index appended, got %q", got)
	}
	if got := path.String(); got != "authors[1].name" {
		t.Errorf("Index must not modify the receiver, got %q", got)
	}
}

func newBook() map[string]any {
	return map[string]any{
		"title": "Clean Code",
		"year":  2008,
		"tags":  []any{"alpha", "beta"},
		"authors": []any{
			map[string]any{"name": "Robert Martin"},
			map[string]any{"name": "Guest"},
		},
		"meta": map[string]any{
			"7":     "seven",
			"empty": nil,
		},
	}
}

func TestGet(t *testing.T) {
	tests := map[string]struct {
		path     string
		expected any
		found    bool
	}{
		"top_level":          {path: "title", expected: "Clean Code", found: true},
		"number":             {path: "year", expected: 2008, found: true},
		"array_element":      {path: "tags[1]", expected: "beta", found: true},
		"array_dot_index":    {path: "tags.0", expected: "alpha", found: true},
		"nested_in_array":    {path: "authors[1].name", expected: "Guest", found: true},
		"index_on_object":    {path: "meta[7]", expected: "seven", found: true},
		"explicit_nil":       {path: "meta.empty", expected: nil, found: true},
		"missing_key":        {path: "subtitle", found: false},
		"missing_nested":     {path: "publisher.name", found: false},
		"out_of_range":       {path: "tags[5]", found: false},
		"key_on_array":       {path: "tags.first", found: false},
		"through_scalar":     {path: "title.length", found: false},
		"through_nil":        {path: "meta.empty.x", found: false},
		"unparseable":        {path: "tags[1", found: false},
		"whole_array_lookup": {path: "tags", expected: []any{"alpha", "beta"}, found: true},
	}

	book := newBook()
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			value, found := Get(book, tc.path)
			if found != tc.found {
				t.Fatalf("Get(%q) found = %v, want %v", tc.path, found, tc.found)
			}
			if found && !reflect.DeepEqual(value, tc.expected) {
				t.Errorf("Get(%q) = %#v, want %#v", tc.path, value, tc.expected)
			}
		})
	}
}

func TestGetNonContainerRoot(t *testing.T) {
	if _, ok := Get("plain string", "length"); ok {
		t.Error("expected no value from a scalar root")
	}
	if _, ok := Get(nil, "title"); ok {
		t.Error("expected no value from a nil root")
	}
}

func TestSet(t *testing.T) {
	t.Run("overwrite_existing", func(t *testing.T) {
		book := newBook()
		if !Set(book, "title", "<em>Clean</em> Code") {
			t.Fatal("Set failed")
		}
		if book["title"] != "<em>Clean</em> Code" {
			t.Errorf("unexpected title %v", book["title"])
		}
	})

	t.Run("array_element_in_place", func(t *testing.T) {
		book := newBook()
		if !Set(book, "tags[1]", "<em>beta</em>") {
			t.Fatal("Set failed")
		}
		tags := book["tags"].([]any)
		if tags[0] != "alpha" || tags[1] != "<em>beta</em>" {
			t.Errorf("unexpected tags %v", tags)
		}
	})

	t.Run("nested_in_array", func(t *testing.T) {
		book := newBook()
		if !Set(book, "authors[0].name", "Uncle Bob") {
			t.Fatal("Set failed")
		}
		got, _ := Get(book, "authors[0].name")
		if got != "Uncle Bob" {
			t.Errorf("unexpected name %v", got)
		}
	})

	t.Run("auto_vivifies_objects", func(t *testing.T) {
		book := newBook()
		if !Set(book, "publisher.address.city", "Boston") {
			t.Fatal("Set failed")
		}
		publisher, ok := book["publisher"].(map[string]any)
		if !ok {
			t.Fatalf("expected publisher map, got %T", book["publisher"])
		}
		address, ok := publisher["address"].(map[string]any)
		if !ok {
			t.Fatalf("expected address map, got %T", publisher["address"])
		}
		if address["city"] != "Boston" {
			t.Errorf("unexpected city %v", address["city"])
		}
	})

	t.Run("numeric_segment_vivifies_object", func(t *testing.T) {
		book := newBook()
		if !Set(book, "editions[2].isbn", "978-0132350884") {
			t.Fatal("Set failed")
		}
		editions, ok := book["editions"].(map[string]any)
		if !ok {
			t.Fatalf("expected editions to be a map, got %T", book["editions"])
		}
		edition, ok := editions["2"].(map[string]any)
		if !ok {
			t.Fatalf("expected key \"2\" to hold a map, got %T", editions["2"])
		}
		if edition["isbn"] != "978-0132350884" {
			t.Errorf("unexpected isbn %v", edition["isbn"])
		}
	})

	t.Run("replaces_scalar_intermediate", func(t *testing.T) {
		book := newBook()
		if !Set(book, "year.value", 2009) {
			t.Fatal("Set failed")
		}
		year, ok := book["year"].(map[string]any)
		if !ok || year["value"] != 2009 {
			t.Errorf("unexpected year %#v", book["year"])
		}
	})

	t.Run("out_of_range_index", func(t *testing.T) {
		book := newBook()
		if Set(book, "tags[5]", "gamma") {
			t.Error("expected Set to fail for an out-of-range index")
		}
		if len(book["tags"].([]any)) != 2 {
			t.Error("tags must not grow")
		}
	})

	t.Run("scalar_root", func(t *testing.T) {
		if Set("title", "x", 1) {
			t.Error("expected Set to fail for a scalar root")
		}
	})

	t.Run("array_root", func(t *testing.T) {
		root := []any{"a", map[string]any{"b": "c"}}
		if !Set(root, "[1].b", "d") {
			t.Fatal("Set failed")
		}
		if root[1].(map[string]any)["b"] != "d" {
			t.Errorf("unexpected root %v", root)
		}
	})

	t.Run("unparseable", func(t *testing.T) {
		if Set(newBook(), "tags[", "x") {
			t.Error("expected Set to fail for an unparseable path")
		}
	})
}
