package fusex

import (
	"context"
	"encoding/json"
	"testing"
)

func TestNewDocument(t *testing.T) {
	doc, err := NewDocument(book{Title: "Dubliners", Year: 1914, Tags: []string{"stories"}})
	if err != nil {
		t.Fatalf("NewDocument failed: %v", err)
	}
	if doc["title"] != "Dubliners" {
		t.Errorf("Expected title Dubliners, got %v", doc["title"])
	}
	if year, ok := doc["year"].(json.Number); !ok || year.String() != "1914" {
		t.Errorf("Expected year as json.Number 1914, got %#v", doc["year"])
	}
	if tags, ok := doc["tags"].([]any); !ok || len(tags) != 1 {
		t.Errorf("Expected tags as []any, got %#v", doc["tags"])
	}
}

func TestNewDocumentNotObject(t *testing.T) {
	for _, v := range []any{"Dubliners", 42, []string{"a"}, nil} {
		doc, err := NewDocument(v)
		if err != nil {
			t.Errorf("NewDocument(%#v) failed: %v", v, err)
		}
		if doc != nil {
			t.Errorf("Expected nil document for %#v, got %v", v, doc)
		}
	}
}

func TestNewDocumentUnencodable(t *testing.T) {
	if _, err := NewDocument(map[string]any{"ch": make(chan int)}); err == nil {
		t.Error("Expected error for unencodable value, got nil")
	}
}

func TestClone(t *testing.T) {
	original := Document{
		"title": "Dubliners",
		"tags":  []any{"stories", map[string]any{"lang": "en"}},
	}

	copied, err := clone(original)
	if err != nil {
		t.Fatalf("clone failed: %v", err)
	}

	copied["title"] = "changed"
	copied["tags"].([]any)[0] = "changed"
	copied["tags"].([]any)[1].(map[string]any)["lang"] = "changed"

	if original["title"] != "Dubliners" {
		t.Errorf("Expected title unchanged, got %v", original["title"])
	}
	tags := original["tags"].([]any)
	if tags[0] != "stories" || tags[1].(map[string]any)["lang"] != "en" {
		t.Errorf("Expected nested values unchanged, got %v", tags)
	}
}

type annotatedBook struct {
	Title string `json:"title"`
	note  string
	notes []string
}

func TestCloneUnexportedFields(t *testing.T) {
	original := annotatedBook{Title: "Clean Code", note: "signed", notes: []string{"first edition"}}

	copied, err := clone(original)
	if err != nil {
		t.Fatalf("clone failed: %v", err)
	}
	if copied.Title != "Clean Code" || copied.note != "signed" {
		t.Errorf("Expected all fields copied, got %+v", copied)
	}
	if len(copied.notes) != 1 || copied.notes[0] != "first edition" {
		t.Fatalf("Expected unexported slice copied, got %v", copied.notes)
	}

	copied.notes[0] = "changed"
	if original.notes[0] != "first edition" {
		t.Errorf("Expected unexported slice not shared, got %v", original.notes)
	}
}

func TestCloneNil(t *testing.T) {
	var doc Document
	copied, err := clone(doc)
	if err != nil {
		t.Fatalf("clone failed: %v", err)
	}
	if copied != nil {
		t.Errorf("Expected nil document, got %v", copied)
	}

	var v any
	if got, err := clone(v); err != nil || got != nil {
		t.Errorf("Expected nil, got %v, %v", got, err)
	}
}

func TestSearchListKeepsUnexportedFields(t *testing.T) {
	items := []annotatedBook{{Title: "Clean Code", note: "signed"}}
	results, err := SearchList(context.Background(), fixed(), items, "")
	if err != nil {
		t.Fatalf("SearchList failed: %v", err)
	}
	if len(results) != 1 || results[0].Item.note != "signed" {
		t.Errorf("Expected note to survive, got %+v", results)
	}
}
