package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
)

const wrapped = `{
	"meta": {"source": "test"},
	"data": {
		"books": [
			{"title": "Things Fall Apart", "author": "Chinua Achebe", "pages": 209, "year": 1958},
			{"title": "Le Père Goriot", "author": "Honoré de Balzac", "pages": 443, "year": 1835}
		]
	}
}`

func TestBundledBooks(t *testing.T) {
	books, err := Books(context.Background(), "", "")
	if err != nil {
		t.Fatalf("Books failed: %v", err)
	}
	if len(books) < 10 {
		t.Fatalf("Expected the bundled catalog, got %d books", len(books))
	}
	if books[0].Title != "Things Fall Apart" || books[0].Year != 1958 {
		t.Errorf("Unexpected first book %+v", books[0])
	}
}

func TestDocumentsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(wrapped), 0o600); err != nil {
		t.Fatalf("Failed to write catalog: %v", err)
	}

	docs, err := Documents(context.Background(), path, "data.books")
	if err != nil {
		t.Fatalf("Documents failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("Expected 2 documents, got %d", len(docs))
	}
	if docs[1]["author"] != "Honoré de Balzac" {
		t.Errorf("Expected author 'Honoré de Balzac', got %v", docs[1]["author"])
	}
	if pages, ok := docs[0]["pages"].(json.Number); !ok || pages.String() != "209" {
		t.Errorf("Expected pages as json.Number 209, got %#v", docs[0]["pages"])
	}
}

func TestBooksOverHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/books.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(wrapped))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	loader := &Loader{Client: server.Client()}
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		books, err := loader.Books(ctx, server.URL+"/books.json", "data.books")
		if err != nil {
			t.Fatalf("Books failed: %v", err)
		}
		if len(books) != 2 || books[1].Pages != 443 {
			t.Errorf("Unexpected books %+v", books)
		}
	})

	t.Run("not found", func(t *testing.T) {
		if _, err := loader.Books(ctx, server.URL+"/missing.json", ""); err == nil {
			t.Error("Expected error for missing catalog, got nil")
		}
	})
}

func TestReadNotArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(wrapped), 0o600); err != nil {
		t.Fatalf("Failed to write catalog: %v", err)
	}

	tests := []struct {
		name      string
		itemsPath string
	}{
		{"document is an object", ""},
		{"path is an object", "data"},
		{"path missing", "data.films"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&Loader{}).Read(context.Background(), path, tt.itemsPath)
			if !errors.Is(err, ErrNotArray) {
				t.Errorf("Expected ErrNotArray, got %v", err)
			}
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	_, err := Documents(context.Background(), filepath.Join(t.TempDir(), "nope.json"), "")
	if err == nil {
		t.Error("Expected error for missing file, got nil")
	}
}
